package service

import (
	"github.com/schoolink-dev/schoolink/internal/domain"
	internal_errors "github.com/schoolink-dev/schoolink/internal/errors"
)

// CanSend is the fixed message-type -> sender-role rule table. It is a
// deterministic check, so failures are never retried.
//
// The switch is exhaustive over the closed MessageType set; a new type must be
// added here or sending it fails as a validation error.
func CanSend(msgType domain.MessageType, role domain.Role) error {
	switch msgType {
	case domain.Announcement, domain.SchoolDocument:
		if !domain.IsAdmin(role) {
			return internal_errors.PermissionDenied("Only administrators can send school-wide messages")
		}
	case domain.ClassAnnouncement, domain.StudentMessage,
		domain.ClassPhoto, domain.StudentPhoto,
		domain.ClassDocument, domain.StudentDocument:
		if !domain.IsStaff(role) {
			return internal_errors.PermissionDenied("Only staff can send this type of message")
		}
	case domain.Reply:
		// Replies are gated by thread participation, checked when the thread
		// is loaded, not by the role table.
	default:
		return internal_errors.Validation("Unknown message type")
	}
	return nil
}
