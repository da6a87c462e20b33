package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/schoolink-dev/schoolink/internal/domain"
	internal_errors "github.com/schoolink-dev/schoolink/internal/errors"
	"github.com/schoolink-dev/schoolink/internal/logger"
	"github.com/schoolink-dev/schoolink/internal/notify"
	"github.com/schoolink-dev/schoolink/internal/service/utils"
)

type MessagingService interface {
	Create(ctx context.Context, req domain.Requester, data domain.MessageCreationData) (*domain.Message, error)
	Reply(ctx context.Context, req domain.Requester, parentId domain.MessageId, data domain.ReplyData) (*domain.Message, error)
	Get(ctx context.Context, req domain.Requester, id domain.MessageId) (*domain.Message, error)
	GetThread(ctx context.Context, req domain.Requester, id domain.MessageId) (*domain.Thread, error)
	Inbox(ctx context.Context, req domain.Requester, filter domain.InboxFilter, page, pageSize int) ([]*domain.Message, int, error)
	Sent(ctx context.Context, req domain.Requester, page, pageSize int) ([]*domain.Message, int, error)
	Announcements(ctx context.Context, req domain.Requester, page, pageSize int) ([]*domain.Message, int, error)
	MarkRead(ctx context.Context, req domain.Requester, id domain.MessageId) (bool, error)
	MarkManyRead(ctx context.Context, req domain.Requester, ids []domain.MessageId) (int, error)
	UnreadCounts(ctx context.Context, req domain.Requester) (domain.UnreadCounts, error)
	Delete(ctx context.Context, req domain.Requester, id domain.MessageId) error
}

// MessageStorage is the persistence boundary. Every query filters soft-deleted
// rows; CreateMessage persists message, recipient rows and attachment links in
// one transaction.
type MessageStorage interface {
	CreateMessage(ctx context.Context, msg *domain.Message, recipients []domain.UserId) (*domain.Message, error)
	GetMessage(ctx context.Context, tenantId domain.TenantId, id domain.MessageId) (*domain.Message, error)
	GetReplies(ctx context.Context, tenantId domain.TenantId, parentId domain.MessageId) ([]*domain.Message, error)
	GetInbox(ctx context.Context, tenantId domain.TenantId, userId domain.UserId, filter domain.InboxFilter, page, pageSize int) ([]*domain.Message, int, error)
	GetSent(ctx context.Context, tenantId domain.TenantId, userId domain.UserId, page, pageSize int) ([]*domain.Message, int, error)
	GetAnnouncements(ctx context.Context, tenantId domain.TenantId, userId domain.UserId, page, pageSize int) ([]*domain.Message, int, error)
	MarkRead(ctx context.Context, id domain.MessageId, userId domain.UserId) (bool, error)
	UnreadCounts(ctx context.Context, tenantId domain.TenantId, userId domain.UserId) (domain.UnreadCounts, error)
	SoftDeleteMessage(ctx context.Context, tenantId domain.TenantId, id domain.MessageId) error
}

type Messaging struct {
	storage   MessageStorage
	resolver  *Resolver
	directory Directory
	notifier  notify.Notifier
}

func NewMessaging(storage MessageStorage, resolver *Resolver, directory Directory, notifier notify.Notifier) MessagingService {
	return &Messaging{storage, resolver, directory, notifier}
}

// Create runs the full send pipeline: permission gate, scope validation,
// recipient resolution, atomic persist, notification hook.
func (s *Messaging) Create(ctx context.Context, req domain.Requester, data domain.MessageCreationData) (*domain.Message, error) {
	if data.Type == domain.Reply {
		return nil, internal_errors.Validation("Replies are created through the reply operation")
	}
	if err := CanSend(data.Type, req.Role); err != nil {
		return nil, err
	}

	body := utils.SanitizeText(data.Body)
	if body == "" {
		return nil, internal_errors.Validation("Message body must not be empty")
	}
	if err := validateScope(data.Type, data.ClassId, data.StudentId); err != nil {
		return nil, err
	}

	active, err := s.directory.IsActive(ctx, req.TenantId, req.UserId)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, internal_errors.PermissionDenied("Sender account is not active")
	}

	recipients, err := s.resolver.Resolve(ctx, req.TenantId, data.Type, data.ClassId, data.StudentId)
	if err != nil {
		return nil, err
	}
	// The sender never receives their own message, even when they also match
	// the resolution rules (e.g. an admin who is a parent in the same class).
	delete(recipients, req.UserId)

	msg := s.buildMessage(req, data.Type, utils.SanitizeSubject(data.Subject), body, data.ClassId, data.StudentId, nil, data.AttachmentIds)
	created, err := s.storage.CreateMessage(ctx, msg, setToSlice(recipients))
	if err != nil {
		return nil, err
	}

	s.emitCreated(ctx, created)
	return created, nil
}

// Reply creates a REPLY addressed to every thread participant except the
// replier, and advances the replier's read state on the parent.
func (s *Messaging) Reply(ctx context.Context, req domain.Requester, parentId domain.MessageId, data domain.ReplyData) (*domain.Message, error) {
	body := utils.SanitizeText(data.Body)
	if body == "" {
		return nil, internal_errors.Validation("Message body must not be empty")
	}

	// Loading the thread enforces the view check: only a participant or an
	// admin may reply.
	thread, err := s.loadThread(ctx, req, parentId)
	if err != nil {
		return nil, err
	}

	participants := thread.Participants()
	delete(participants, req.UserId)

	var subject *string
	if thread.Root.Subject != nil {
		re := "Re: " + *thread.Root.Subject
		subject = &re
	}

	msg := s.buildMessage(req, domain.Reply, subject, body, thread.Root.ClassId, thread.Root.StudentId, &parentId, data.AttachmentIds)
	created, err := s.storage.CreateMessage(ctx, msg, setToSlice(participants))
	if err != nil {
		return nil, err
	}

	// Replying implies having read the parent. Idempotent, so a second reply
	// is a no-op here.
	if _, err := s.storage.MarkRead(ctx, parentId, req.UserId); err != nil {
		return nil, err
	}

	s.emitCreated(ctx, created)
	return created, nil
}

func (s *Messaging) Get(ctx context.Context, req domain.Requester, id domain.MessageId) (*domain.Message, error) {
	msg, err := s.storage.GetMessage(ctx, req.TenantId, id)
	if err != nil {
		return nil, err
	}
	if !canView(msg, req) {
		return nil, internal_errors.PermissionDenied("You don't have permission to view this message")
	}
	return msg, nil
}

// GetThread returns the root plus replies ordered oldest-first and marks the
// root read for the requester. Opening a thread is the product's definition of
// reading a message, so the side effect is deliberate.
func (s *Messaging) GetThread(ctx context.Context, req domain.Requester, id domain.MessageId) (*domain.Thread, error) {
	thread, err := s.loadThread(ctx, req, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.storage.MarkRead(ctx, id, req.UserId); err != nil {
		return nil, err
	}

	return thread, nil
}

func (s *Messaging) Inbox(ctx context.Context, req domain.Requester, filter domain.InboxFilter, page, pageSize int) ([]*domain.Message, int, error) {
	if filter.Type != nil && !filter.Type.Valid() {
		return nil, 0, internal_errors.Validation("Unknown message type filter")
	}
	return s.storage.GetInbox(ctx, req.TenantId, req.UserId, filter, page, pageSize)
}

func (s *Messaging) Sent(ctx context.Context, req domain.Requester, page, pageSize int) ([]*domain.Message, int, error) {
	return s.storage.GetSent(ctx, req.TenantId, req.UserId, page, pageSize)
}

func (s *Messaging) Announcements(ctx context.Context, req domain.Requester, page, pageSize int) ([]*domain.Message, int, error) {
	return s.storage.GetAnnouncements(ctx, req.TenantId, req.UserId, page, pageSize)
}

// MarkRead reports whether a transition actually happened. Already-read and
// not-a-recipient are both non-error outcomes that return false.
func (s *Messaging) MarkRead(ctx context.Context, req domain.Requester, id domain.MessageId) (bool, error) {
	return s.storage.MarkRead(ctx, id, req.UserId)
}

// MarkManyRead returns how many messages actually transitioned to read, not
// the length of the input. Partial effect is the expected outcome.
func (s *Messaging) MarkManyRead(ctx context.Context, req domain.Requester, ids []domain.MessageId) (int, error) {
	count := 0
	for _, id := range ids {
		transitioned, err := s.storage.MarkRead(ctx, id, req.UserId)
		if err != nil {
			return count, err
		}
		if transitioned {
			count++
		}
	}
	return count, nil
}

func (s *Messaging) UnreadCounts(ctx context.Context, req domain.Requester) (domain.UnreadCounts, error) {
	return s.storage.UnreadCounts(ctx, req.TenantId, req.UserId)
}

// Delete soft-deletes a message. Only the sender or an admin may delete.
func (s *Messaging) Delete(ctx context.Context, req domain.Requester, id domain.MessageId) error {
	msg, err := s.storage.GetMessage(ctx, req.TenantId, id)
	if err != nil {
		return err
	}
	if msg.SenderId != req.UserId && !req.IsAdmin() {
		return internal_errors.PermissionDenied("You don't have permission to delete this message")
	}
	return s.storage.SoftDeleteMessage(ctx, req.TenantId, id)
}

// loadThread fetches the root with its recipients, checks view authorization
// and appends the replies in chronological order.
func (s *Messaging) loadThread(ctx context.Context, req domain.Requester, id domain.MessageId) (*domain.Thread, error) {
	root, err := s.storage.GetMessage(ctx, req.TenantId, id)
	if err != nil {
		return nil, err
	}
	if !canView(root, req) {
		return nil, internal_errors.PermissionDenied("You don't have permission to view this thread")
	}

	replies, err := s.storage.GetReplies(ctx, req.TenantId, id)
	if err != nil {
		return nil, err
	}

	return &domain.Thread{Root: root, Replies: replies}, nil
}

func (s *Messaging) buildMessage(req domain.Requester, msgType domain.MessageType, subject *string, body string, classId *domain.ClassId, studentId *domain.StudentId, parentId *domain.MessageId, attachmentIds []domain.FileId) *domain.Message {
	now := time.Now().UTC()
	msg := &domain.Message{
		Id:              uuid.New(),
		TenantId:        req.TenantId,
		SenderId:        req.UserId,
		Type:            msgType,
		Subject:         subject,
		Body:            body,
		ClassId:         classId,
		StudentId:       studentId,
		ParentMessageId: parentId,
		// Legacy informational field, written once and never consulted. The
		// per-recipient read flags are authoritative.
		Status:    domain.StatusSent,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i, fileId := range attachmentIds {
		msg.Attachments = append(msg.Attachments, domain.Attachment{
			MessageId:    msg.Id,
			FileId:       fileId,
			DisplayOrder: i,
		})
	}
	return msg
}

// emitCreated fires the notification hook. Delivery is best effort: the
// message is already committed, so a publish failure only gets logged.
func (s *Messaging) emitCreated(ctx context.Context, msg *domain.Message) {
	recipients := make([]domain.UserId, 0, len(msg.Recipients))
	for _, r := range msg.Recipients {
		recipients = append(recipients, r.UserId)
	}
	event := notify.MessageEvent{
		MessageId:  msg.Id,
		TenantId:   msg.TenantId,
		Type:       msg.Type,
		SenderId:   msg.SenderId,
		Recipients: recipients,
	}
	if err := s.notifier.MessageCreated(ctx, event); err != nil {
		logger.Log.Warn("failed to publish message event", "message_id", msg.Id, "error", err)
	}
}

// validateScope enforces the type/scope invariant: student types carry a
// student id, class types a class id, school-wide types neither.
func validateScope(msgType domain.MessageType, classId *domain.ClassId, studentId *domain.StudentId) error {
	switch {
	case msgType.ClassScoped():
		if classId == nil {
			return internal_errors.Validation("Class-scoped message requires a class id")
		}
		if studentId != nil {
			return internal_errors.Validation("Class-scoped message must not carry a student id")
		}
	case msgType.StudentScoped():
		if studentId == nil {
			return internal_errors.Validation("Student-scoped message requires a student id")
		}
		if classId != nil {
			return internal_errors.Validation("Student-scoped message must not carry a class id")
		}
	case msgType.SchoolScoped():
		if classId != nil || studentId != nil {
			return internal_errors.Validation("School-wide message must not carry a scope id")
		}
	}
	return nil
}

func canView(msg *domain.Message, req domain.Requester) bool {
	if msg.SenderId == req.UserId {
		return true
	}
	for _, r := range msg.Recipients {
		if r.UserId == req.UserId {
			return true
		}
	}
	return req.IsAdmin()
}

func setToSlice(set map[domain.UserId]struct{}) []domain.UserId {
	out := make([]domain.UserId, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
