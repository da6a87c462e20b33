package service

import (
	"context"

	"github.com/schoolink-dev/schoolink/internal/domain"
	internal_errors "github.com/schoolink-dev/schoolink/internal/errors"
)

// Directory looks up users in the tenant's user directory.
type Directory interface {
	// UsersByRole returns active, non-deleted users holding the role.
	UsersByRole(ctx context.Context, tenantId domain.TenantId, role domain.Role) ([]domain.UserId, error)
	IsActive(ctx context.Context, tenantId domain.TenantId, userId domain.UserId) (bool, error)
}

// Roster exposes class membership and parent-student links.
type Roster interface {
	// StudentsInClass returns a NotFound error if the class does not exist
	// (or is soft-deleted) in the tenant.
	StudentsInClass(ctx context.Context, tenantId domain.TenantId, classId domain.ClassId) ([]domain.StudentId, error)
	// ParentsOfStudent returns the parents with an active link to the student.
	// A NotFound error means the student itself is missing; a student with no
	// linked parents yields an empty slice, which is not an error.
	ParentsOfStudent(ctx context.Context, tenantId domain.TenantId, studentId domain.StudentId) ([]domain.UserId, error)
}

// Resolver computes the distinct recipient set for a message from its type and
// scope. It is read-only: the only side effects are the directory and roster
// lookups. Sender exclusion is the caller's job, applied after resolution.
type Resolver struct {
	directory Directory
	roster    Roster
}

func NewResolver(directory Directory, roster Roster) *Resolver {
	return &Resolver{directory, roster}
}

// Resolve returns recipients as a set: a parent matched through several link
// rows still appears once. A resolution yielding zero users is valid.
func (r *Resolver) Resolve(ctx context.Context, tenantId domain.TenantId, msgType domain.MessageType, classId *domain.ClassId, studentId *domain.StudentId) (map[domain.UserId]struct{}, error) {
	recipients := make(map[domain.UserId]struct{})

	switch msgType {
	case domain.Announcement, domain.SchoolDocument:
		parents, err := r.directory.UsersByRole(ctx, tenantId, domain.RoleParent)
		if err != nil {
			return nil, err
		}
		for _, id := range parents {
			recipients[id] = struct{}{}
		}

	case domain.ClassAnnouncement, domain.ClassPhoto, domain.ClassDocument:
		if classId == nil {
			return nil, internal_errors.Validation("Class-scoped message requires a class id")
		}
		students, err := r.roster.StudentsInClass(ctx, tenantId, *classId)
		if err != nil {
			return nil, err
		}
		for _, student := range students {
			parents, err := r.roster.ParentsOfStudent(ctx, tenantId, student)
			if err != nil {
				return nil, err
			}
			for _, id := range parents {
				recipients[id] = struct{}{}
			}
		}

	case domain.StudentMessage, domain.StudentPhoto, domain.StudentDocument:
		if studentId == nil {
			return nil, internal_errors.Validation("Student-scoped message requires a student id")
		}
		parents, err := r.roster.ParentsOfStudent(ctx, tenantId, *studentId)
		if err != nil {
			return nil, err
		}
		for _, id := range parents {
			recipients[id] = struct{}{}
		}

	case domain.Reply:
		// Replies are addressed to thread participants; the reply flow
		// computes those from the thread, never through this resolver.
		return nil, internal_errors.Validation("Replies resolve recipients from thread participants")

	default:
		return nil, internal_errors.Validation("Unknown message type")
	}

	return recipients, nil
}
