package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/schoolink-dev/schoolink/internal/domain"
	internal_errors "github.com/schoolink-dev/schoolink/internal/errors"
)

// UsersByRole returns active, non-deleted users holding the role in the tenant.
func (s *Storage) UsersByRole(ctx context.Context, tenantId domain.TenantId, role domain.Role) ([]domain.UserId, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id FROM users
	WHERE tenant_id = $1 AND role = $2 AND is_active AND deleted_at IS NULL`,
		tenantId, string(role))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users by role: %w", err)
	}
	defer rows.Close()
	return scanUserIds(rows)
}

// IsActive reports whether the user exists in the tenant, is active and not
// soft-deleted. A missing user is simply inactive, not an error.
func (s *Storage) IsActive(ctx context.Context, tenantId domain.TenantId, userId domain.UserId) (bool, error) {
	var active bool
	err := s.db.QueryRowContext(ctx, `
	SELECT is_active FROM users
	WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`,
		userId, tenantId).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user activity: %w", err)
	}
	return active, nil
}

// StudentsInClass returns the non-deleted students enrolled in the class.
// The class itself must exist; a valid class with no students yields an empty
// slice.
func (s *Storage) StudentsInClass(ctx context.Context, tenantId domain.TenantId, classId domain.ClassId) ([]domain.StudentId, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
	SELECT EXISTS(
		SELECT 1 FROM school_classes
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL)`,
		classId, tenantId).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check class existence: %w", err)
	}
	if !exists {
		return nil, internal_errors.NotFound("Class not found")
	}

	rows, err := s.db.QueryContext(ctx, `
	SELECT id FROM students
	WHERE tenant_id = $1 AND class_id = $2 AND deleted_at IS NULL`,
		tenantId, classId)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch class students: %w", err)
	}
	defer rows.Close()

	var students []domain.StudentId
	for rows.Next() {
		var id domain.StudentId
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan student id: %w", err)
		}
		students = append(students, id)
	}
	return students, rows.Err()
}

// ParentsOfStudent returns the active, non-deleted parents linked to the
// student through an active link row. The student must exist; a student with
// no linked parents yields an empty slice.
func (s *Storage) ParentsOfStudent(ctx context.Context, tenantId domain.TenantId, studentId domain.StudentId) ([]domain.UserId, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
	SELECT EXISTS(
		SELECT 1 FROM students
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL)`,
		studentId, tenantId).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check student existence: %w", err)
	}
	if !exists {
		return nil, internal_errors.NotFound("Student not found")
	}

	rows, err := s.db.QueryContext(ctx, `
	SELECT u.id
	FROM parent_students ps
	JOIN users u ON u.id = ps.parent_id
	WHERE ps.tenant_id = $1 AND ps.student_id = $2 AND ps.is_active
	  AND u.is_active AND u.deleted_at IS NULL`,
		tenantId, studentId)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch student parents: %w", err)
	}
	defer rows.Close()
	return scanUserIds(rows)
}

func scanUserIds(rows *sql.Rows) ([]domain.UserId, error) {
	var ids []domain.UserId
	for rows.Next() {
		var id domain.UserId
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
