package domain

import "github.com/google/uuid"

type (
	TenantId  = uuid.UUID
	UserId    = uuid.UUID
	MessageId = uuid.UUID
	ClassId   = uuid.UUID
	StudentId = uuid.UUID
	FileId    = uuid.UUID

	Role = string
)

const (
	RolePlatformAdmin Role = "SUPER_ADMIN"
	RoleTenantAdmin   Role = "SCHOOL_ADMIN"
	RoleTeacher       Role = "TEACHER"
	RoleParent        Role = "PARENT"
)

// IsStaff reports whether the role can act on behalf of the school.
func IsStaff(r Role) bool {
	return r == RolePlatformAdmin || r == RoleTenantAdmin || r == RoleTeacher
}

// IsAdmin reports whether the role has tenant-wide administrative access.
func IsAdmin(r Role) bool {
	return r == RolePlatformAdmin || r == RoleTenantAdmin
}
