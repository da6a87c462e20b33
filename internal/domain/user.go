package domain

// Requester identifies who is making a call. It is built by the auth
// middleware from JWT claims and passed explicitly into every service
// operation; there is no ambient "current user".
type Requester struct {
	TenantId TenantId
	UserId   UserId
	Role     Role
}

func (r Requester) IsAdmin() bool {
	return IsAdmin(r.Role)
}
