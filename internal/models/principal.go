package models

// Role is the authorization level of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Principal is the authenticated actor of a request. It is distinct from the
// User row referenced as an owner.
type Principal struct {
	ID       uint
	Username string
	Role     Role
}

// IsAdmin reports whether the principal may moderate other users' content.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Owns reports whether the principal is the owner with the given user ID.
func (p Principal) Owns(ownerID uint) bool {
	return p.ID != 0 && p.ID == ownerID
}

// CanModerate reports whether the principal may delete content owned by ownerID.
func (p Principal) CanModerate(ownerID uint) bool {
	return p.Owns(ownerID) || p.IsAdmin()
}
