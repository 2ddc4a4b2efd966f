package models

// Principal is the caller identity resolved by the access gate. It is either a
// RegisteredUser backed by a users row or the EnvironmentAdmin configured
// through ADMIN_EMAIL, which has none.
type Principal interface {
	PrincipalRole() UserRole
	PrincipalEmail() string
	// UserID returns the users row id and false for identities without one.
	UserID() (int64, bool)
}

// RegisteredUser is a caller with a persisted account.
type RegisteredUser struct {
	ID    int64    `json:"id"`
	Role  UserRole `json:"role"`
	Email string   `json:"email"`
}

func (u RegisteredUser) PrincipalRole() UserRole { return u.Role }
func (u RegisteredUser) PrincipalEmail() string  { return u.Email }
func (u RegisteredUser) UserID() (int64, bool)   { return u.ID, true }

// EnvironmentAdmin is the out-of-band administrator defined by configuration.
type EnvironmentAdmin struct {
	Email string `json:"email"`
}

func (a EnvironmentAdmin) PrincipalRole() UserRole { return RoleAdmin }
func (a EnvironmentAdmin) PrincipalEmail() string  { return a.Email }
func (a EnvironmentAdmin) UserID() (int64, bool)   { return 0, false }

// HasRole reports whether p holds one of roles.
func HasRole(p Principal, roles ...UserRole) bool {
	if p == nil {
		return false
	}
	for _, r := range roles {
		if p.PrincipalRole() == r {
			return true
		}
	}
	return false
}
