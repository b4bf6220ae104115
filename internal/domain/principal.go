package domain

// RoleUser is the single role granted to authenticated users.
const RoleUser = "USER"

// Principal is the authenticated identity bound to a request after the
// authentication gate has accepted its token. It is passed explicitly
// through the request context, never held in process-wide state.
type Principal struct {
	UserID      int64
	Login       string
	Authorities []string
}

// NewPrincipal builds a principal with the default role set.
func NewPrincipal(userID int64, login string) Principal {
	return Principal{
		UserID:      userID,
		Login:       login,
		Authorities: []string{RoleUser},
	}
}

// HasAuthority reports whether the principal carries the given authority.
func (p Principal) HasAuthority(authority string) bool {
	for _, a := range p.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}
