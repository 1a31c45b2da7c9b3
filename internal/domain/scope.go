package domain

// Scope is the (role, identity) pair determining which complaints a
// viewer may see. Customer scopes are owner-filtered; a staff scope is
// unrestricted.
type Scope struct {
	Role   Role
	UserID string
}

// CustomerScope builds an owner-filtered scope.
func CustomerScope(userID string) Scope {
	return Scope{Role: RoleCustomer, UserID: userID}
}

// StaffScope builds an unrestricted scope for the given staff member.
func StaffScope(userID string) Scope {
	return Scope{Role: RoleStaff, UserID: userID}
}

// Key returns a stable identifier for subscription and cache lookups.
func (s Scope) Key() string {
	return string(s.Role) + ":" + s.UserID
}

// Covers reports whether a complaint owned by ownerID is visible
// within the scope.
func (s Scope) Covers(ownerID string) bool {
	if s.Role == RoleStaff {
		return true
	}
	return s.UserID == ownerID
}
