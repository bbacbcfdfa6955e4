package domain

// Actor is the authenticated caller of a core operation, resolved from the
// bearer token by the HTTP layer and passed explicitly everywhere; core
// code never reads identity from ambient state.
type Actor struct {
	ID             string
	Role           Role
	OrganizationID *string
}

// IsSuperAdmin reports whether the actor has global scope.
func (a Actor) IsSuperAdmin() bool {
	return a.Role == RoleSuperAdmin
}

// SameTenant reports whether the given organization falls inside the
// actor's tenant. Super-admins match every tenant.
func (a Actor) SameTenant(organizationID string) bool {
	if a.IsSuperAdmin() {
		return true
	}
	return a.OrganizationID != nil && *a.OrganizationID == organizationID
}
