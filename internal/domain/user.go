package domain

import "time"

// Role enumerates capability sets for accounts. AGENT and ADMIN carry
// disjoint capabilities rather than strictly nested ones.
type Role string

const (
	RoleUser       Role = "USER"
	RoleAgent      Role = "AGENT"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// Valid reports whether the role is a known value.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAgent, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// User is the domain model for every account: end-users, agents and admins.
// OrganizationID is nil only for SUPER_ADMIN accounts.
type User struct {
	ID             string
	Name           string
	Email          string
	PasswordHash   string
	Role           Role
	OrganizationID *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
