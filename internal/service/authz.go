package service

import (
	"github.com/devdesk/helpdesk/internal/domain"
	"github.com/devdesk/helpdesk/internal/repository"
	apperrors "github.com/devdesk/helpdesk/pkg/util"
)

// Role capability checks for ticket mutations. AGENT and ADMIN are
// compared as capability sets; neither contains the other.

func canManageTickets(actor domain.Actor) bool {
	switch actor.Role {
	case domain.RoleAgent, domain.RoleAdmin, domain.RoleSuperAdmin:
		return true
	}
	return false
}

func canAssign(actor domain.Actor) bool {
	return actor.Role == domain.RoleAdmin || actor.Role == domain.RoleSuperAdmin
}

func canSetDueDate(actor domain.Actor) bool {
	return actor.Role == domain.RoleAdmin || actor.Role == domain.RoleSuperAdmin
}

func canManageUsers(actor domain.Actor) bool {
	return actor.Role == domain.RoleAdmin || actor.Role == domain.RoleSuperAdmin
}

// hideForeignTicket converts cross-tenant access into a not-found error
// so tenant-scoped actors cannot enumerate other tenants' tickets.
func hideForeignTicket(actor domain.Actor, ticket *domain.Ticket) error {
	if actor.SameTenant(ticket.OrganizationID) {
		return nil
	}
	return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticket.ID})
}

// applyTenantScope restricts a list/count filter to the actor's tenant.
// Super-admins keep global scope unless they narrowed it explicitly.
func applyTenantScope(filter *repository.TicketFilter, actor domain.Actor) {
	if actor.IsSuperAdmin() {
		return
	}
	filter.OrganizationID = actor.OrganizationID
}
