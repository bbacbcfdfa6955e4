package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/devdesk/helpdesk/internal/domain"
	"github.com/devdesk/helpdesk/internal/repository"
	apperrors "github.com/devdesk/helpdesk/pkg/util"
)

// OrganizationService manages tenants and their SLA thresholds.
type OrganizationService struct {
	orgs repository.OrganizationRepository
}

// OrganizationDependencies bundles collaborators for organization service.
type OrganizationDependencies struct {
	OrgRepo repository.OrganizationRepository
}

// SLASettingsInput carries the per-priority response thresholds, in hours.
type SLASettingsInput struct {
	LowHours    int
	MediumHours int
	HighHours   int
}

// NewOrganizationService constructs the service.
func NewOrganizationService(deps OrganizationDependencies) *OrganizationService {
	return &OrganizationService{orgs: deps.OrgRepo}
}

// ListOrganizations returns every tenant with user and ticket counts.
// Super-admin only.
func (s *OrganizationService) ListOrganizations(ctx context.Context, actor domain.Actor) ([]repository.OrganizationSummary, error) {
	if !actor.IsSuperAdmin() {
		return nil, apperrors.NewForbidden("insufficient role")
	}
	return s.orgs.ListWithCounts(ctx)
}

// GetSLASettings returns the actor's organization, or any organization
// for a super-admin passing organizationID.
func (s *OrganizationService) GetSLASettings(ctx context.Context, actor domain.Actor, organizationID *string) (*domain.Organization, error) {
	return s.resolveOrg(ctx, actor, organizationID)
}

// UpdateSLASettings replaces the organization's thresholds. Each value
// must sit inside the allowed hour range. Tickets created before the
// change keep the deadline they were stamped with.
func (s *OrganizationService) UpdateSLASettings(ctx context.Context, actor domain.Actor, organizationID *string, input SLASettingsInput) (*domain.Organization, error) {
	org, err := s.resolveOrg(ctx, actor, organizationID)
	if err != nil {
		return nil, err
	}
	for field, hours := range map[string]int{
		"sla_low_hours":    input.LowHours,
		"sla_medium_hours": input.MediumHours,
		"sla_high_hours":   input.HighHours,
	} {
		if hours < domain.MinSLAHours || hours > domain.MaxSLAHours {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("%s must be between %d and %d", field, domain.MinSLAHours, domain.MaxSLAHours),
				map[string]any{field: hours},
			)
		}
	}

	org.SLALowHours = input.LowHours
	org.SLAMediumHours = input.MediumHours
	org.SLAHighHours = input.HighHours
	if err := s.orgs.UpdateSLA(ctx, org); err != nil {
		return nil, apperrors.MapError(err)
	}
	return org, nil
}

// DeleteOrganization removes an empty tenant. Refused while any user or
// undeleted ticket still belongs to it.
func (s *OrganizationService) DeleteOrganization(ctx context.Context, actor domain.Actor, organizationID string) error {
	if !actor.IsSuperAdmin() {
		return apperrors.NewForbidden("insufficient role")
	}
	if _, err := s.orgs.GetByID(ctx, organizationID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("organization", map[string]any{"organization_id": organizationID})
		}
		return apperrors.MapError(err)
	}

	users, err := s.orgs.CountUsers(ctx, organizationID)
	if err != nil {
		return apperrors.MapError(err)
	}
	tickets, err := s.orgs.CountActiveTickets(ctx, organizationID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if users > 0 || tickets > 0 {
		return apperrors.NewConflict("organization is not empty", map[string]any{
			"users":   users,
			"tickets": tickets,
		})
	}
	return apperrors.MapError(s.orgs.Delete(ctx, organizationID))
}

// resolveOrg loads the organization the actor is allowed to operate on.
// Admins are pinned to their own tenant; super-admins pick one.
func (s *OrganizationService) resolveOrg(ctx context.Context, actor domain.Actor, organizationID *string) (*domain.Organization, error) {
	if !canManageUsers(actor) {
		return nil, apperrors.NewForbidden("insufficient role")
	}
	orgID := actor.OrganizationID
	if actor.IsSuperAdmin() {
		orgID = organizationID
	}
	if orgID == nil {
		return nil, apperrors.NewValidationError("organization is required", nil)
	}
	org, err := s.orgs.GetByID(ctx, *orgID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("organization", map[string]any{"organization_id": *orgID})
		}
		return nil, apperrors.MapError(err)
	}
	return org, nil
}
