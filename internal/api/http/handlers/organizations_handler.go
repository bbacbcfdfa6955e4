package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/devdesk/helpdesk/internal/api/dto"
	"github.com/devdesk/helpdesk/internal/auth"
	"github.com/devdesk/helpdesk/internal/domain"
	"github.com/devdesk/helpdesk/internal/service"
	apperrors "github.com/devdesk/helpdesk/pkg/util"
)

// OrganizationsHandler covers tenant listing and SLA configuration.
type OrganizationsHandler struct {
	service *service.OrganizationService
}

// NewOrganizationsHandler constructs handler.
func NewOrganizationsHandler(orgService *service.OrganizationService) *OrganizationsHandler {
	return &OrganizationsHandler{service: orgService}
}

// ListOrganizations GET /organizations.
func (h *OrganizationsHandler) ListOrganizations(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	summaries, err := h.service.ListOrganizations(c.UserContext(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.OrganizationSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, dto.OrganizationSummaryResponse{
			OrganizationResponse: organizationResponse(&s.Organization),
			UserCount:            s.UserCount,
			TicketCount:          s.TicketCount,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetSLASettings GET /organizations/sla.
func (h *OrganizationsHandler) GetSLASettings(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	org, err := h.service.GetSLASettings(c.UserContext(), actor, organizationIDQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": organizationResponse(org)})
}

// UpdateSLASettings PUT /organizations/sla.
func (h *OrganizationsHandler) UpdateSLASettings(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateSLARequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	org, err := h.service.UpdateSLASettings(c.UserContext(), actor, organizationIDQuery(c), service.SLASettingsInput{
		LowHours:    req.LowHours,
		MediumHours: req.MediumHours,
		HighHours:   req.HighHours,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": organizationResponse(org)})
}

// DeleteOrganization DELETE /organizations/:id.
func (h *OrganizationsHandler) DeleteOrganization(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.DeleteOrganization(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func organizationIDQuery(c *fiber.Ctx) *string {
	if raw := c.Query("organization_id"); raw != "" {
		return &raw
	}
	return nil
}

func organizationResponse(org *domain.Organization) dto.OrganizationResponse {
	return dto.OrganizationResponse{
		ID:             org.ID,
		Name:           org.Name,
		SLALowHours:    org.SLALowHours,
		SLAMediumHours: org.SLAMediumHours,
		SLAHighHours:   org.SLAHighHours,
		CreatedAt:      org.CreatedAt,
	}
}
