package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/devdesk/helpdesk/internal/api/dto"
	"github.com/devdesk/helpdesk/internal/auth"
	"github.com/devdesk/helpdesk/internal/service"
	apperrors "github.com/devdesk/helpdesk/pkg/util"
)

// DashboardHandler serves the staff overview endpoints.
type DashboardHandler struct {
	service *service.DashboardService
	sla     *service.SLAService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboardService *service.DashboardService, slaService *service.SLAService) *DashboardHandler {
	return &DashboardHandler{service: dashboardService, sla: slaService}
}

// Stats GET /dashboard/stats.
func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	stats, err := h.service.Stats(c.UserContext(), actor)
	if err != nil {
		return err
	}
	resp := dto.DashboardStatsResponse{
		ByStatus:   make(map[string]int, len(stats.ByStatus)),
		ByPriority: make(map[string]int, len(stats.ByPriority)),
		DueToday:   stats.DueToday,
		Breached:   stats.Breached,
		AtRisk:     stats.AtRisk,
	}
	for status, n := range stats.ByStatus {
		resp.ByStatus[string(status)] = n
	}
	for priority, n := range stats.ByPriority {
		resp.ByPriority[string(priority)] = n
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Workload GET /dashboard/workload.
func (h *DashboardHandler) Workload(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	workloads, err := h.service.Workload(c.UserContext(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.AgentWorkloadResponse, 0, len(workloads))
	for _, w := range workloads {
		items = append(items, dto.AgentWorkloadResponse{
			AgentID:     w.AgentID,
			AgentName:   w.AgentName,
			OpenTickets: w.OpenTickets,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// RunSweep POST /admin/sla/sweep. Forces an immediate breach sweep on top
// of whatever the scheduler is doing.
func (h *DashboardHandler) RunSweep(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if !actor.IsSuperAdmin() {
		return apperrors.NewForbidden("insufficient role")
	}
	breached, err := h.sla.RunSweep(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"breached": breached}})
}
