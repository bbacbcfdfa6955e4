package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/devdesk/helpdesk/internal/api/http/handlers"
	"github.com/devdesk/helpdesk/internal/auth"
	"github.com/devdesk/helpdesk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Organizations  *handlers.OrganizationsHandler
	Dashboard      *handlers.DashboardHandler
	AuthMiddleware *auth.AuthMiddleware
	RateLimiter    *auth.RateLimiter
}

// RegisterRoutes wires HTTP routes. Coarse role guards live here; the
// finer rules, tenant scoping included, are enforced by the services.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.RateLimiter.Limit("register"), cfg.Users.Register)
	authGroup.Post("/login", cfg.RateLimiter.Limit("login"), cfg.Users.Login)
	authGroup.Post("/password/reset/request", cfg.RateLimiter.Limit("password_reset"), cfg.Users.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Users.ConfirmPasswordReset)
	authGroup.Get("/profile", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), cfg.Users.Profile)

	staffRoles := []domain.Role{domain.RoleAgent, domain.RoleAdmin, domain.RoleSuperAdmin}
	adminRoles := []domain.Role{domain.RoleAdmin, domain.RoleSuperAdmin}

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/my", cfg.Tickets.ListMyTickets)
	tickets.Get("/", auth.RequireRole(staffRoles...), cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id/status", auth.RequireRole(staffRoles...), cfg.Tickets.ChangeStatus)
	tickets.Patch("/:id/priority", auth.RequireRole(staffRoles...), cfg.Tickets.ChangePriority)
	tickets.Patch("/:id/assign", auth.RequireRole(adminRoles...), cfg.Tickets.Assign)
	tickets.Patch("/:id/due-date", auth.RequireRole(adminRoles...), cfg.Tickets.SetDueDate)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Get("/:id/activity", cfg.Tickets.ListActivity)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)

	users := app.Group("/users", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	users.Get("/agents", auth.RequireRole(staffRoles...), cfg.Users.ListAgents)
	users.Post("/", auth.RequireRole(adminRoles...), cfg.Users.CreateUser)
	users.Get("/", auth.RequireRole(adminRoles...), cfg.Users.ListUsers)
	users.Patch("/:id/role", auth.RequireRole(adminRoles...), cfg.Users.UpdateRole)

	orgs := app.Group("/organizations", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	orgs.Get("/", auth.RequireRole(domain.RoleSuperAdmin), cfg.Organizations.ListOrganizations)
	orgs.Get("/sla", auth.RequireRole(adminRoles...), cfg.Organizations.GetSLASettings)
	orgs.Put("/sla", auth.RequireRole(adminRoles...), cfg.Organizations.UpdateSLASettings)
	orgs.Delete("/:id", auth.RequireRole(domain.RoleSuperAdmin), cfg.Organizations.DeleteOrganization)

	dashboard := app.Group("/dashboard", cfg.AuthMiddleware.Handle, auth.RequireRole(staffRoles...))
	dashboard.Get("/stats", cfg.Dashboard.Stats)
	dashboard.Get("/workload", cfg.Dashboard.Workload)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleSuperAdmin))
	admin.Post("/sla/sweep", cfg.Dashboard.RunSweep)
}
