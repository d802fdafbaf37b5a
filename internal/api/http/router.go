package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/slidexpress/workflow-service/internal/api/http/handlers"
	"github.com/slidexpress/workflow-service/internal/auth"
	"github.com/slidexpress/workflow-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Emails         *handlers.EmailsHandler
	TeamMembers    *handlers.TeamMembersHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	api := app.Group("/api", cfg.AuthMiddleware.Handle, auth.RequireRole())

	tickets := api.Group("/tickets")
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/emails/:jobId", cfg.Tickets.EmailsByJobID)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Post("/:id/assign", cfg.Tickets.AssignTicket)
	tickets.Get("/:id/status-options", cfg.Tickets.StatusOptions)
	tickets.Get("/:id/history", cfg.Tickets.History)

	team := api.Group("/team-members")
	team.Get("/", cfg.TeamMembers.List)
	team.Get("/grouped", cfg.TeamMembers.Grouped)
	team.Get("/my-tasks/current", cfg.TeamMembers.MyTasks)
	team.Post("/", cfg.TeamMembers.Create)
	team.Put("/:id", cfg.TeamMembers.Update)
	team.Delete("/:id", cfg.TeamMembers.Deactivate)
	team.Get("/:name/tasks", cfg.TeamMembers.MemberTasks)

	emails := api.Group("/emails", auth.RequireRole(domain.CoordinatorRoles...), auth.RequireWorkspace())
	emails.Post("/sync", cfg.Emails.Sync)
	emails.Get("/", cfg.Emails.List)
	emails.Get("/:id", cfg.Emails.Get)
	emails.Get("/:id/attachments/:index", cfg.Emails.DownloadAttachment)
	emails.Delete("/:id", cfg.Emails.Delete)
}
