package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Comments       *handlers.CommentsHandler
	TimeTracking   *handlers.TimeTrackingHandler
	Reopen         *handlers.ReopenHandler
	Companies      *handlers.CompaniesHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())

	tickets := protected.Group("/tickets")
	tickets.Post("", cfg.Tickets.Create)
	tickets.Get("", cfg.Tickets.List)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Patch("/:id", cfg.Tickets.Update)
	tickets.Delete("/:id", auth.RequireRole(domain.RoleAdmin, domain.RoleManager), cfg.Tickets.Delete)
	tickets.Post("/:id/escalate", auth.RequireStaff(), cfg.Tickets.Escalate)
	tickets.Get("/:id/activity", cfg.Tickets.ListActivity)

	tickets.Post("/:id/watchers", cfg.Tickets.AddWatcher)
	tickets.Delete("/:id/watchers/:userId", cfg.Tickets.RemoveWatcher)

	tickets.Post("/:id/comments", cfg.Comments.Add)
	tickets.Get("/:id/comments", cfg.Comments.List)

	tickets.Post("/:id/time/start", auth.RequireStaff(), cfg.TimeTracking.Start)
	tickets.Post("/:id/time/stop", auth.RequireStaff(), cfg.TimeTracking.Stop)
	tickets.Post("/:id/time/entries", auth.RequireStaff(), cfg.TimeTracking.AddManual)

	tickets.Post("/:id/reopen-requests", cfg.Reopen.Request)
	protected.Post("/reopen-requests/:id/approve", cfg.Reopen.Approve)
	protected.Post("/reopen-requests/:id/reject", cfg.Reopen.Reject)

	companies := protected.Group("/companies")
	companies.Post("", cfg.Companies.Create)
	companies.Get("/:id", cfg.Companies.Get)
	companies.Get("/:id/stats", cfg.Companies.Stats)

	protected.Get("/notifications", cfg.Notifications.List)
	protected.Post("/notifications/:id/read", cfg.Notifications.MarkRead)
}
