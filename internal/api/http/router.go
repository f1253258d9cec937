package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/api/ws"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Articles       *handlers.ArticlesHandler
	Realtime       *ws.Handler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/accounts",
		cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin), cfg.Users.CreateAccount)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/snapshot", cfg.Tickets.GetTicket)
	tickets.Post("/:id/responses", cfg.Tickets.AddResponse)
	tickets.Patch("/:id/status", auth.RequireSupport(), cfg.Tickets.UpdateStatus)
	tickets.Patch("/:id/priority", auth.RequireSupport(), cfg.Tickets.UpdatePriority)
	tickets.Put("/:id/assignee", auth.RequireSupport(), cfg.Tickets.Assign)

	kb := app.Group("/kb", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	kb.Get("/", cfg.Articles.List)
	kb.Get("/:id", cfg.Articles.Get)
	kb.Post("/", auth.RequireSupport(), cfg.Articles.Create)
	kb.Put("/:id", auth.RequireSupport(), cfg.Articles.Update)
	kb.Delete("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Articles.Delete)

	app.Get("/ws", ws.UpgradeGuard(), cfg.AuthMiddleware.Handle, cfg.Realtime.Endpoint())
}
