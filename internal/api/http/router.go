package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/teplocom/support-triage/internal/api/http/handlers"
	"github.com/teplocom/support-triage/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Webhook        *handlers.WebhookHandler
	Tickets        *handlers.TicketsHandler
	Operators      *handlers.OperatorsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health", cfg.Health.Status)

	api := app.Group("/api")
	api.Post("/webhook/email", cfg.Webhook.HandleInboundEmail)
	api.Post("/auth/login", cfg.Operators.Login)

	protected := api.Group("", cfg.AuthMiddleware.Handle)
	protected.Post("/auth/password/change", cfg.Operators.ChangePassword)
	protected.Get("/analytics", cfg.Tickets.Analytics)

	tickets := protected.Group("/tickets")
	tickets.Get("/", cfg.Tickets.List)
	tickets.Get("/table", cfg.Tickets.Table)
	tickets.Get("/export/csv", cfg.Tickets.ExportCSV)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Put("/:id", cfg.Tickets.Update)
	tickets.Post("/:id/reply", cfg.Tickets.Reply)
}
