package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/message-router/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Webhook     *handlers.WebhookHandler
	Messages    *handlers.MessagesHandler
	Assignments *handlers.AssignmentsHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/webhook/inbound", cfg.Webhook.Receive)

	messages := app.Group("/messages")
	messages.Get("/:id", cfg.Messages.Get)
	messages.Post("/:id/assign", cfg.Messages.Assign)
	messages.Put("/:id/in-progress", cfg.Messages.Start)
	messages.Put("/:id/complete", cfg.Messages.Complete)

	app.Get("/staff/:id/assignments", cfg.Assignments.ListByStaff)
}
