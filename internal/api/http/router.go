package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/forum-relay/internal/api/http/handlers"
	"github.com/spec-kit/forum-relay/internal/auth"
)

// WebhookPath is the route GitHub delivers project item webhooks to.
const WebhookPath = "/webhook_endpoint"

// RouteConfig bundles dependencies for route registration.
// Admin routes are registered only when both Admin and AdminMiddleware are set.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Webhook         *handlers.WebhookHandler
	Admin           *handlers.AdminHandler
	AdminMiddleware *auth.AdminMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post(WebhookPath, cfg.Webhook.Receive)

	if cfg.Admin == nil || cfg.AdminMiddleware == nil {
		return
	}
	admin := app.Group("/admin", cfg.AdminMiddleware.Handle)
	admin.Get("/threads/:itemName", cfg.Admin.Thread)
	admin.Get("/stats", cfg.Admin.Stats)
}
