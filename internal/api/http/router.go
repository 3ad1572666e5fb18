package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dcr-inbox/internal/api/http/handlers"
	"github.com/spec-kit/dcr-inbox/internal/auth"
	"github.com/spec-kit/dcr-inbox/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Inbox          *handlers.InboxHandler
	ChangeRequests *handlers.ChangeRequestsHandler
	Visibility     *handlers.VisibilityHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	requireAuth := cfg.AuthMiddleware.Handle

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", requireAuth, cfg.Auth.Logout)
	authGroup.Get("/whoami", requireAuth, cfg.Auth.WhoAmI)

	inboxGroup := app.Group("/inbox", requireAuth)
	inboxGroup.Get("/", cfg.Inbox.Fetch)
	inboxGroup.Get("/current", cfg.Inbox.Current)
	inboxGroup.Get("/activity", cfg.Inbox.Activity)
	inboxGroup.Post("/select/:id", cfg.Inbox.Select)
	inboxGroup.Patch("/records/:id", cfg.Inbox.Patch)

	app.Get("/documents", requireAuth, cfg.ChangeRequests.Documents)
	app.Get("/dropdowns", requireAuth, cfg.ChangeRequests.Dropdowns)
	app.Get("/roles", requireAuth, cfg.ChangeRequests.Roles)
	app.Get("/users", requireAuth, cfg.ChangeRequests.Users)
	app.Post("/change-requests", requireAuth, cfg.ChangeRequests.Create)

	visibilityGroup := app.Group("/visibility", requireAuth, auth.RequireRole(domain.RoleKindAdmin))
	visibilityGroup.Get("/statuses", cfg.Visibility.Statuses)
}
