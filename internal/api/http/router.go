package http

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/randya04/POSitive/internal/api/http/handlers"
	"github.com/randya04/POSitive/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Users   *handlers.UsersHandler
	Catalog *handlers.CatalogHandler
	Gate    *auth.Gate
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api", cfg.Gate.Handle, cfg.Gate.RequireSuperAdmin)

	api.Get("/users", cfg.Users.List)
	api.Patch("/users", cfg.Users.Update)
	api.Delete("/users", cfg.Users.Delete)
	api.All("/users", methodNotAllowed)

	api.Patch("/users/active", cfg.Users.SetActive)
	api.All("/users/active", methodNotAllowed)

	api.Post("/inviteUser", cfg.Users.Invite)
	api.All("/inviteUser", methodNotAllowed)

	api.Get("/restaurants", cfg.Catalog.Restaurants)
	api.All("/restaurants", methodNotAllowed)

	api.Get("/branches", cfg.Catalog.Branches)
	api.All("/branches", methodNotAllowed)
}

func methodNotAllowed(c *fiber.Ctx) error {
	return c.Status(http.StatusMethodNotAllowed).JSON(fiber.Map{"error": "Method not allowed"})
}
