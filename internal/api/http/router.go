package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-service/internal/api/http/handlers"
	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Users   *handlers.UsersHandler
	Admin   *handlers.AdminHandler
	Metrics *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", func(c *fiber.Ctx) error {
		return c.JSON(cfg.Metrics.Snapshot())
	})

	v1 := app.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.Post("/signup", cfg.Users.Signup)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/signin", cfg.Users.Login)
	authGroup.Get("/me", auth.RequireBearer(), cfg.Users.Me)

	users := v1.Group("/users", auth.RequireBearer())
	users.Get("/me", cfg.Users.Me)
	users.Put("/profile", cfg.Users.UpdateProfile)
	users.Put("/password", cfg.Users.UpdatePassword)

	users.Get("/", cfg.Admin.List)
	users.Post("/", cfg.Admin.Create)
	users.Put("/:id/role", cfg.Admin.UpdateRole)
	users.Delete("/:id", cfg.Admin.Delete)
}

// NewApp builds a fiber app with the service's middleware chain and routes.
func NewApp(mw MiddlewareConfig, routes RouteConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, mw)
	RegisterRoutes(app, routes)
	return app
}
