package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/flopysoft/flopy-crm/internal/config"
	"github.com/flopysoft/flopy-crm/internal/handlers"
	"github.com/flopysoft/flopy-crm/internal/middleware"
	"github.com/flopysoft/flopy-crm/internal/router"
	"github.com/flopysoft/flopy-crm/internal/services"
	"github.com/flopysoft/flopy-crm/internal/session"
)

// Setup wires middleware, the health endpoint and the front-controller
// catch-all. The returned error is fatal: a router that cannot serve its
// default route is a deployment problem.
func Setup(
	app *fiber.App,
	cfg *config.Config,
	manager *session.Manager,
	userService *services.UserService,
	healthHandler *handlers.HealthHandler,
	controllers ...router.Controller,
) error {
	// General rate limiter: 60 req/min per IP.
	app.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	app.Get("/health", healthHandler.Check)
	app.Static("/uploads", cfg.UploadDir)

	// Stricter limit on credential endpoints: 10 req/min per IP.
	for _, path := range []string{"/users/login", "/users/register", "/users/forgot", "/users/reset"} {
		app.Use(path, limiter.New(limiter.Config{
			Max:               10,
			Expiration:        1 * time.Minute,
			LimiterMiddleware: limiter.SlidingWindow{},
			KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		}))
	}

	app.Use(middleware.Authenticate(manager, userService))

	r := router.New("dashboard", "index")
	for _, ctrl := range controllers {
		r.Register(ctrl)
	}
	if err := r.Validate(); err != nil {
		return err
	}
	app.All("/*", r.Handler())
	return nil
}
