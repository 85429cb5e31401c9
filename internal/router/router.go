package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/codacad/debug-coach-api/internal/config"
	"github.com/codacad/debug-coach-api/internal/handler"
	"github.com/codacad/debug-coach-api/internal/middleware"
	"github.com/codacad/debug-coach-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SubmissionHandler  *handler.SubmissionHandler
	HelpHandler        *handler.HelpHandler
	PracticeHandler    *handler.PracticeHandler
	StudentCodeHandler *handler.StudentCodeHandler
	ProblemHandler     *handler.ProblemHandler
	JWTMiddleware      fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	debugging := app.Group("/debugging",
		jwtMiddleware,
		middleware.RequireRole("student", "teacher"),
		middleware.RateLimit("debugging", cfg.RateLimitRequests, cfg.RateLimitWindow),
		func(c *fiber.Ctx) error {
			c.Set("X-Application", cfg.AppName)
			return c.Next()
		})

	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.Register(debugging)
	}

	if deps.HelpHandler != nil {
		deps.HelpHandler.Register(debugging.Group("/help"))
	}

	if deps.PracticeHandler != nil {
		deps.PracticeHandler.Register(debugging.Group("/practice"))
	}

	if deps.StudentCodeHandler != nil {
		deps.StudentCodeHandler.Register(debugging.Group("/student_code"))
	}

	if deps.ProblemHandler != nil {
		deps.ProblemHandler.Register(debugging.Group("/problems"))
	}
}
