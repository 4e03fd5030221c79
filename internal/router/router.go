package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-pitch-api/internal/config"
	"github.com/noah-isme/gema-pitch-api/internal/handler"
	"github.com/noah-isme/gema-pitch-api/internal/middleware"
	"github.com/noah-isme/gema-pitch-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	EvaluationHandler *handler.ApplicationEvaluationHandler
	// EvaluationLimiter throttles scoring requests. Nil disables throttling.
	EvaluationLimiter fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	if deps.EvaluationHandler == nil {
		return
	}

	limiter := deps.EvaluationLimiter
	if limiter == nil {
		limiter = func(c *fiber.Ctx) error { return c.Next() }
	}

	applications := api.Group("/applications")
	applications.Use("/evaluate", limiter)
	deps.EvaluationHandler.Register(applications)

	// Path used by the admin UI's function invocation.
	app.Post("/functions/v1/score-pitch-ai", limiter, deps.EvaluationHandler.Evaluate)
}

// EvaluationLimiter builds the per-IP limiter configured for scoring routes.
func EvaluationLimiter(cfg config.Config) fiber.Handler {
	return middleware.RateLimit("pitch-evaluate", cfg.EvaluationRateLimit, cfg.EvaluationRateLimitSpan)
}
