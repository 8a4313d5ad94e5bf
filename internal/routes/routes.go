// Package routes defines the API routing configuration.
package routes

import (
	"time"

	"agentauth/internal/handlers"
	"agentauth/internal/middleware"
	"agentauth/internal/services/agent"
	"agentauth/internal/services/auth"
	"agentauth/internal/services/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Dependencies are the services the routes are wired to.
type Dependencies struct {
	Auth     auth.Service
	Agents   agent.Service
	Sessions session.Service

	HealthChecks map[string]handlers.Check
	// Metrics exposes /metrics when set.
	Metrics prometheus.Gatherer

	AdminToken string
	// AuthRequestsPerMinute caps /auth requests per client IP. Zero disables it.
	AuthRequestsPerMinute int

	Log *zap.Logger
}

// SetupRoutes registers every route on app.
func SetupRoutes(app *fiber.App, deps Dependencies) {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	authHandler := handlers.NewAuthHandler(deps.Auth, log)
	agentHandler := handlers.NewAgentHandler(deps.Agents, deps.Auth, log)
	healthHandler := handlers.NewHealthHandler(deps.HealthChecks)
	authMiddleware := middleware.NewAuthMiddleware(deps.Sessions, log)

	app.Get("/health", healthHandler.HealthCheck)
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api/v1")

	authRoutes := api.Group("/auth")
	if deps.AuthRequestsPerMinute > 0 {
		authRoutes.Use(limiter.New(limiter.Config{
			Max:        deps.AuthRequestsPerMinute,
			Expiration: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": "Too many requests. Please try again later.",
					"code":  "RATE_LIMITED",
				})
			},
		}))
	}
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/send-otp", authHandler.SendOTP)
	authRoutes.Post("/verify-otp", authHandler.VerifyOTP)
	authRoutes.Post("/refresh", authHandler.RefreshToken)
	authRoutes.Post("/logout", authMiddleware.Handler, authHandler.Logout)

	agents := api.Group("/agents")
	agents.Get("/me", authMiddleware.Handler, agentHandler.GetProfile)
	agents.Put("/me", authMiddleware.Handler, agentHandler.UpdateProfile)
	agents.Patch("/:id/status", middleware.AdminToken(deps.AdminToken), agentHandler.UpdateStatus)
}
