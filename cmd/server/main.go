// Package main is the entry point for the agent authentication server.
// It loads the configuration, connects postgres and redis, wires the
// services and serves the HTTP API until interrupted.
package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"agentauth/internal/config"
	"agentauth/internal/handlers"
	"agentauth/internal/repositories"
	"agentauth/internal/repositories/cache"
	"agentauth/internal/routes"
	"agentauth/internal/services/agent"
	"agentauth/internal/services/auth"
	"agentauth/internal/services/notification"
	"agentauth/internal/services/otp"
	"agentauth/internal/services/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	zlog, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repositories.Open(cfg.DB, zlog)
	if err != nil {
		return err
	}
	defer func() {
		if err := repositories.Close(db); err != nil {
			zlog.Warn("failed to close database", zap.Error(err))
		}
	}()
	if err := repositories.Ping(ctx, db); err != nil {
		return err
	}
	if err := repositories.Migrate(db); err != nil {
		return err
	}

	checks := map[string]handlers.Check{
		"database": func(ctx context.Context) error { return repositories.Ping(ctx, db) },
	}

	var (
		agentCache repositories.AgentCache
		limiter    otp.RateLimiter
	)
	if cfg.Redis.Enabled {
		client := cache.NewRedisClient(&cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := cache.Ping(ctx, client); err != nil {
			// Codes and lockouts live in postgres; redis only adds caching and throttling.
			zlog.Warn("redis unavailable, continuing without cache and request throttling", zap.Error(err))
			_ = client.Close()
		} else {
			cacheService := cache.NewCacheService(client, cfg.AgentCacheTTL)
			defer func() {
				if err := cacheService.Close(); err != nil {
					zlog.Warn("failed to close redis", zap.Error(err))
				}
			}()
			agentCache = cacheService
			limiter = otp.NewRedisLimiter(client, otp.LimiterConfig{
				Cooldown:     cfg.OTP.RequestCooldown,
				Window:       cfg.OTP.RequestWindow,
				MaxPerWindow: cfg.OTP.MaxRequestsPerWindow,
			})
			checks["redis"] = func(ctx context.Context) error { return cache.Ping(ctx, client) }
			zlog.Info("redis connected", zap.String("host", cfg.Redis.Host))
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	agentService := agent.NewService(
		repositories.NewAgentRepository(db, agentCache, zlog),
		agent.Config{AllowedCountryCodes: cfg.AllowedCountryCodes},
		zlog,
	)
	otpService := otp.NewService(
		repositories.NewOtpRepository(db),
		limiter,
		notification.NewService(zlog),
		otp.Config{
			CodeLength:      cfg.OTP.CodeLength,
			TTL:             cfg.OTP.TTL,
			LockoutDuration: cfg.OTP.LockoutDuration,
			MaxAttempts:     cfg.OTP.MaxAttempts,
			Environment:     cfg.Env,
		},
		otp.NewPrometheusMetrics(reg),
		zlog,
	)
	sessionService := session.NewService(
		repositories.NewSessionRepository(db),
		agentService,
		session.Config{Secret: cfg.JWTSecret, TTL: cfg.SessionTTL},
		zlog,
	)
	authService := auth.NewService(agentService, otpService, sessionService, zlog)

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler(zlog),
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Admin-Token",
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowCredentials: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.SetupRoutes(app, routes.Dependencies{
		Auth:                  authService,
		Agents:                agentService,
		Sessions:              sessionService,
		HealthChecks:          checks,
		Metrics:               reg,
		AdminToken:            cfg.AdminToken,
		AuthRequestsPerMinute: cfg.AuthRateLimit,
		Log:                   zlog,
	})

	go otpService.RunCleanupLoop(ctx, cfg.CleanupInterval)
	go sessionService.RunPurgeLoop(ctx, cfg.CleanupInterval)

	serveErr := make(chan error, 1)
	go func() {
		zlog.Info("listening", zap.String("addr", cfg.ListenAddr()), zap.String("env", string(cfg.Env)))
		serveErr <- app.Listen(cfg.ListenAddr())
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	zlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

func errorHandler(zlog *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code == fiber.StatusInternalServerError {
			zlog.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
			return c.Status(code).JSON(fiber.Map{"error": "internal error", "code": "INTERNAL"})
		}
		return c.Status(code).JSON(fiber.Map{"error": err.Error()})
	}
}
