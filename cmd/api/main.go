// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/docvault/internal/admin"
	"github.com/carterperez-dev/docvault/internal/audit"
	"github.com/carterperez-dev/docvault/internal/auth"
	"github.com/carterperez-dev/docvault/internal/config"
	"github.com/carterperez-dev/docvault/internal/core"
	"github.com/carterperez-dev/docvault/internal/document"
	"github.com/carterperez-dev/docvault/internal/health"
	"github.com/carterperez-dev/docvault/internal/lockout"
	"github.com/carterperez-dev/docvault/internal/metrics"
	"github.com/carterperez-dev/docvault/internal/middleware"
	"github.com/carterperez-dev/docvault/internal/scope"
	"github.com/carterperez-dev/docvault/internal/server"
	"github.com/carterperez-dev/docvault/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

// Page labels recorded when a role gate turns someone away.
const (
	pageAdmin    = "ADMIN"
	pageManager  = "MANAGER"
	pageEmployee = "EMPLOYEE"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	genKeys := flag.Bool("generate-keys", false, "generate a session key pair and exit")
	flag.Parse()

	if *genKeys {
		if err := generateKeys(*configPath); err != nil {
			slog.Error("key generation failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	metrics.Init()

	tokenManager, err := auth.NewSessionTokenManager(cfg.Session)
	if err != nil {
		return err
	}
	logger.Info("session token manager initialized",
		"algorithm", "ES256",
		"key_id", tokenManager.GetKeyID(),
	)

	auditRepo := audit.NewRepository(db.DB)
	auditRecorder := audit.NewRecorder(auditRepo, redis.Client, logger)
	auditHandler := audit.NewHandler(auditRecorder)

	lockoutRepo := lockout.NewRepository(db.DB)
	lockoutSvc := lockout.NewService(lockoutRepo, cfg.Lockout)

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo, auditRecorder)
	userHandler := user.NewHandler(userSvc)

	authRepo := auth.NewRepository(db.DB)
	authSvc := auth.NewService(
		authRepo,
		tokenManager,
		userSvc,
		lockoutSvc,
		auditRecorder,
		redis.Client,
		logger,
	)
	authHandler := auth.NewHandler(authSvc)

	scopeRepo := scope.NewRepository(db.DB)
	scopeSvc := scope.NewService(scopeRepo, auditRecorder)
	scopeHandler := scope.NewHandler(scopeSvc)

	documentRepo := document.NewRepository(db.DB)
	documentSvc := document.NewService(documentRepo, scopeSvc, auditRecorder)
	documentHandler := document.NewHandler(documentSvc)

	healthHandler := health.NewHandler(db, redis)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		AuthSvc:    authSvc,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(metrics.Instrument)
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.App.Environment == "production"))
	router.Use(middleware.CORS(cfg.CORS))
	router.Use(middleware.Authenticate(authSvc))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", tokenManager.GetJWKSHandler())
	router.Handle("/metrics", metrics.Handler())

	gate := middleware.NewRoleGate(auditRecorder, logger)
	adminOnly := gate.Require(pageAdmin, user.RoleAdmin)
	managerOnly := gate.Require(pageManager, user.RoleManager)
	employeeOnly := gate.Require(pageEmployee, user.RoleEmployee)
	authenticated := middleware.RequireAuthenticated

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticated)
		userHandler.RegisterRoutes(r, authenticated, adminOnly)
		scopeHandler.RegisterRoutes(r, adminOnly, managerOnly)
		documentHandler.RegisterRoutes(r, employeeOnly, managerOnly)
		auditHandler.RegisterRoutes(r, adminOnly)
		adminHandler.RegisterRoutes(r, adminOnly)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func generateKeys(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := auth.GenerateKeyPair(
		cfg.Session.PrivateKeyPath,
		cfg.Session.PublicKeyPath,
	); err != nil {
		return err
	}

	slog.Info("session key pair written",
		"private", cfg.Session.PrivateKeyPath,
		"public", cfg.Session.PublicKeyPath,
	)
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
