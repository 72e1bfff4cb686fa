// Waboku.gg | 2026
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

	"github.com/aaandroiddd/waboku-api/internal/admin"
	"github.com/aaandroiddd/waboku-api/internal/auth"
	"github.com/aaandroiddd/waboku-api/internal/config"
	"github.com/aaandroiddd/waboku-api/internal/core"
	"github.com/aaandroiddd/waboku-api/internal/favorite"
	"github.com/aaandroiddd/waboku-api/internal/health"
	"github.com/aaandroiddd/waboku-api/internal/lifecycle"
	"github.com/aaandroiddd/waboku-api/internal/listing"
	"github.com/aaandroiddd/waboku-api/internal/middleware"
	"github.com/aaandroiddd/waboku-api/internal/server"
	"github.com/aaandroiddd/waboku-api/internal/subscription"
	"github.com/aaandroiddd/waboku-api/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

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

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo)
	userHandler := user.NewHandler(userSvc)

	authRepo := auth.NewRepository(db.DB)
	authSvc := auth.NewService(authRepo, jwtManager, userSvc, redis.Client)
	authHandler := auth.NewHandler(authSvc)

	subRepo := subscription.NewRepository(db.DB)
	tierResolver := subscription.NewResolver(subRepo)
	subSvc := subscription.NewService(subRepo, userSvc, logger)
	subHandler := subscription.NewHandler(subSvc, tierResolver)

	policy := lifecycle.NewPolicy(cfg.Lifecycle)
	browseCache := listing.NewBrowseCache(redis.Client, logger)

	listingRepo := listing.NewRepository(db.DB)
	favoriteRepo := favorite.NewRepository(db.DB)
	favoriteSvc := favorite.NewService(
		favoriteRepo,
		listingRepo,
		cfg.Lifecycle.CascadeBatchSize,
		logger,
	)
	favoriteHandler := favorite.NewHandler(favoriteSvc)

	listingSvc := listing.NewService(
		listingRepo,
		tierResolver,
		policy,
		favoriteSvc,
		browseCache,
		logger,
	)
	listingHandler := listing.NewHandler(listingSvc)

	executor := lifecycle.NewExecutor(
		listingRepo,
		favoriteSvc,
		browseCache,
		policy,
		logger,
	)
	sweeper := lifecycle.NewSweeper(
		listingRepo,
		tierResolver,
		executor,
		policy,
		cfg.Lifecycle,
		logger,
	)
	lifecycleHandler := lifecycle.NewHandler(sweeper)

	healthHandler := health.NewHandler(db, redis)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
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

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	authenticator := middleware.Authenticator(jwtManager)
	optionalAuth := middleware.OptionalAuth(jwtManager)
	adminOnly := middleware.RequireAdmin
	cronAuth := middleware.CronAuth(cfg.Cron.Secret)
	webhookAuth := middleware.WebhookAuth(cfg.Webhook.BillingSecret)

	// Scheduler and vendor callbacks live outside the versioned API.
	lifecycleHandler.RegisterCronRoutes(router, cronAuth)
	subHandler.RegisterWebhookRoutes(router, webhookAuth)

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator)

		r.Post("/users", authHandler.Register)

		userHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		listingHandler.RegisterRoutes(r, authenticator, optionalAuth)
		favoriteHandler.RegisterRoutes(r, authenticator)
		subHandler.RegisterRoutes(r, authenticator)

		subHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		lifecycleHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
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
