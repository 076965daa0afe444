package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/auth-service/internal/api/http"
	"github.com/spec-kit/auth-service/internal/api/http/handlers"
	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/observability"
	"github.com/spec-kit/auth-service/internal/persistence"
	"github.com/spec-kit/auth-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.Auth.SecretKey == config.DevSecret {
		logger.Warn("AUTH_SECRET_KEY not set; using development secret")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	directory, err := persistence.OpenDirectory(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to open user directory", zap.Error(err))
	}
	defer directory.Close()

	redis, err := persistence.NewRedis(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal("failed to configure redis", zap.Error(err))
	}
	defer redis.Close()

	tokens, err := auth.NewTokenManager(cfg.Auth)
	if err != nil {
		logger.Fatal("failed to init token manager", zap.Error(err))
	}

	authService := service.NewAuthService(service.AuthDependencies{
		Users:  directory.Users,
		Hasher: auth.NewHasher(cfg.Auth),
		Tokens: tokens,
		Logger: logger,
	})

	if _, err := authService.EnsureAdmin(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
		logger.Fatal("failed to bootstrap admin", zap.Error(err))
	}

	dependencies := map[string]handlers.Pinger{directory.Driver: directory}
	if redis != nil {
		dependencies["redis"] = redis
	}

	metrics := observability.NewMetrics()
	app := httptransport.NewApp(
		httptransport.MiddlewareConfig{
			Logger:       logger,
			Metrics:      metrics,
			Timeout:      cfg.HTTP.RequestTimeout(),
			AllowOrigins: cfg.HTTP.CORSAllowOrigins,
		},
		httptransport.RouteConfig{
			Health:  handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dependencies),
			Users:   handlers.NewUsersHandler(authService),
			Admin:   handlers.NewAdminHandler(authService),
			Metrics: metrics,
		},
	)

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("directory", directory.Driver))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
