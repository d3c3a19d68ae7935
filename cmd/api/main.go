package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	httptransport "github.com/societyresolver/complaint-service/internal/api/http"
	"github.com/societyresolver/complaint-service/internal/api/http/handlers"
	"github.com/societyresolver/complaint-service/internal/auth"
	"github.com/societyresolver/complaint-service/internal/config"
	"github.com/societyresolver/complaint-service/internal/events"
	"github.com/societyresolver/complaint-service/internal/identity"
	"github.com/societyresolver/complaint-service/internal/idgen"
	"github.com/societyresolver/complaint-service/internal/lock"
	"github.com/societyresolver/complaint-service/internal/observability"
	"github.com/societyresolver/complaint-service/internal/persistence"
	"github.com/societyresolver/complaint-service/internal/service"
)

const shutdownTimeout = 10 * time.Second

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	newID, err := idgen.New(cfg.IDs.Strategy, cfg.IDs.SnowflakeNode)
	if err != nil {
		logger.Fatal("invalid id strategy", zap.Error(err))
	}

	var res resources
	store, err := openStore(ctx, cfg, newID, logger, &res)
	if err != nil {
		logger.Fatal("failed to open document store", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}

	health := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version).WithDependency("store", store)

	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.Store.UseDistributedLock {
		rdb := persistence.NewRedis(ctx, cfg.Redis, logger)
		res.add("redis", func(context.Context) error { return rdb.Close() })
		locker = lock.NewRedisLocker(rdb.Client, cfg.Store.LockTTL(), cfg.Store.LockWait(), logger)
		health.WithDependency("redis", rdb)
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	service.NewNotificationService(dispatcher, logger, cfg.Notification).RegisterHandlers()

	tokens := identity.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTokenTTLMinutes)
	provider := identity.NewLocalProvider(store, tokens, identity.Options{
		BcryptCost:        cfg.Auth.BcryptCost,
		MinPasswordLength: cfg.Auth.MinPasswordLength,
	}, logger)

	coordinator := service.NewCoordinator(service.CoordinatorDependencies{
		Store:      store,
		Identity:   provider,
		Locker:     locker,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	authService := service.NewAuthService(service.AuthDependencies{Identity: provider, Coordinator: coordinator})

	if cfg.Auth.AdminEmail != "" && cfg.Auth.AdminPassword != "" {
		admin, err := coordinator.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword)
		if err != nil {
			logger.Fatal("bootstrap admin", zap.Error(err))
		}
		logger.Info("bootstrap admin ready", zap.String("uid", admin.ID))
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:         logger,
		Metrics:        metrics,
		Timeout:        cfg.App.RequestTimeout(),
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	})
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         health,
		Users:          handlers.NewUsersHandler(coordinator, authService),
		Complaints:     handlers.NewComplaintsHandler(coordinator),
		Workers:        handlers.NewWorkersHandler(coordinator),
		AuthMiddleware: auth.NewAuthMiddleware(authService),
		Metrics:        metrics,
		PublicDir:      cfg.HTTP.PublicDir,
	})

	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.App.Addr()),
			zap.String("env", cfg.App.Env),
			zap.String("store", cfg.Store.Backend),
			zap.Bool("distributed_lock", cfg.Store.UseDistributedLock))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	err = multierr.Append(app.ShutdownWithTimeout(shutdownTimeout), res.close(shutdownCtx))
	if err != nil {
		logger.Error("shutdown incomplete", zap.Errors("errors", multierr.Errors(err)))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
