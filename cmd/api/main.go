package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/randya04/POSitive/internal/api/http"
	"github.com/randya04/POSitive/internal/api/http/handlers"
	"github.com/randya04/POSitive/internal/auth"
	"github.com/randya04/POSitive/internal/config"
	"github.com/randya04/POSitive/internal/events"
	"github.com/randya04/POSitive/internal/identity"
	"github.com/randya04/POSitive/internal/observability"
	"github.com/randya04/POSitive/internal/persistence"
	"github.com/randya04/POSitive/internal/repository"
	"github.com/randya04/POSitive/internal/service"
	"github.com/randya04/POSitive/internal/worker"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	profileRepo := repository.NewProfileRepository(pool)
	catalogRepo := repository.NewCatalogRepository(pool)

	var provider identity.Provider
	if cfg.Identity.BaseURL != "" {
		provider = identity.NewHTTPProvider(cfg.Identity, logger)
	} else {
		logger.Warn("IDENTITY_BASE_URL not provided; using in-memory identity provider")
		provider = identity.NewLocalProvider(logger)
	}

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	directoryService := service.NewDirectoryService(service.DirectoryDependencies{
		ProfileRepo: profileRepo,
		CatalogRepo: catalogRepo,
		Provider:    provider,
		Limiter:     service.NewInviteLimiter(redis.ClientHandle(), cfg.Invite),
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	var verifier *identity.TokenVerifier
	if cfg.Identity.JWTSecret != "" {
		verifier = identity.NewTokenVerifier(cfg.Identity.JWTSecret)
	} else {
		logger.Warn("IDENTITY_JWT_SECRET not provided; admin API gate disabled")
	}
	gate := auth.NewGate(verifier, profileRepo)

	metrics := observability.NewMetrics()
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:   handlers.NewUsersHandler(directoryService),
		Catalog: handlers.NewCatalogHandler(directoryService),
		Gate:    gate,
	})

	go func() {
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
