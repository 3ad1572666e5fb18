package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/dcr-inbox/internal/api/http"
	"github.com/spec-kit/dcr-inbox/internal/api/http/handlers"
	"github.com/spec-kit/dcr-inbox/internal/auth"
	"github.com/spec-kit/dcr-inbox/internal/backend"
	"github.com/spec-kit/dcr-inbox/internal/config"
	"github.com/spec-kit/dcr-inbox/internal/events"
	"github.com/spec-kit/dcr-inbox/internal/identity"
	"github.com/spec-kit/dcr-inbox/internal/inbox"
	"github.com/spec-kit/dcr-inbox/internal/observability"
	"github.com/spec-kit/dcr-inbox/internal/persistence"
	"github.com/spec-kit/dcr-inbox/internal/repository"
	"github.com/spec-kit/dcr-inbox/internal/service"
	"github.com/spec-kit/dcr-inbox/internal/worker"
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

	var eventRepo repository.InboxEventRepository
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		eventRepo = repository.NewInboxEventRepository(pg.Pool)
	}

	redis, err := persistence.NewRedis(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	auditService := service.NewAuditService(dispatcher, eventRepo, logger, cfg.Audit)
	worker.StartAuditWorker(auditService)

	dms := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, logger)
	resolver := identity.NewResolver(dms, logger)
	aggregator := inbox.NewAggregator(inbox.AggregatorDependencies{
		Querier:    dms,
		RecordType: cfg.Backend.RecordType,
		Inbox:      cfg.Inbox,
		Logger:     logger,
	})

	inboxService := service.NewInboxService(service.InboxDependencies{
		Fetcher:    aggregator,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
		IdleTTL:    cfg.Inbox.ViewIdleTTL,
	})
	janitorDone := worker.StartViewJanitor(ctx, inboxService, cfg.Inbox.ViewIdleTTL/2, logger)

	sessions := repository.NewSessionRepository(redis.Client, cfg.Redis.KeyPrefix)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	sealer := auth.NewSealer(cfg.Auth.SessionSecret)

	sessionService := service.NewSessionService(service.SessionDependencies{
		Resolver:   resolver,
		Sessions:   sessions,
		Tokens:     tokens,
		Sealer:     sealer,
		Views:      inboxService,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	changeRequestService := service.NewChangeRequestService(service.ChangeRequestDependencies{
		Backend:    dms,
		Config:     cfg.Backend,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	healthDeps := handlers.HealthDependencies{Redis: redis, Metrics: metrics}
	if pg.Enabled() {
		healthDeps.Postgres = pg
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, Immutable: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, healthDeps),
		Auth:           handlers.NewAuthHandler(sessionService),
		Inbox:          handlers.NewInboxHandler(inboxService, auditService),
		ChangeRequests: handlers.NewChangeRequestsHandler(changeRequestService),
		Visibility:     handlers.NewVisibilityHandler(),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, sessions, sealer),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	<-janitorDone
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
