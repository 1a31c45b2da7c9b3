package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/siddhartha296/vechicle-service-portal/internal/api/http"
	"github.com/siddhartha296/vechicle-service-portal/internal/api/http/handlers"
	"github.com/siddhartha296/vechicle-service-portal/internal/config"
	"github.com/siddhartha296/vechicle-service-portal/internal/events"
	"github.com/siddhartha296/vechicle-service-portal/internal/identity"
	"github.com/siddhartha296/vechicle-service-portal/internal/observability"
	"github.com/siddhartha296/vechicle-service-portal/internal/persistence"
	"github.com/siddhartha296/vechicle-service-portal/internal/realtime"
	"github.com/siddhartha296/vechicle-service-portal/internal/repository"
	"github.com/siddhartha296/vechicle-service-portal/internal/service"
	"github.com/siddhartha296/vechicle-service-portal/internal/viewsync"
	"github.com/siddhartha296/vechicle-service-portal/internal/worker"
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
	userRepo := repository.NewUserRepository(pool)
	complaintRepo := repository.NewComplaintRepository(pool)
	historyRepo := repository.NewComplaintEventRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	notifier := realtime.NewRedisNotifier(redis.Client, cfg.Redis.ChangeChannel, logger)
	worker.StartRealtimeBridge(dispatcher, notifier, logger)

	complaintService := service.NewComplaintService(service.ComplaintDependencies{
		ComplaintRepo: complaintRepo,
		HistoryRepo:   historyRepo,
		Dispatcher:    dispatcher,
		Cache:         redis.Client,
		CacheTTL:      cfg.Redis.CacheTTL(),
		Logger:        logger,
	})

	views := viewsync.NewRegistry(ctx, complaintService.ListForScope, notifier, metrics, logger)

	tokens := identity.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	identityService := identity.NewService(userRepo, tokens, cfg.Auth.BcryptCost)
	identityService.OnSessionChange(func(event identity.SessionEvent) {
		if event.Type == identity.SessionEnded {
			views.DeactivateUser(event.Session.UserID)
		}
	})
	authMiddleware := identity.NewMiddleware(identityService)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:          handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:            handlers.NewAuthHandler(identityService),
		Complaints:      handlers.NewComplaintsHandler(complaintService, views),
		StaffComplaints: handlers.NewStaffComplaintsHandler(complaintService, views),
		AuthMiddleware:  authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	views.Shutdown()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
