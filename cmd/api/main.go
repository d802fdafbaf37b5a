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

	httptransport "github.com/slidexpress/workflow-service/internal/api/http"
	"github.com/slidexpress/workflow-service/internal/api/http/handlers"
	"github.com/slidexpress/workflow-service/internal/auth"
	"github.com/slidexpress/workflow-service/internal/config"
	"github.com/slidexpress/workflow-service/internal/events"
	"github.com/slidexpress/workflow-service/internal/mailbox"
	"github.com/slidexpress/workflow-service/internal/observability"
	"github.com/slidexpress/workflow-service/internal/persistence"
	"github.com/slidexpress/workflow-service/internal/repository"
	"github.com/slidexpress/workflow-service/internal/service"
	"github.com/slidexpress/workflow-service/internal/worker"
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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	emailRepo := repository.NewEmailRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	memberRepo := repository.NewTeamMemberRepository(pool)

	subscribers := events.NewInMemoryDispatcher(logger)
	dispatcher := worker.StartNotificationWorker(ctx, subscribers,
		service.NewNotificationService(subscribers, logger, cfg.Notification),
		cfg.Notification.QueueSize, logger)

	var feed service.StarredMailFeed
	if cfg.Mailbox.Configured() {
		feed = mailbox.NewStarredFeed(cfg.Mailbox, logger)
	} else {
		logger.Warn("EMAIL_USER/EMAIL_PASSWORD not set; mailbox sync disabled")
	}

	teamService := service.NewTeamService(service.TeamDependencies{
		MemberRepo: memberRepo,
		TicketRepo: ticketRepo,
		Cache:      redis.TeamIndexCache(cfg.Redis.TeamIndexTTL()),
		Logger:     logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		EmailRepo:   emailRepo,
		HistoryRepo: historyRepo,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo:  ticketRepo,
		Team:        teamService,
		HistoryRepo: historyRepo,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	emailService := service.NewEmailService(service.EmailDependencies{
		EmailRepo:  emailRepo,
		Feed:       feed,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	var syncDone <-chan struct{}
	if feed != nil {
		syncDone = worker.StartMailboxSyncWorker(ctx, emailService, cfg.Mailbox.SyncWorkspaceID, cfg.Mailbox.SyncInterval(), logger)
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, 0).WithIssuer(cfg.Auth.JWTIssuer)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.App.RequestTimeout(),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Tickets:        handlers.NewTicketsHandler(ticketService, assignmentService, emailService),
		Emails:         handlers.NewEmailsHandler(emailService),
		TeamMembers:    handlers.NewTeamMembersHandler(teamService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdown(logger, func() error { return app.ShutdownWithTimeout(10 * time.Second) }, cancel, syncDone, dispatcher.Done())
}

// shutdown stops accepting requests before cancelling the background workers,
// so in-flight handlers can still publish events, then waits for the workers.
func shutdown(logger *zap.Logger, stopHTTP func() error, cancel context.CancelFunc, workers ...<-chan struct{}) {
	if err := stopHTTP(); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	cancel()
	for _, done := range workers {
		if done != nil {
			<-done
		}
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
