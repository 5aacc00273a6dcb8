package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk/internal/api/http"
	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/notify"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/worker"
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
	companyRepo := repository.NewCompanyRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	timeEntryRepo := repository.NewTimeEntryRepository(pool)
	escalationRepo := repository.NewEscalationRepository(pool)
	reopenRepo := repository.NewReopenRequestRepository(pool)
	watcherRepo := repository.NewWatcherRepository(pool)
	activityRepo := repository.NewActivityRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	var sink notify.Sink
	outbox := notify.NewRedisOutbox(redis.Client)
	useOutbox := redis.Ping(ctx) == nil
	if useOutbox {
		sink = outbox
	} else {
		logger.Warn("redis unavailable, notifications fall back to log sink")
		sink = notify.NewLogSink(logger)
	}

	authService := service.NewAuthService(cfg.Auth, userRepo)
	subscriptionService := service.NewSubscriptionService(companyRepo, logger)
	companyService := service.NewCompanyService(companyRepo)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		TimeEntryRepo:  timeEntryRepo,
		EscalationRepo: escalationRepo,
		ReopenRepo:     reopenRepo,
		WatcherRepo:    watcherRepo,
		ActivityRepo:   activityRepo,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         logger,
		SLA:            cfg.SLA,
	})
	commentService := service.NewCommentService(service.CommentDependencies{
		TicketRepo:     ticketRepo,
		CommentRepo:    commentRepo,
		AttachmentRepo: attachmentRepo,
		ActivityRepo:   activityRepo,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	timeTrackingService := service.NewTimeTrackingService(service.TimeTrackingDependencies{
		TicketRepo:    ticketRepo,
		TimeEntryRepo: timeEntryRepo,
		ActivityRepo:  activityRepo,
		Subscription:  subscriptionService,
		Logger:        logger,
	})
	reopenService := service.NewReopenService(service.ReopenDependencies{
		TicketRepo:   ticketRepo,
		ReopenRepo:   reopenRepo,
		ActivityRepo: activityRepo,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})

	notificationService := service.NewNotificationService(dispatcher, sink, logger)
	notificationService.RegisterHandlers()

	if useOutbox {
		notificationWorker := worker.NewNotificationWorker(outbox, notificationRepo, logger)
		go notificationWorker.Run(ctx)
	}

	slaWorker := worker.NewSLAWorker(ticketRepo, sink, metrics, logger, cfg.SLA)
	if err := slaWorker.Start(ctx); err != nil {
		logger.Fatal("failed to start sla worker", zap.Error(err))
	}
	defer slaWorker.Stop()

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Comments:       handlers.NewCommentsHandler(commentService),
		TimeTracking:   handlers.NewTimeTrackingHandler(timeTrackingService),
		Reopen:         handlers.NewReopenHandler(reopenService),
		Companies:      handlers.NewCompaniesHandler(companyService),
		Notifications:  handlers.NewNotificationsHandler(notificationRepo),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
