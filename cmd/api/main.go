package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/message-router/internal/api/http"
	"github.com/spec-kit/message-router/internal/api/http/handlers"
	"github.com/spec-kit/message-router/internal/config"
	"github.com/spec-kit/message-router/internal/events"
	"github.com/spec-kit/message-router/internal/observability"
	"github.com/spec-kit/message-router/internal/persistence"
	"github.com/spec-kit/message-router/internal/repository"
	"github.com/spec-kit/message-router/internal/service"
	"github.com/spec-kit/message-router/internal/worker"
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
	keywordRepo := repository.NewKeywordRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)
	customerRepo := repository.NewCustomerRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	assignmentRepo := repository.NewAssignmentRepository(pool)
	workloadRepo := repository.NewWorkloadRepository(pool)
	shiftRepo := repository.NewShiftRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	scorer := service.NewStaffScorer(workloadRepo, shiftRepo)
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		MessageRepo:    messageRepo,
		KeywordRepo:    keywordRepo,
		DepartmentRepo: departmentRepo,
		StaffRepo:      staffRepo,
		AssignmentRepo: assignmentRepo,
		Scorer:         scorer,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         logger,
	})
	intakeService := service.NewIntakeService(service.IntakeDependencies{
		CustomerRepo: customerRepo,
		MessageRepo:  messageRepo,
		Assigner:     assignmentService,
		Redis:        redis.ClientHandle(),
		DedupTTL:     cfg.Routing.DedupTTL(),
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	notificationService := service.NewNotificationService(notificationRepo, dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	requeue := worker.NewRequeueWorker(messageRepo, assignmentService, cfg.Routing, logger)
	if err := requeue.Start(); err != nil {
		logger.Fatal("failed to start requeue worker", zap.Error(err))
	}

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Webhook:     handlers.NewWebhookHandler(intakeService),
		Messages:    handlers.NewMessagesHandler(messageRepo, staffRepo, assignmentService),
		Assignments: handlers.NewAssignmentsHandler(assignmentService),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	requeue.Stop()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
