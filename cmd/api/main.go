package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/vendor-finance/internal/api/http"
	"github.com/spec-kit/vendor-finance/internal/api/http/handlers"
	"github.com/spec-kit/vendor-finance/internal/auth"
	"github.com/spec-kit/vendor-finance/internal/config"
	"github.com/spec-kit/vendor-finance/internal/events"
	"github.com/spec-kit/vendor-finance/internal/observability"
	"github.com/spec-kit/vendor-finance/internal/persistence"
	"github.com/spec-kit/vendor-finance/internal/repository"
	"github.com/spec-kit/vendor-finance/internal/service"
	"github.com/spec-kit/vendor-finance/internal/worker"
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

	metrics := observability.NewMetrics()

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
	vendorRepo := repository.NewVendorRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)
	workflowRepo := repository.NewWorkflowRepository(pool)
	assignmentRepo := repository.NewAssignmentRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)

	dispatcher := events.NewInMemoryDispatcher(logger)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		VendorRepo:        vendorRepo,
		StaffRepo:         staffRepo,
		PasswordResetRepo: resetRepo,
	})
	staffService := service.NewStaffService(*cfg, staffRepo)
	workflowService := service.NewWorkflowService(service.WorkflowDependencies{
		WorkflowRepo: workflowRepo,
		VendorRepo:   vendorRepo,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		WorkflowRepo:   workflowRepo,
		AssignmentRepo: assignmentRepo,
		StaffRepo:      staffRepo,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	auditService := service.NewAuditService(auditRepo)
	notificationService := service.NewNotificationService(dispatcher, redis.Client, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), vendorRepo, staffRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Vendors:        handlers.NewVendorsHandler(authService),
		Staff:          handlers.NewStaffHandler(authService, staffService),
		Workflow:       handlers.NewWorkflowHandler(workflowService),
		Assignments:    handlers.NewAssignmentsHandler(assignmentService),
		Audit:          handlers.NewAuditHandler(auditService),
		AuthMiddleware: authMiddleware,
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
