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

	"github.com/spec-kit/payroll-desk/internal/analysis"
	httptransport "github.com/spec-kit/payroll-desk/internal/api/http"
	"github.com/spec-kit/payroll-desk/internal/api/http/handlers"
	"github.com/spec-kit/payroll-desk/internal/audit"
	"github.com/spec-kit/payroll-desk/internal/auth"
	"github.com/spec-kit/payroll-desk/internal/config"
	"github.com/spec-kit/payroll-desk/internal/events"
	"github.com/spec-kit/payroll-desk/internal/observability"
	"github.com/spec-kit/payroll-desk/internal/persistence"
	"github.com/spec-kit/payroll-desk/internal/repository"
	"github.com/spec-kit/payroll-desk/internal/seed"
	"github.com/spec-kit/payroll-desk/internal/service"
	"github.com/spec-kit/payroll-desk/internal/store"
	"github.com/spec-kit/payroll-desk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Name)
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

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	var mirrors []audit.Mirror
	if pg.Enabled() {
		mirrors = append(mirrors, repository.NewAuditRepository(pg.Pool))
	}
	if redis.Enabled() {
		mirrors = append(mirrors, repository.NewAuditStream(redis.Client, cfg.Redis.AuditKey))
	}
	sinks := make([]audit.Sink, 0, len(mirrors))
	for _, m := range mirrors {
		sinks = append(sinks, m)
	}
	worker.StartNotificationWorker(worker.Dependencies{
		Dispatcher:    dispatcher,
		Notifications: service.NewNotificationService(dispatcher, logger, metrics, cfg.Notification),
		Sinks:         sinks,
		Logger:        logger,
	})

	seedHash, err := auth.HashPassword(cfg.Auth.SeedPassword, cfg.Auth.BcryptCost)
	if err != nil {
		logger.Fatal("failed to hash seed password", zap.Error(err))
	}
	data, err := seed.Default(time.Now(), seedHash)
	if err != nil {
		logger.Fatal("failed to load seed data", zap.Error(err))
	}

	auditLog := audit.NewLog(dispatcher, logger, data.Audit)
	st := store.New(data.Snapshot, auditLog)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	authService := service.NewAuthService(st, tokens, logger)
	ticketService := service.NewTicketService(service.TicketDependencies{
		Store:      st,
		Analyzer:   analysis.New(cfg.AI, logger),
		AITimeout:  cfg.AI.Timeout(),
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	payrollService := service.NewPayrollService(st, logger, nil)
	adminService := service.NewAdminService(service.AdminDependencies{
		Store:      st,
		Workflow:   data.Workflow,
		BcryptCost: cfg.Auth.BcryptCost,
		Logger:     logger,
	})
	dashboardService := service.NewDashboardService(st, nil).WithMirrors(mirrors...)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Payroll:        handlers.NewPayrollHandler(payrollService),
		Admin:          handlers.NewAdminHandler(adminService),
		Dashboard:      handlers.NewDashboardHandler(dashboardService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, authService),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	ticketService.WaitAnalyses()
	logger.Info("shutdown complete", zap.Int("audit_entries", auditLog.Len()))
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
