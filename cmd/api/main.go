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

	httptransport "github.com/spec-kit/ppa-crm/internal/api/http"
	"github.com/spec-kit/ppa-crm/internal/api/http/handlers"
	"github.com/spec-kit/ppa-crm/internal/auth"
	"github.com/spec-kit/ppa-crm/internal/config"
	"github.com/spec-kit/ppa-crm/internal/crmsync"
	"github.com/spec-kit/ppa-crm/internal/events"
	"github.com/spec-kit/ppa-crm/internal/mail"
	"github.com/spec-kit/ppa-crm/internal/observability"
	"github.com/spec-kit/ppa-crm/internal/persistence"
	"github.com/spec-kit/ppa-crm/internal/ratelimit"
	"github.com/spec-kit/ppa-crm/internal/repository"
	"github.com/spec-kit/ppa-crm/internal/service"
	"github.com/spec-kit/ppa-crm/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, cfg.App.Name, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	buyerRepo := repository.NewBuyerRepository(pool)
	employeeRepo := repository.NewEmployeeRepository(pool)
	leadRepo := repository.NewLeadRepository(pool)
	taskRepo := repository.NewTaskRepository(pool)
	activityRepo := repository.NewActivityRepository(pool)
	documentRepo := repository.NewDocumentRepository(pool)
	sellerRepo := repository.NewSellerRepository(pool)
	matchRepo := repository.NewMatchRepository(pool)
	termsRepo := repository.NewTermsRepository(pool)
	txManager := repository.NewTransactionManager(pool)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, auth.TokenTTLs{
		Buyer:    time.Duration(cfg.Auth.BuyerTokenTTLHours) * time.Hour,
		Employee: time.Duration(cfg.Auth.EmployeeTTLHours) * time.Hour,
		Admin:    time.Duration(cfg.Auth.AdminTTLHours) * time.Hour,
	})
	resolver := auth.NewResolver(tokens, employeeRepo, cfg.Admin)
	authMiddleware := auth.NewMiddleware(resolver, cfg.Auth)
	limiter := ratelimit.NewRedis(redis.Client, cfg.RateLimit.LoginWindow(), logger)

	dispatcher := events.NewInMemoryDispatcher(logger)
	notifier := worker.NewNotificationWorker(worker.Options{}, logger)

	var sender mail.Sender = mail.NopSender{}
	if cfg.SMTP.Enabled() {
		sender = mail.NewSMTPSender(cfg.SMTP)
	} else {
		logger.Warn("SMTP not configured; notifications are disabled")
	}

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		BuyerRepo:    buyerRepo,
		EmployeeRepo: employeeRepo,
		Tokens:       tokens,
		Limiter:      limiter,
		Logger:       logger,
	})
	employeeService := service.NewEmployeeService(*cfg, service.EmployeeDependencies{
		EmployeeRepo: employeeRepo,
		Logger:       logger,
	})
	leadService := service.NewLeadService(service.LeadDependencies{
		LeadRepo:     leadRepo,
		ActivityRepo: activityRepo,
		EmployeeRepo: employeeRepo,
		TxManager:    txManager,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	taskService := service.NewTaskService(service.TaskDependencies{
		TaskRepo:     taskRepo,
		LeadRepo:     leadRepo,
		EmployeeRepo: employeeRepo,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	activityService := service.NewActivityService(service.ActivityDependencies{
		ActivityRepo: activityRepo,
		LeadRepo:     leadRepo,
		EmployeeRepo: employeeRepo,
		TxManager:    txManager,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	documentService := service.NewDocumentService(cfg.Uploads, service.DocumentDependencies{
		DocumentRepo: documentRepo,
		LeadRepo:     leadRepo,
		Logger:       logger,
	})
	marketplaceService := service.NewMarketplaceService(service.MarketplaceDependencies{
		MatchRepo:  matchRepo,
		TermsRepo:  termsRepo,
		TxManager:  txManager,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	adminService := service.NewAdminService(service.AdminDependencies{
		BuyerRepo:  buyerRepo,
		SellerRepo: sellerRepo,
		MatchRepo:  matchRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	publicService := service.NewPublicService(service.PublicDependencies{
		LeadRepo:   leadRepo,
		SellerRepo: sellerRepo,
		Pusher:     crmsync.NewZohoClient(cfg.Zoho, logger),
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher:   notifier.Dispatcher(dispatcher),
		Sender:       sender,
		AdminEmail:   cfg.SMTP.AdminEmail,
		LeadRepo:     leadRepo,
		EmployeeRepo: employeeRepo,
		ActivityRepo: activityRepo,
		Logger:       logger,
	})
	notificationService.RegisterHandlers()
	notifier.Start()

	bodyLimit := 4 * 1024 * 1024
	if limit := int(cfg.Uploads.MaxSizeBytes) + 1024*1024; limit > bodyLimit {
		bodyLimit = limit
	}
	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: bodyLimit,
	})
	metrics := observability.NewMetrics()
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareConfig{
		Timeout:      cfg.App.RequestTimeout(),
		AllowOrigins: cfg.App.FrontendURL,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Auth:           handlers.NewAuthHandler(authService, cfg.Auth),
		Employees:      handlers.NewEmployeesHandler(employeeService),
		Leads:          handlers.NewLeadsHandler(leadService),
		Tasks:          handlers.NewTasksHandler(taskService),
		Activities:     handlers.NewActivitiesHandler(activityService),
		Documents:      handlers.NewDocumentsHandler(documentService),
		Buyer:          handlers.NewBuyerHandler(marketplaceService),
		Admin:          handlers.NewAdminHandler(adminService),
		Public:         handlers.NewPublicHandler(publicService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	drainCtx, drainCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer drainCancel()
	if err := notifier.Shutdown(drainCtx); err != nil {
		logger.Warn("notifications not drained", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
