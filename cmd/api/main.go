package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/devdesk/helpdesk/internal/api/http"
	"github.com/devdesk/helpdesk/internal/api/http/handlers"
	"github.com/devdesk/helpdesk/internal/auth"
	"github.com/devdesk/helpdesk/internal/config"
	"github.com/devdesk/helpdesk/internal/events"
	"github.com/devdesk/helpdesk/internal/notify"
	"github.com/devdesk/helpdesk/internal/observability"
	"github.com/devdesk/helpdesk/internal/persistence"
	"github.com/devdesk/helpdesk/internal/repository"
	"github.com/devdesk/helpdesk/internal/service"
	"github.com/devdesk/helpdesk/internal/worker"
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
	orgRepo := repository.NewOrganizationRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	activityRepo := repository.NewActivityLogRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)

	metrics := observability.NewMetrics()
	sender := notify.NewWebhookSender(cfg.Notification, logger)

	dispatcher := events.NewAsyncDispatcher(cfg.Notification.Workers, cfg.Notification.QueueSize, logger)
	defer dispatcher.Close()

	activityService := service.NewActivityService(dispatcher, activityRepo, logger)
	activityService.RegisterHandlers()
	notificationService := service.NewNotificationService(dispatcher, sender, logger, cfg.Notification)
	notificationService.RegisterHandlers()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:          userRepo,
		OrgRepo:           orgRepo,
		PasswordResetRepo: resetRepo,
		Sender:            sender,
		Logger:            logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		UserRepo:       userRepo,
		OrgRepo:        orgRepo,
		CommentRepo:    commentRepo,
		AttachmentRepo: attachmentRepo,
		ActivityRepo:   activityRepo,
		Dispatcher:     dispatcher,
	})
	slaService := service.NewSLAService(service.SLADependencies{
		TicketRepo:   ticketRepo,
		UserRepo:     userRepo,
		ActivityRepo: activityRepo,
		Sender:       sender,
		Logger:       logger,
	})
	userService := service.NewUserService(service.UserDependencies{
		UserRepo:   userRepo,
		OrgRepo:    orgRepo,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	orgService := service.NewOrganizationService(service.OrganizationDependencies{
		OrgRepo: orgRepo,
	})
	dashboardService := service.NewDashboardService(service.DashboardDependencies{
		TicketRepo:        ticketRepo,
		UserRepo:          userRepo,
		AtRiskWindowHours: cfg.SLA.AtRiskWindowHours,
	})

	if err := authService.SeedSuperAdmin(ctx, cfg.Seed); err != nil {
		logger.Fatal("failed to seed super admin", zap.Error(err))
	}

	var sweeper *worker.Sweeper
	if cfg.SLA.SchedulerEnabled() {
		sweeper = worker.NewSweeper(slaService, cfg.SLA.SweepInterval(), logger, metrics)
		sweeper.Start()
	} else {
		logger.Warn("sla sweeper disabled, interval below floor",
			zap.Duration("interval", cfg.SLA.SweepInterval()),
			zap.Duration("floor", config.MinSweepInterval),
		)
	}

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)
	rateLimiter := auth.NewRateLimiter(redis, cfg.RateLimit, logger)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService, userService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Organizations:  handlers.NewOrganizationsHandler(orgService),
		Dashboard:      handlers.NewDashboardHandler(dashboardService, slaService),
		AuthMiddleware: authMiddleware,
		RateLimiter:    rateLimiter,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	if sweeper != nil {
		sweeper.Stop()
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
