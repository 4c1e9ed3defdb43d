package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/shiftdesk/staff-scheduler/internal/api/http"
	"github.com/shiftdesk/staff-scheduler/internal/api/http/handlers"
	"github.com/shiftdesk/staff-scheduler/internal/auth"
	"github.com/shiftdesk/staff-scheduler/internal/config"
	"github.com/shiftdesk/staff-scheduler/internal/domain"
	"github.com/shiftdesk/staff-scheduler/internal/events"
	"github.com/shiftdesk/staff-scheduler/internal/notify"
	"github.com/shiftdesk/staff-scheduler/internal/observability"
	"github.com/shiftdesk/staff-scheduler/internal/persistence"
	"github.com/shiftdesk/staff-scheduler/internal/repository"
	"github.com/shiftdesk/staff-scheduler/internal/service"
	"github.com/shiftdesk/staff-scheduler/internal/worker"
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

	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		logger.Fatal("failed to load policy", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	staffRepo := repository.NewStaffRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)
	taskRepo := repository.NewTaskRepository(pool)
	historyRepo := repository.NewTaskHistoryRepository(pool)
	shiftRepo := repository.NewShiftRepository(pool)
	performanceRepo := repository.NewPerformanceRepository(pool)
	warningRepo := repository.NewWarningRepository(pool)
	alertRepo := repository.NewAlertRepository(pool)
	verificationRepo := repository.NewVerificationRepository(pool)
	transactor := repository.NewTransactor(pool)

	dispatcher := events.NewInMemoryDispatcher(logger)
	revocations := auth.NewRedisRevocationStore(redis.Client)

	alertService := service.NewAlertService(service.AlertDependencies{
		AlertRepo: alertRepo,
		StaffRepo: staffRepo,
		Notifier:  buildNotifier(cfg.Notification, logger),
		Logger:    logger,
	})
	notificationService := service.NewNotificationService(dispatcher, alertService, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService, logger)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		StaffRepo:         staffRepo,
		PasswordResetRepo: resetRepo,
		Revocations:       revocations,
		Mailer:            notificationService,
		Logger:            logger,
	})
	staffService := service.NewStaffService(*cfg, service.OrgDependencies{
		DepartmentRepo: departmentRepo,
		StaffRepo:      staffRepo,
		Logger:         logger,
	})
	taskService := service.NewTaskService(service.TaskDependencies{
		TaskRepo:    taskRepo,
		HistoryRepo: historyRepo,
		StaffRepo:   staffRepo,
		ShiftRepo:   shiftRepo,
		Dispatcher:  dispatcher,
		Transactor:  transactor,
	})
	scheduleService := service.NewScheduleService(service.ScheduleDependencies{
		ShiftRepo:  shiftRepo,
		StaffRepo:  staffRepo,
		Dispatcher: dispatcher,
		Policy:     policy.Schedule,
	})
	disciplineService := service.NewDisciplineService(service.DisciplineDependencies{
		WarningRepo: warningRepo,
		StaffRepo:   staffRepo,
		Dispatcher:  dispatcher,
		Policy:      policy.Discipline,
	})
	performanceService := service.NewPerformanceService(service.PerformanceDependencies{
		PerformanceRepo:  performanceRepo,
		TaskRepo:         taskRepo,
		ShiftRepo:        shiftRepo,
		VerificationRepo: verificationRepo,
		StaffRepo:        staffRepo,
		Discipline:       disciplineService,
		Dispatcher:       dispatcher,
		Policy:           policy.Scoring,
		Logger:           logger,
	})
	verificationService := service.NewVerificationService(service.VerificationDependencies{
		VerificationRepo: verificationRepo,
		Tasks:            taskService,
		Dispatcher:       dispatcher,
		Transactor:       transactor,
	})
	dashboardService := service.NewDashboardService(service.DashboardDependencies{
		StaffRepo:        staffRepo,
		TaskRepo:         taskRepo,
		ShiftRepo:        shiftRepo,
		VerificationRepo: verificationRepo,
		AlertRepo:        alertRepo,
		PerformanceRepo:  performanceRepo,
	})

	sweeper := worker.NewSweepWorker(taskService, scheduleService, disciplineService, cfg.Worker.SweepInterval(), logger)
	go sweeper.Run(ctx)

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger),
		BodyLimit:    8 * 1024 * 1024,
	})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:      logger,
		Metrics:     metrics,
		Timeout:     cfg.App.RequestTimeout(),
		CORSOrigins: cfg.App.CORSOrigins,
	})

	var limiter httptransport.Limiter
	if cfg.RateLimit.Enabled {
		limiter = httptransport.NewRedisLimiter(redis.Client, cfg.RateLimit.Requests, cfg.RateLimit.Window())
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}, metrics),
		Auth:           handlers.NewAuthHandler(authService, cfg.App.Env != "production"),
		Staff:          handlers.NewStaffHandler(staffService),
		Tasks:          handlers.NewTaskHandler(taskService),
		Schedule:       handlers.NewScheduleHandler(scheduleService),
		Performance:    handlers.NewPerformanceHandler(performanceService),
		Discipline:     handlers.NewDisciplineHandler(disciplineService),
		Alerts:         handlers.NewAlertHandler(alertService),
		Verification:   handlers.NewVerificationHandler(verificationService),
		Dashboard:      handlers.NewDashboardHandler(dashboardService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), staffRepo, revocations, logger),
		Limiter:        limiter,
		Logger:         logger,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

// buildNotifier always logs alerts and forwards them to the webhook and
// Telegram when those are configured.
func buildNotifier(cfg config.NotificationConfig, logger *zap.Logger) notify.Notifier {
	notifiers := []notify.Notifier{notify.NewLogNotifier(logger)}
	if url := strings.TrimSpace(cfg.WebhookURL); url != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(url))
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		tg, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			logger.Warn("telegram notifier disabled", zap.Error(err))
		} else {
			notifiers = append(notifiers, tg)
		}
	}
	return notify.NewFanout(domain.AlertSeverity(cfg.MinSeverity), notifiers...)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
