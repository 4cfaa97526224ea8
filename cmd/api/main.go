package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/buyforme-service/internal/api/http"
	"github.com/spec-kit/buyforme-service/internal/api/http/handlers"
	"github.com/spec-kit/buyforme-service/internal/auth"
	"github.com/spec-kit/buyforme-service/internal/config"
	"github.com/spec-kit/buyforme-service/internal/domain"
	"github.com/spec-kit/buyforme-service/internal/events"
	"github.com/spec-kit/buyforme-service/internal/observability"
	"github.com/spec-kit/buyforme-service/internal/persistence"
	"github.com/spec-kit/buyforme-service/internal/repository"
	"github.com/spec-kit/buyforme-service/internal/service"
	"github.com/spec-kit/buyforme-service/internal/worker"
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

	if cfg.Postgres.RunMigrations && pg.Enabled() {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	var (
		userRepo    repository.UserRepository
		staffRepo   repository.StaffRepository
		requestRepo repository.RequestRepository
	)
	if pg.Enabled() {
		pool := pg.PoolHandle()
		userRepo = repository.NewUserRepository(pool)
		staffRepo = repository.NewStaffRepository(pool)
		requestRepo = repository.NewRequestRepository(pool)
	} else {
		logger.Warn("using in-memory stores; data is lost on restart")
		userRepo = repository.NewMemoryUserRepository()
		staffRepo = repository.NewMemoryStaffRepository()
		requestRepo = repository.NewMemoryRequestRepository()
	}

	var redis *persistence.Redis
	var sinks []events.Sink
	if cfg.Notification.RedisEnabled {
		redis = persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()
		sinks = append(sinks, events.NewRedisSink(redis, cfg.Notification.RedisChannel))
	}
	if len(cfg.Kafka.Brokers) > 0 {
		sinks = append(sinks, events.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.WriteTimeout()))
		logger.Info("kafka event sink enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger, sinks...)
	notificationWorker := worker.StartNotificationWorker(ctx, notificationService, cfg.Notification.BufferSize, logger)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:  userRepo,
		StaffRepo: staffRepo,
	})
	if cfg.Auth.BootstrapStaffEmail != "" {
		staff, err := authService.EnsureStaff(ctx,
			cfg.Auth.BootstrapStaffName,
			cfg.Auth.BootstrapStaffEmail,
			cfg.Auth.BootstrapStaffPassword,
			[]domain.Permission{domain.PermissionOrderManagement, domain.PermissionFinancialAccess},
		)
		if err != nil {
			logger.Fatal("failed to bootstrap staff", zap.Error(err))
		}
		logger.Info("bootstrap staff ready", zap.String("staff_id", staff.ID), zap.String("email", staff.Email))
	}
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, staffRepo)

	buyForMeService := service.NewBuyForMeService(service.BuyForMeDependencies{
		RequestRepo: requestRepo,
		Customers:   userRepo,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Users:          handlers.NewUsersHandler(authService),
		Staff:          handlers.NewStaffHandler(authService),
		Requests:       handlers.NewRequestsHandler(buyForMeService),
		StaffRequests:  handlers.NewStaffRequestsHandler(buyForMeService),
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
	notificationWorker.Stop()
	if err := notificationService.Close(); err != nil {
		logger.Warn("closing event sinks", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
