package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/portal-metrics-api/internal/config"
	"github.com/noah-isme/portal-metrics-api/internal/database"
	"github.com/noah-isme/portal-metrics-api/internal/handler"
	"github.com/noah-isme/portal-metrics-api/internal/middleware"
	"github.com/noah-isme/portal-metrics-api/internal/router"
	"github.com/noah-isme/portal-metrics-api/internal/service"
	"github.com/noah-isme/portal-metrics-api/internal/store"
	"github.com/noah-isme/portal-metrics-api/internal/utils"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	}

	backing, err := openStore(cfg, redisClient)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("failed to open store")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("alert publishing and streaming disabled")
		} else {
			defer natsConn.Drain()
		}
	}

	portal := store.NewRepository(backing, logger)
	if cfg.SeedOnStart {
		if _, err := portal.SeedDefaults(context.Background()); err != nil {
			logger.Fatal().Err(err).Msg("failed to seed store")
		}
	}

	validate := utils.NewValidator()
	cache := service.NewDashboardCache(redisClient, cfg.DashboardCacheTTL, logger)
	publisher := service.NewAlertPublisher(natsConn, cfg.RealtimeChannel, logger)
	subscriber := service.NewAlertSubscriber(natsConn, cfg.RealtimeChannel, logger)

	studentService := service.NewStudentDashboardService(portal, cache, publisher, cfg.RecentResultLimit, logger)
	teacherService := service.NewTeacherDashboardService(portal, cache, publisher, validate, logger)
	adminService := service.NewAdminDashboardService(portal, cache, publisher, validate, service.AdminDashboardConfig{EmailDomain: cfg.EmailDomain}, logger)
	seedService := service.NewSeedService(portal, cache, cfg.SeedEnabled, cfg.SeedToken, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		StudentDashboardHandler: handler.NewStudentDashboardHandler(studentService, logger),
		AlertStreamHandler:      handler.NewAlertStreamHandler(studentService, subscriber, cfg.RealtimeKeepAlive, logger),
		TeacherDashboardHandler: handler.NewTeacherDashboardHandler(teacherService, middleware.RateLimit("marking", cfg.MarksRateLimit, cfg.MarksRateWindow), logger),
		AdminDashboardHandler:   handler.NewAdminDashboardHandler(adminService, logger),
		SeedHandler:             handler.NewSeedHandler(seedService, logger),
		JWTMiddleware:           middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func openStore(cfg config.Config, redisClient *redis.Client) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendMemory:
		return store.NewMemoryStore(), nil
	case config.StoreBackendPostgres:
		db, err := database.ConnectPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return migrated(store.NewGormStore(db))
	case config.StoreBackendSQLite:
		db, err := database.ConnectSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return migrated(store.NewGormStore(db))
	case config.StoreBackendRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("redis store requires PORTAL_REDIS_URL")
		}
		return store.NewRedisStore(redisClient, cfg.RedisStorePrefix), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func migrated(s *store.GormStore) (store.Store, error) {
	if err := s.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}
	return s, nil
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
