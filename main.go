// Package main wires the promo campaign engine: admin API, dispatcher and the new-campaign listener
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirphl/promo-engine/app/handlers"
	"github.com/amirphl/promo-engine/app/logger"
	"github.com/amirphl/promo-engine/app/middleware"
	"github.com/amirphl/promo-engine/app/router"
	"github.com/amirphl/promo-engine/app/scheduler"
	"github.com/amirphl/promo-engine/app/services"
	businessflow "github.com/amirphl/promo-engine/business_flow"
	"github.com/amirphl/promo-engine/config"
	"github.com/amirphl/promo-engine/migrations"
	"github.com/amirphl/promo-engine/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Application represents the main application structure
type Application struct {
	router    router.Router
	config    *config.ProductionConfig
	logger    *zap.Logger
	stopFuncs []func()
}

func main() {
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	app, err := initializeApplication(cfg, zl)
	if err != nil {
		zl.Fatal("failed to initialize application", zap.Error(err))
	}

	app.router.SetupRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		serverErr <- app.router.Start(address)
	}()

	select {
	case sig := <-sigChan:
		zl.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		zl.Error("server stopped unexpectedly", zap.Error(err))
	}

	if err := app.router.Shutdown(cfg.Server.ShutdownTimeout); err != nil {
		zl.Error("error during server shutdown", zap.Error(err))
	}

	// Workers stop in reverse start order: the listener before the dispatcher it feeds
	for i := len(app.stopFuncs) - 1; i >= 0; i-- {
		app.stopFuncs[i]()
	}

	zl.Info("stopped")
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig, zl *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.NewGormLogger(zl, cfg.SlowQueryTime),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.AcquireTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	zl.Info("database connection established",
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns))

	return db, nil
}

// initializeCache initializes the redis client and verifies connectivity
func initializeCache(cfg config.CacheConfig, zl *zap.Logger) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	zl.Info("redis connection established", zap.String("addr", opt.Addr), zap.Int("db", opt.DB))
	return rc, nil
}

// startCacheHealthMonitor periodically pings redis to surface connectivity issues.
// The returned function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration, zl *zap.Logger) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(monitorCtx, 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					zl.Warn("redis healthcheck failed", zap.Error(err))
				}
				c()
			}
		}
	}()
	return cancel
}

func initializeApplication(cfg *config.ProductionConfig, zl *zap.Logger) (*Application, error) {
	var stopFuncs []func()

	db, err := initializeDatabase(cfg.Database, zl)
	if err != nil {
		return nil, err
	}

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 2*time.Minute)
	applied, err := migrations.Apply(migrateCtx, db)
	cancelMigrate()
	if err != nil {
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	zl.Info("schema ready", zap.Strings("applied", applied))

	rc, err := initializeCache(cfg.Cache, zl)
	if err != nil {
		return nil, err
	}
	// A nil *redis.Client must not reach the services as a non-nil interface
	var cache redis.UniversalClient
	if rc != nil {
		cache = rc
		stopFuncs = append(stopFuncs, func() { _ = rc.Close() })
		stopFuncs = append(stopFuncs, startCacheHealthMonitor(context.Background(), rc, 30*time.Second, zl))
	}

	// Repositories
	campaignRepo := repository.NewCampaignRepository(db)
	progressRepo := repository.NewBroadcastProgressRepository(db)
	userRepo := repository.NewUserRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)
	winnerRepo := repository.NewWinnerRepository(db)
	loserRepo := repository.NewRaffleLoserRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	transactor := repository.NewTransactor(db)

	// Services
	settingsService := services.NewSettingsService(settingRepo, cache, cfg.Cache.RedisPrefix, cfg.Cache.SettingsTTL, zl.Named("settings"))

	var locker services.Locker
	if cfg.Scheduler.LockProvider == "redis" && cache != nil {
		locker = services.NewRedisLocker(cache, cfg.Cache.RedisPrefix, cfg.Scheduler.LockTTL)
	} else {
		locker = services.NewPostgresLocker(db)
	}

	var tokenService services.TokenService
	if cfg.Admin.JWTSecret != "" {
		tokenService, err = services.NewTokenService(cfg.Admin.TokenTTL, cfg.Admin.Issuer, cfg.Admin.JWTSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to create token service: %w", err)
		}
	} else {
		zl.Warn("ADMIN_SECRET_KEY is not set; admin login is disabled")
	}

	// Campaign execution
	if cfg.Scheduler.Enabled {
		schedLogger := zl.Named("scheduler")
		deliverer := scheduler.NewDeliverer(scheduler.NewChatTransport(cfg.Transport), cfg.Delivery, schedLogger)

		broadcast := scheduler.NewBroadcastExecutor(campaignRepo, progressRepo, userRepo, transactor, deliverer,
			cfg.Delivery, cfg.Scheduler.PersistTimeout, schedLogger)
		raffle := scheduler.NewRaffleExecutor(campaignRepo, winnerRepo, loserRepo, userRepo, locker, settingsService,
			deliverer, cfg.Delivery, cfg.Scheduler, schedLogger)
		singleMessage := scheduler.NewSingleMessageExecutor(campaignRepo, deliverer, cfg.Scheduler.PersistTimeout, schedLogger)

		dispatcher := scheduler.NewDispatcher(campaignRepo, broadcast, raffle, singleMessage, cfg.Scheduler, schedLogger)
		stopFuncs = append(stopFuncs, dispatcher.Start(context.Background()))

		bridge := scheduler.NewNotificationBridge(cfg.Database.DSN(), dispatcher, cfg.Scheduler, zl.Named("listener"))
		stopFuncs = append(stopFuncs, bridge.Start(context.Background()))
	} else {
		zl.Warn("scheduler disabled; campaigns will queue without being executed")
	}

	// Business flows
	authFlow := businessflow.NewAdminAuthFlow(cfg.Admin, tokenService)
	campaignFlow := businessflow.NewAdminCampaignFlow(campaignRepo, zl)
	userFlow := businessflow.NewAdminUserFlow(userRepo, receiptRepo, campaignRepo, zl)
	reportFlow := businessflow.NewReportFlow(statsRepo, campaignRepo, winnerRepo, cache, cfg.Cache.RedisPrefix, cfg.Cache.StatsTTL, zl)
	settingsFlow := businessflow.NewSettingsFlow(settingsService, zl)

	httpLogger := zl.Named("http")
	h := router.Handlers{
		Auth:      handlers.NewAdminHandler(authFlow, httpLogger),
		Campaigns: handlers.NewCampaignAdminHandler(campaignFlow, httpLogger),
		Users:     handlers.NewUserAdminHandler(userFlow, httpLogger),
		Reports:   handlers.NewReportHandler(reportFlow, httpLogger),
		Settings:  handlers.NewSettingsHandler(settingsFlow, httpLogger),
	}
	r := router.NewFiberRouter(h, middleware.NewAuthMiddleware(tokenService), cfg.Server, cfg.Metrics, cfg.Deployment.Version, httpLogger)

	stopFuncs = append([]func(){func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}}, stopFuncs...)

	return &Application{
		router:    r,
		config:    cfg,
		logger:    zl,
		stopFuncs: stopFuncs,
	}, nil
}
