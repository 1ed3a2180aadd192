package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	catalogapp "github.com/b2bstore/backend/internal/application/catalog"
	orderapp "github.com/b2bstore/backend/internal/application/order"
	syncapp "github.com/b2bstore/backend/internal/application/sync"
	"github.com/b2bstore/backend/internal/domain/shared"
	"github.com/b2bstore/backend/internal/infrastructure/auth"
	"github.com/b2bstore/backend/internal/infrastructure/cache"
	"github.com/b2bstore/backend/internal/infrastructure/config"
	"github.com/b2bstore/backend/internal/infrastructure/ledger"
	"github.com/b2bstore/backend/internal/infrastructure/logger"
	"github.com/b2bstore/backend/internal/infrastructure/persistence"
	"github.com/b2bstore/backend/internal/infrastructure/queue"
	"github.com/b2bstore/backend/internal/interfaces/http/handler"
	"github.com/b2bstore/backend/internal/interfaces/http/router"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("starting server",
		zap.String("name", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	gormLevel := gormlogger.Warn
	if cfg.Log.Level == "debug" {
		gormLevel = gormlogger.Info
	}

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, logger.NewGormLogger(log, gormLevel))
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", zap.Error(err))
		}
	}()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		_ = redisClient.Close()
	}()
	idempotency := cache.NewRedisIdempotencyStore(redisClient, "idem")

	ledgerClient, err := ledger.NewClient(&ledger.Config{
		BaseURL:        cfg.Ledger.BaseURL,
		Token:          cfg.Ledger.Token,
		TimeoutSeconds: cfg.Ledger.TimeoutSeconds,
	}, log)
	if err != nil {
		log.Fatal("failed to create ledger client", zap.Error(err))
	}

	// Repositories
	products := persistence.NewGormProductRepository(db.DB)
	brands := persistence.NewGormBrandRepository(db.DB)
	categories := persistence.NewGormCategoryRepository(db.DB)
	prices := persistence.NewGormPriceRepository(db.DB)
	clients := persistence.NewGormClientRepository(db.DB)
	carts := persistence.NewGormCartRepository(db.DB)
	orders := persistence.NewGormOrderRepository(db.DB)
	intents := persistence.NewGormDispatchIntentRepository(db.DB)
	jobs := queue.NewGormJobRepository(db.DB)

	// Application services
	display := catalogapp.NewDisplayService(products, prices, brands, categories,
		clients, decimal.NewFromFloat(cfg.Pricing.MarkupPct))
	cartService := orderapp.NewCartService(carts, products, clients, display)
	checkout := orderapp.NewCheckoutService(db.DB, log)

	// Dispatch pipeline
	backoff, err := queue.ParseBackoff(cfg.Queue.BackoffMode)
	if err != nil {
		log.Fatal("invalid queue backoff mode", zap.Error(err))
	}
	worker := queue.NewWorker(jobs, queue.WorkerConfig{
		BatchSize:           cfg.Queue.BatchSize,
		PollInterval:        cfg.Queue.PollInterval,
		MaintenanceInterval: cfg.Queue.MaintenanceInterval,
		CompletedRetention:  cfg.Queue.CompletedRetention,
		VisibilityTimeout:   cfg.Queue.VisibilityTimeout,
	}, log)
	dispatch := orderapp.NewDispatchHandler(orders, clients, ledgerClient,
		idempotency, shared.IdempotencyConfig{
			Enabled: cfg.Dispatch.IdempotencyEnabled,
			TTL:     cfg.Dispatch.IdempotencyTTL,
		}, log)
	dispatch.Register(worker)
	relay := queue.NewRelay(db.DB, intents, jobs, queue.RelayConfig{
		BatchSize:    cfg.Queue.BatchSize,
		PollInterval: cfg.Queue.RelayPollInterval,
		MaxRetries:   cfg.Dispatch.MaxRetries,
		Backoff:      backoff,
		InitialDelay: cfg.Queue.InitialDelay,
		ExpiryWindow: cfg.Queue.JobExpiration,
	}, log)

	ctx := context.Background()
	if cfg.Queue.WorkerEnabled {
		if err := worker.Start(ctx); err != nil {
			log.Fatal("failed to start dispatch worker", zap.Error(err))
		}
		if err := relay.Start(ctx); err != nil {
			log.Fatal("failed to start dispatch relay", zap.Error(err))
		}
		log.Info("dispatch worker started",
			zap.Int("batch_size", cfg.Queue.BatchSize),
			zap.Duration("poll_interval", cfg.Queue.PollInterval),
		)
	}

	var scheduler *syncapp.Scheduler
	if cfg.Sync.Enabled {
		runner := syncapp.NewRunner(ledgerClient, db.DB, log)
		scheduler = syncapp.NewScheduler(runner, cfg.Sync.Interval, cfg.Sync.Timeout, log)
		if err := scheduler.Start(ctx); err != nil {
			log.Fatal("failed to start sync scheduler", zap.Error(err))
		}
		log.Info("sync scheduler started", zap.Duration("interval", cfg.Sync.Interval))
	}

	jwtService := auth.NewJWTService(cfg.JWT)

	engine := router.New(router.Config{
		Logger:     log,
		JWTService: jwtService,
		System: []router.RouteRegistrar{
			handler.NewSystemHandler(db, version),
		},
		API: []router.RouteRegistrar{
			handler.NewProductHandler(display),
			handler.NewCartHandler(cartService),
			handler.NewOrderHandler(checkout, orders),
		},
		Admin: []router.RouteRegistrar{
			handler.NewAdminHandler(dispatch, worker, jobs),
		},
	})
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("failed to set trusted proxies", zap.Error(err))
		}
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
	if scheduler != nil {
		if err := scheduler.Stop(shutdownCtx); err != nil {
			log.Error("sync scheduler shutdown failed", zap.Error(err))
		}
	}
	if cfg.Queue.WorkerEnabled {
		if err := relay.Stop(shutdownCtx); err != nil {
			log.Error("dispatch relay shutdown failed", zap.Error(err))
		}
		if err := worker.Stop(shutdownCtx); err != nil {
			log.Error("dispatch worker shutdown failed", zap.Error(err))
		}
	}

	log.Info("server stopped")
}
