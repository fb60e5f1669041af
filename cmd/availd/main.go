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

	"github.com/SherClockHolmes/webpush-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"lodging-availability-backend/config"
	"lodging-availability-backend/internal/api"
	"lodging-availability-backend/internal/availability"
	"lodging-availability-backend/internal/db"
	"lodging-availability-backend/internal/events"
	"lodging-availability-backend/internal/idempotency"
	"lodging-availability-backend/internal/logging"
	"lodging-availability-backend/internal/notification"
	"lodging-availability-backend/internal/store"
	"lodging-availability-backend/internal/sweeper"
	"lodging-availability-backend/internal/tracing"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration from %s: %v\n", configPath, err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Info("configuration loaded", zap.String("path", configPath))

	shutdownTracing := tracing.Init(cfg.Tracing, logger)

	// Initialize database
	gormDB, err := db.Init(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	logger.Info("database initialized", zap.String("driver", cfg.Database.Driver))

	minDate, err := availability.ParseDate(cfg.Booking.MinDate)
	if err != nil {
		logger.Fatal("invalid booking.min_date", zap.Error(err))
	}
	appStore := store.NewGormStore(gormDB, store.Options{
		TaxRate:  cfg.Booking.TaxRate,
		Currency: cfg.Booking.Currency,
		Bounds: availability.StayBounds{
			MinDate:   minDate,
			MaxNights: cfg.Booking.MaxStayNights,
		},
		CalendarMaxDays: cfg.Booking.CalendarMaxDays,
		Logger:          logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Reservation events go to every configured sink.
	var publishers events.Fanout
	var webpushOptions *webpush.Options
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, webpushOptions, logger)
		pool.Start(ctx)
		publishers = append(publishers, pool)
		logger.Info("push notifications enabled", zap.Int("workers", cfg.WorkerPool.Size))
	} else {
		logger.Warn("VAPID keys are not configured, push notifications disabled")
	}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.Kafka)
		defer kafkaPublisher.Close()
		publishers = append(publishers, kafkaPublisher)
		logger.Info("kafka publisher enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	idempotencyTTL := time.Duration(cfg.Server.IdempotencyTTLSeconds) * time.Second
	var idempotencyStore idempotency.Store = idempotency.NewMemoryStore(idempotencyTTL)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, using in-memory idempotency keys", zap.Error(err))
		} else {
			idempotencyStore = idempotency.NewRedisStore(rdb, idempotencyTTL)
		}
	}

	// Expire unpaid pending reservations in the background
	hold := time.Duration(cfg.Booking.PendingHoldMinutes) * time.Minute
	sweeperSvc := sweeper.NewService(cfg.Sweeper, hold, appStore, publishers, logger)
	go sweeperSvc.Run(ctx)

	handler := api.NewHandler(appStore, publishers, webpushOptions, logger, api.Options{
		MinDate:             minDate,
		CalendarDefaultDays: cfg.Booking.CalendarDefaultDays,
	})
	router := api.NewRouter(handler, api.RouterConfig{
		RateLimit:   cfg.Server.RateLimitPerSec,
		Burst:       cfg.Server.RateLimitBurst,
		IPHeader:    cfg.Server.RequestIPHeader,
		Idempotency: idempotencyStore,
	}, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server ListenAndServe", zap.Error(err))
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Info("shutdown signal received, stopping services")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSecs)*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server Shutdown", zap.Error(err))
	}
	if shutdownTracing != nil {
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("failed to flush traces", zap.Error(err))
		}
	}

	logger.Info("server gracefully stopped")
}
