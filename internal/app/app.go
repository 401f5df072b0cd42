package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/shazamohamed705/amazing/internal/cart"
	"github.com/shazamohamed705/amazing/internal/config"
	"github.com/shazamohamed705/amazing/internal/event"
	handler "github.com/shazamohamed705/amazing/internal/handler/http"
	"github.com/shazamohamed705/amazing/internal/remote"
	"github.com/shazamohamed705/amazing/internal/store"
	"github.com/shazamohamed705/amazing/pkg/health"
	"github.com/shazamohamed705/amazing/pkg/httpclient"
	pkgkafka "github.com/shazamohamed705/amazing/pkg/kafka"
	"github.com/shazamohamed705/amazing/pkg/middleware"
)

// App wires together all dependencies and runs the storefront agent.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	rdb        *redis.Client
	producer   *pkgkafka.Producer
	engine     *cart.Engine
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize the device-local Redis store.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("addr", cfg.RedisAddr),
		slog.Int("db", cfg.RedisDB),
	)

	// Cart activity events are optional; without brokers the engine runs
	// without a producer.
	var producer *pkgkafka.Producer
	var eventProducer *event.Producer
	if cfg.EventsEnabled() {
		deviceID := cfg.DeviceID
		if deviceID == "" {
			deviceID = uuid.NewString()
		}
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		eventProducer = event.NewProducer(producer, deviceID, logger)
		logger.Info("kafka producer initialized",
			slog.Any("brokers", cfg.KafkaBrokers),
			slog.String("device_id", deviceID),
		)
	}

	// Cart mirror traffic runs without retries or a client deadline so a
	// slow backend never fails an optimistic local update. Checkout goes
	// through the default retrying client behind a circuit breaker.
	syncClient := httpclient.New(httpclient.SyncConfig())
	checkoutClient := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultCircuitBreakerConfig("checkout"),
		logger,
	).WithFallback(remote.CheckoutFallback)

	guestStore := store.NewGuestStore(rdb)
	tokenStore := store.NewTokenStore(rdb)
	remoteAPI := remote.NewClient(cfg.APIBaseURL, syncClient, logger)
	checkout := remote.NewCheckoutClient(cfg.APIBaseURL, checkoutClient, logger)

	engine := cart.NewEngine(guestStore, remoteAPI, tokenStore, eventProducer, logger)

	// Seed the in-memory cart from whatever store applies to the current
	// session. Failures are soft; the engine starts empty.
	if _, err := engine.Fetch(ctx, 1, 0); err != nil {
		logger.Warn("initial cart fetch failed", slog.String("error", err.Error()))
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	if producer != nil {
		healthHandler.Register("kafka", producer.Ping)
	}

	// HTTP router.
	router := handler.NewRouter(handler.RouterDeps{
		Engine:        engine,
		Checkout:      checkout,
		Sessions:      tokenStore,
		HealthHandler: healthHandler,
		Logger:        logger,
		PprofCIDRs:    cfg.PprofCIDRs,
		RateLimit:     middleware.DefaultRateLimitConfig(),
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		rdb:        rdb,
		producer:   producer,
		engine:     engine,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
