package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/shazamohamed705/amazing/internal/app"
	"github.com/shazamohamed705/amazing/internal/config"
	"github.com/shazamohamed705/amazing/pkg/logger"
	"github.com/shazamohamed705/amazing/pkg/tracing"
)

func main() {
	// Load a local .env when present; real deployments set the environment
	// directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New("storefront", cfg.LogLevel)
	log.Info("starting storefront agent",
		slog.String("environment", cfg.Environment),
		slog.Int("http_port", cfg.HTTPPort),
	)

	// Create a context that is canceled on SIGINT or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tracingCfg := tracing.DefaultConfig("storefront")
	tracingCfg.Environment = cfg.Environment
	tracingCfg.OTLPEndpoint = cfg.OTLPEndpoint
	tracingCfg.SampleRate = cfg.TraceSample
	tracingCfg.Enabled = cfg.TracingEnabled

	shutdownTracer, err := tracing.InitTracer(ctx, tracingCfg)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}()

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Error("failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Run the application. This blocks until shutdown.
	if err := application.Run(ctx); err != nil {
		log.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("storefront agent stopped")
}
