package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saturnino-fabrica-de-software/vendaval/internal/api"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/bootstrap"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/config"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/observability"
)

const cacheCleanupInterval = 15 * time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting Vendaval API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("provider", cfg.ClassifierProvider),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Wire the pipeline
	components, err := bootstrap.Build(ctx, cfg, observability.NewMetrics(), logger, bootstrap.WithLiveFeed())
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer components.Close()

	go components.RunCacheCleanup(ctx, cacheCleanupInterval)
	go components.Hub.Run(ctx)

	deps := &api.Dependencies{
		Service:      components.Service,
		Hub:          components.Hub,
		RateLimitMax: cfg.RateLimitMax,
	}
	// a nil *pgxpool.Pool must not reach the Pinger interface
	if components.Pool != nil {
		deps.DB = components.Pool
	}

	// Setup router
	router := api.NewRouter(logger, deps)
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")
	done := make(chan error, 1)
	go func() { done <- router.Shutdown() }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	case <-time.After(10 * time.Second):
		logger.Warn("shutdown timed out")
	}

	logger.Info("server stopped")
	return nil
}
