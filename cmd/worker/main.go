package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/felixgeelhaar/preflight/internal/app"
	"github.com/felixgeelhaar/preflight/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/preflight/pkg/config"
	"github.com/felixgeelhaar/preflight/pkg/observability"
)

func main() {
	// Setup logger
	logger := observability.LoggerFromEnv()
	logger.Info("starting preflight worker")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger = observability.NewLogger(observability.LogConfigFor(cfg.AppEnv, cfg.LogLevel, os.Getenv("LOG_FORMAT")))

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()
	logger.Info("container initialized", "driver", container.DBDriver)

	// Consume notification events from RabbitMQ. Without a broker the
	// in-process bus delivers them as the outbox publishes.
	var wg sync.WaitGroup
	if cfg.RabbitMQURL != "" && container.EventBus == nil {
		consumer, err := newConsumer(cfg, container, logger)
		if err != nil {
			logger.Error("failed to connect RabbitMQ consumer", "error", err)
			os.Exit(1)
		}
		defer consumer.Close()

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("RabbitMQ consumer stopped", "error", err)
				cancel()
			}
		}()
	}

	// Weather cache sweeper
	wg.Add(1)
	go func() {
		defer wg.Done()
		container.WeatherCache.StartSweeper(ctx, cfg.WeatherCacheSweepInterval)
	}()

	// Conflict scan worker
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := container.ScanWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scan worker exited", "error", err)
		}
	}()

	// Outbox processor
	if cfg.OutboxProcessorEnabled {
		logger.Info("starting outbox processor",
			"poll_interval", cfg.OutboxPollInterval,
			"batch_size", cfg.OutboxBatchSize,
			"max_retries", cfg.OutboxMaxRetries,
		)
		if err := container.OutboxProcessor.Start(ctx); err != nil {
			logger.Error("failed to start outbox processor", "error", err)
			os.Exit(1)
		}
	}

	if cfg.OutboxCleanupInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runEvery(ctx, cfg.OutboxCleanupInterval, func() {
				deleted, err := container.OutboxRepo.DeleteOld(ctx, cfg.OutboxRetentionDays)
				if err != nil {
					logger.Error("outbox cleanup failed", "error", err)
					return
				}
				if deleted > 0 {
					logger.Info("outbox cleanup completed", "deleted", deleted, "retention_days", cfg.OutboxRetentionDays)
				}
			})
		}()
	}

	if cfg.OutboxStatsInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runEvery(ctx, cfg.OutboxStatsInterval, func() {
				stats := container.OutboxProcessor.GetStats()
				logger.Info("worker stats",
					"outbox_running", stats.IsRunning,
					"published", stats.PublishedCount,
					"failed", stats.FailedCount,
					"dead", stats.DeadCount,
					"lag_seconds", stats.LagSeconds,
					"last_error", stats.LastError,
					"scan_cycles", container.ScanWorker.Cycles(),
					"last_scan_at", container.ScanWorker.LastRun(),
					"weather_cache_entries", container.WeatherCache.Len(),
				)
			})
		}()
	}

	if cfg.WorkerHealthAddr != "" {
		healthSrv := &http.Server{
			Addr:              cfg.WorkerHealthAddr,
			Handler:           healthMux(container),
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			logger.Info("health server starting", "addr", cfg.WorkerHealthAddr)
			if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("health server error", "error", err)
			}
		}()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := healthSrv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("health server shutdown error", "error", err)
			}
		}()
	}

	// Wait for shutdown
	<-ctx.Done()
	logger.Info("shutting down worker")

	container.OutboxProcessor.Stop()
	wg.Wait()
	logger.Info("worker stopped")
}

func newConsumer(cfg *config.Config, container *app.Container, logger *slog.Logger) (*eventbus.RabbitMQConsumer, error) {
	consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
		URL:    cfg.RabbitMQURL,
		Logger: logger,
	}, eventbus.NewConsumerRegistry(logger))
	if err != nil {
		return nil, err
	}
	consumer.RegisterConsumer(container.NotificationSubscriber)
	return consumer, nil
}

func healthMux(container *app.Container) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		stats := container.OutboxProcessor.GetStats()
		response := map[string]any{
			"status":            "ok",
			"scan_running":      container.ScanWorker.IsRunning(),
			"scan_cycles":       container.ScanWorker.Cycles(),
			"last_scan_at":      container.ScanWorker.LastRun(),
			"outbox_running":    stats.IsRunning,
			"published":         stats.PublishedCount,
			"failed":            stats.FailedCount,
			"dead":              stats.DeadCount,
			"last_processed_at": stats.LastProcessedAt,
			"last_error":        stats.LastError,
			"weather_breakers":  container.WeatherGateway.BreakerStates(),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	})
	mux.Handle("/livez", observability.LivenessHandler())
	mux.Handle("/readyz", container.Health.ReadinessHandler())
	mux.Handle("/metrics", container.Metrics.Handler())
	return mux
}

func runEvery(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
