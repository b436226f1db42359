package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/preflight/adapter/cli"
	"github.com/felixgeelhaar/preflight/adapter/cli/availability"
	"github.com/felixgeelhaar/preflight/adapter/cli/booking"
	"github.com/felixgeelhaar/preflight/adapter/cli/reschedule"
	"github.com/felixgeelhaar/preflight/adapter/cli/weather"
	"github.com/felixgeelhaar/preflight/internal/app"
	"github.com/felixgeelhaar/preflight/pkg/config"
	"github.com/felixgeelhaar/preflight/pkg/observability"
)

func main() {
	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		observability.LoggerFromEnv().Warn("failed to load config, using development mode", "error", err)
		cfg = &config.Config{AppEnv: "development", DatabaseDriver: "sqlite", LocalMode: true}
	}

	logger := observability.NewLogger(observability.LogConfigFor(cfg.AppEnv, cfg.LogLevel, os.Getenv("LOG_FORMAT")))
	cli.SetLogger(logger)

	// Try to initialize the full container
	var cliApp *cli.App
	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if cfg.IsDevelopment() {
			logger.Warn("failed to initialize container, running in limited mode", "error", err)
		} else {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
	} else {
		defer container.Close()

		// Deliver notifications raised by CLI commands (optional in CLI)
		if cfg.OutboxProcessorEnabled {
			if err := container.OutboxProcessor.Start(ctx); err != nil {
				logger.Warn("failed to start outbox processor", "error", err)
			}
		} else {
			logger.Info("outbox processor disabled in CLI")
		}

		cliApp = cli.NewAppFromContainer(container)
	}

	// Set the CLI app
	cli.SetApp(cliApp)

	// Register commands
	cli.AddCommand(booking.Cmd)
	cli.AddCommand(reschedule.Cmd)
	cli.AddCommand(availability.Cmd)
	cli.AddCommand(weather.Cmd)

	// Execute CLI
	cli.ExecuteContext(ctx)
}
