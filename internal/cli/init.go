// Package cli holds the startup plumbing shared by cmd/budgetdash and
// cmd/budget-cli, and the terminal rendering of a month snapshot.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"budgetdash/internal/budgetapi"
	"budgetdash/internal/config"
	"budgetdash/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the application logger from LOG_LEVEL and LOG_FORMAT and
// makes it the slog default.
func SetupLogger(cfg *config.Config, out io.Writer) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: log.ComponentApp,
		Output:    out,
	})
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads .env and the environment, sets up logging and
// validates the result. It exits the process when the configuration is invalid.
func LoadAndValidateConfig(out io.Writer) (*config.Config, *log.Logger) {
	LoadEnvFile()
	cfg := config.Load()
	logger := SetupLogger(cfg, out)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// NewBudgetClient creates the budget API client configured by cfg.
func NewBudgetClient(cfg *config.Config, logger *log.Logger) (*budgetapi.Client, error) {
	return budgetapi.New(cfg.BudgetAPIURL,
		budgetapi.WithTimeout(cfg.BudgetAPITimeout),
		budgetapi.WithCategoryCache(cfg.CategoryCacheTTL),
		budgetapi.WithLogger(logger),
	)
}

// ShutdownContext returns a context cancelled on SIGINT or SIGTERM. onSignal,
// if set, runs before the context is cancelled.
func ShutdownContext(logger *log.Logger, onSignal func()) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			if onSignal != nil {
				onSignal()
			}
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
