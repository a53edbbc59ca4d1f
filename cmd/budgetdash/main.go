package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"budgetdash/internal/amqp"
	"budgetdash/internal/cache"
	"budgetdash/internal/cli"
	apphttp "budgetdash/internal/http"
	"budgetdash/internal/log"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(os.Stdout)

	client, err := cli.NewBudgetClient(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize budget API client", log.FieldError, err, "url", cfg.BudgetAPIURL)
		os.Exit(1)
	}

	caches := cache.NewManager(logger)
	if cc := client.CategoryCache(); cc != nil {
		caches.Register("categories", cc)
	}

	opts := []apphttp.Option{apphttp.WithCacheManager(caches)}

	// Dashboard events are optional; the dashboard keeps working without a broker.
	var amqpClient *amqp.Client
	if cfg.EventsEnabled() {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, dashboard events disabled", log.FieldError, err)
			amqpClient = nil
		} else {
			opts = append(opts, apphttp.WithPublisher(amqpClient))
			logger.Info("Publishing dashboard events", "exchange", cfg.AMQPExchange)
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, client, cfg, logger, opts...)
	caches.StartCleanup(5 * time.Minute)

	// Graceful shutdown handling
	ctx, cancel := cli.ShutdownContext(logger, func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})
	defer cancel()

	logger.Info("Starting budget dashboard",
		"port", cfg.Port,
		"budget_api", cfg.BudgetAPIURL,
		"refresh_mode", cfg.RefreshMode)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()

	if amqpClient != nil {
		if err := amqpClient.Close(); err != nil {
			logger.Warn("AMQP close error", log.FieldError, err)
		}
	}
	caches.Stop()
	logger.Info("Server stopped gracefully")
}
