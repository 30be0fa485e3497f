package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"bookkeep/internal/amqp"
	"bookkeep/internal/cli"
	apphttp "bookkeep/internal/http"
	"bookkeep/internal/log"
	"bookkeep/internal/middleware/ratelimit"
	"bookkeep/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	be, err := cli.OpenBackend(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("Failed to open data backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	// Ledger events are optional; without a broker the API still works and
	// exports only happen on the worker's periodic pass.
	var events services.EventPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, ledger events disabled", "error", err)
		} else {
			events = amqpClient
			logger.Info("AMQP publisher connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	checks := map[string]apphttp.ReadinessCheck{
		"store":   be.Store.Ping,
		"markers": be.Markers.Ping,
	}
	if amqpClient != nil {
		checks["amqp"] = func(context.Context) error {
			if !amqpClient.Healthy() {
				return errors.New("broker connection down")
			}
			return nil
		}
	}

	limits := ratelimit.Config{
		RequestsPerMinute: cfg.RateLimitPerMinute,
		Window:            cfg.RateLimitWindow,
	}
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Dependencies{
		Entries:   services.NewEntryService(be.Store, events),
		Payments:  services.NewPaymentService(be.Store, events),
		Queue:     services.NewQueueService(be.Store, events),
		Imports:   services.NewImportService(be.Store, be.Markers, events, cfg.ImportConcurrency),
		Checks:    checks,
		Logger:    logger.WithComponent(log.ComponentHTTP),
		RateLimit: limits,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", "error", err)
			}
		}
		if err := be.Cleanup(); err != nil {
			logger.Warn("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Starting bookkeep server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
