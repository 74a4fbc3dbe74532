package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"cashflow/internal/amqp"
	"cashflow/internal/cache"
	"cashflow/internal/cli"
	apphttp "cashflow/internal/http"
	"cashflow/internal/ledger"
	applog "cashflow/internal/log"
	promcollector "cashflow/internal/metrics/prometheus"
	"cashflow/internal/middleware/ratelimit"
	"cashflow/internal/services"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)
	taxonomy := cli.LoadTaxonomy(logger, cfg.TaxonomyDir)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := promcollector.NewPrometheusCollector("cashflow")
	if err := collector.Register(registry); err != nil {
		logger.Error("Failed to register metrics", "error", err)
		os.Exit(1)
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	backendRes := cli.InitBackend(startCtx, logger, cfg)

	store := ledger.NewStore(backendRes.Slot, ledger.WithMetrics(collector))
	store.Load(startCtx)
	startCancel()

	// Change messages are optional: without AMQP the ledger still works,
	// only the Sheets export stops receiving updates.
	var publisher services.Publisher
	var closePublisher func() error
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without change messages", "error", err)
		} else {
			publisher, closePublisher = client, client.Close
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - cell changes will not be exported")
	}

	service := services.NewLedgerService(store, taxonomy, publisher, collector).WithCloser(closePublisher)

	httpLogger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Component: applog.ComponentHTTP,
		Output:    os.Stdout,
	})
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Service:        service,
		Views:          cache.NewViews(cfg.CacheSize),
		Metrics:        collector,
		MetricsHandler: promcollector.Handler(registry),
		Ready:          backendRes.Ready,
		Logger:         httpLogger,
		RateLimit:      ratelimit.DefaultConfig(),
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		// retry a change whose save failed; a no-op when the slot is current
		if err := store.Save(shutdownCtx); err != nil {
			logger.Error("Final ledger save failed", "error", err)
		}
		if err := service.Close(); err != nil {
			logger.Error("Failed to close AMQP client", "error", err)
		}
		if err := backendRes.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	})

	logger.Info("Starting cashflow server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"slot", backendRes.Slot.Name(),
		"amqp", publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
