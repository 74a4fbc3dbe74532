package main

import (
	"context"
	"errors"
	"os"
	"time"

	"cashflow/internal/amqp"
	"cashflow/internal/cli"
	"cashflow/internal/services"
	"cashflow/internal/sheets"
	gsheet "cashflow/internal/sheets/google"
	mem "cashflow/internal/sheets/memory"
	"cashflow/internal/worker"

	"golang.org/x/sync/errgroup"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting cashflow-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateExport(); err != nil {
		logger.Error("Export configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.DataBackend == "memory" {
		logger.Warn("Memory backend is private to each process; the worker will export an empty ledger")
	}
	taxonomy := cli.LoadTaxonomy(logger, cfg.TaxonomyDir)

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()
	backendRes := cli.InitBackend(startCtx, logger, cfg)
	defer func() {
		if err := backendRes.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	var (
		exporter sheets.SummaryExporter
		reader   sheets.SummaryReader
	)
	if cfg.ExportDryRun {
		store := mem.NewStore()
		exporter, reader = store, store
		logger.Info("Export dry run - summaries are kept in memory")
	} else {
		client, err := gsheet.New(context.Background(), gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		exporter, reader = client, client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exportWorker := worker.NewExportWorker(backendRes.Slot, taxonomy, exporter, reader, nil)
	processor := services.NewExportProcessor(exportWorker, services.ExportProcessorConfig{
		Interval: cfg.ExportInterval,
	})

	ctx, _ := cli.GracefulShutdown(logger, 30*time.Second, nil)
	g, gctx := errgroup.WithContext(ctx)

	if err := processor.Start(gctx); err != nil {
		logger.Error("Failed to start export processor", "error", err)
		os.Exit(1)
	}

	g.Go(func() error {
		err := amqpClient.ConsumeCellChanged(gctx, func(ctx context.Context, msg *amqp.CellChangedMessage) error {
			// keep the year reconciled even if this export fails
			if year, err := msg.Year(); err == nil {
				processor.Track(year)
			}
			return exportWorker.HandleCellChanged(ctx, msg)
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		return processor.Stop(stopCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		// deferred cleanups do not run on os.Exit
		amqpClient.Close()
		_ = backendRes.Cleanup()
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
