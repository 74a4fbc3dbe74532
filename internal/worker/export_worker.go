package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cashflow/internal/aggregate"
	"cashflow/internal/amqp"
	"cashflow/internal/core"
	"cashflow/internal/ledger"
	applog "cashflow/internal/log"
	"cashflow/internal/metrics"
	"cashflow/internal/sheets"
	"cashflow/internal/storage"
)

// ExportWorker mirrors a year's monthly summary to a spreadsheet whenever
// a cell of that year changes.
type ExportWorker struct {
	slot     storage.Slot
	taxonomy *core.Taxonomy
	exporter sheets.SummaryExporter
	reader   sheets.SummaryReader
	metrics  metrics.Collector
}

// NewExportWorker creates a worker reading the ledger from slot. reader is
// optional; when set, exports whose table is already up to date are skipped.
func NewExportWorker(slot storage.Slot, taxonomy *core.Taxonomy, exporter sheets.SummaryExporter, reader sheets.SummaryReader, collector metrics.Collector) *ExportWorker {
	if collector == nil {
		collector = metrics.NoOpCollector{}
	}
	return &ExportWorker{
		slot:     slot,
		taxonomy: taxonomy,
		exporter: exporter,
		reader:   reader,
		metrics:  collector,
	}
}

// HandleCellChanged processes a single cell change message from AMQP
func (w *ExportWorker) HandleCellChanged(ctx context.Context, msg *amqp.CellChangedMessage) error {
	year, err := msg.Year()
	if err != nil {
		// not retryable; drop it
		slog.WarnContext(ctx, "Ignoring cell change with invalid date",
			applog.FieldComponent, applog.ComponentWorker,
			applog.FieldDate, msg.Date, "error", err)
		return nil
	}

	slog.InfoContext(ctx, "Processing cell change message",
		applog.FieldComponent, applog.ComponentWorker,
		applog.FieldDate, msg.Date,
		applog.FieldCategory, msg.Category,
		applog.FieldChange, msg.Change)

	return w.ExportYear(ctx, year)
}

// ExportYear recomputes the year's summary from the slot and writes it.
func (w *ExportWorker) ExportYear(ctx context.Context, year int) error {
	start := time.Now()
	err := w.exportYear(ctx, year)
	w.metrics.RecordExport(err == nil, time.Since(start))
	return err
}

func (w *ExportWorker) exportYear(ctx context.Context, year int) error {
	l, err := ledger.Read(ctx, w.slot)
	if errors.Is(err, storage.ErrSlotEmpty) {
		l, err = ledger.Ledger{}, nil
	}
	if err != nil {
		// never overwrite a good table from a slot we could not read
		return fmt.Errorf("read ledger: %w", err)
	}

	summaries := aggregate.MonthlySummary(l.Transactions(), w.taxonomy, year)

	if w.reader != nil {
		current, ok, err := w.reader.ReadSummary(ctx, year)
		if err != nil {
			slog.WarnContext(ctx, "Failed to read exported summary, exporting anyway",
				applog.FieldComponent, applog.ComponentWorker,
				applog.FieldYear, year, "error", err)
		} else if ok && sameSummaries(current, summaries) {
			slog.DebugContext(ctx, "Exported summary already up to date",
				applog.FieldComponent, applog.ComponentWorker, applog.FieldYear, year)
			return nil
		}
	}

	if err := w.exporter.ExportSummary(ctx, year, summaries); err != nil {
		return fmt.Errorf("export summary %d: %w", year, err)
	}

	slog.InfoContext(ctx, "Exported yearly summary",
		applog.FieldComponent, applog.ComponentWorker,
		applog.FieldYear, year,
		"transactions", l.Len())
	return nil
}

func sameSummaries(a, b [12]aggregate.MonthSummary) bool {
	for i := range a {
		if !a[i].TotalIncome.Equal(b[i].TotalIncome) ||
			!a[i].TotalExpenses.Equal(b[i].TotalExpenses) ||
			!a[i].NetCashFlow.Equal(b[i].NetCashFlow) {
			return false
		}
	}
	return true
}
