package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	applog "cashflow/internal/log"
)

// YearExporter writes one year's summary.
type YearExporter interface {
	ExportYear(ctx context.Context, year int) error
}

// ExportProcessorConfig holds configuration for the export processor
type ExportProcessorConfig struct {
	// Interval is how often tracked years are re-exported (default: 5m)
	Interval time.Duration

	// Now returns the current time; the current year is always tracked.
	Now func() time.Time
}

// DefaultExportProcessorConfig returns sensible defaults
func DefaultExportProcessorConfig() ExportProcessorConfig {
	return ExportProcessorConfig{
		Interval: 5 * time.Minute,
		Now:      time.Now,
	}
}

// ExportProcessor periodically reconciles exported summaries with the
// ledger. It covers changes whose messages were lost, and years whose
// last export failed.
type ExportProcessor struct {
	exporter YearExporter
	config   ExportProcessorConfig

	yearsMu sync.Mutex
	years   map[int]bool

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewExportProcessor creates a new export processor
func NewExportProcessor(exporter YearExporter, config ExportProcessorConfig) *ExportProcessor {
	if config.Interval <= 0 {
		config.Interval = DefaultExportProcessorConfig().Interval
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &ExportProcessor{
		exporter: exporter,
		config:   config,
		years:    make(map[int]bool),
	}
}

// Track adds a year to the set reconciled on every cycle.
func (p *ExportProcessor) Track(year int) {
	p.yearsMu.Lock()
	defer p.yearsMu.Unlock()
	p.years[year] = true
}

// Years returns the tracked years in ascending order, current year included.
func (p *ExportProcessor) Years() []int {
	p.yearsMu.Lock()
	p.years[p.config.Now().Year()] = true
	years := make([]int, 0, len(p.years))
	for y := range p.years {
		years = append(years, y)
	}
	p.yearsMu.Unlock()

	sort.Ints(years)
	return years
}

// Start begins the processing loop. Returns an error if already running.
func (p *ExportProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("export processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Export processor started",
		applog.FieldComponent, applog.ComponentWorker,
		"interval", p.config.Interval)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *ExportProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Export processor stopped gracefully",
			applog.FieldComponent, applog.ComponentWorker)
	case <-ctx.Done():
		slog.WarnContext(ctx, "Export processor stop timed out",
			applog.FieldComponent, applog.ComponentWorker)
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning returns whether the processor is currently running
func (p *ExportProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *ExportProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	// Export immediately on startup
	p.RunOnce(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.RunOnce(ctx)
		}
	}
}

// RunOnce exports every tracked year and returns how many failed.
func (p *ExportProcessor) RunOnce(ctx context.Context) int {
	failed := 0
	for _, year := range p.Years() {
		if ctx.Err() != nil {
			return failed
		}
		if err := p.exporter.ExportYear(ctx, year); err != nil {
			failed++
			slog.WarnContext(ctx, "Periodic export failed, will retry next cycle",
				applog.FieldComponent, applog.ComponentWorker,
				applog.FieldYear, year,
				"error", err)
		}
	}
	return failed
}
