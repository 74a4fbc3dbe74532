package services

import (
	"context"
	"fmt"
	"log/slog"

	"cashflow/internal/amqp"
	"cashflow/internal/core"
	"cashflow/internal/ledger"
	applog "cashflow/internal/log"
	"cashflow/internal/metrics"
)

// Publisher announces committed ledger changes.
type Publisher interface {
	PublishCellChanged(ctx context.Context, msg *amqp.CellChangedMessage) error
}

// LedgerService orchestrates cell edits across the ledger store and AMQP
type LedgerService struct {
	store     *ledger.Store
	taxonomy  *core.Taxonomy
	publisher Publisher
	metrics   metrics.Collector
	closer    func() error
}

// NewLedgerService creates the service. publisher may be nil, in which
// case no change messages are sent.
func NewLedgerService(store *ledger.Store, taxonomy *core.Taxonomy, publisher Publisher, collector metrics.Collector) *LedgerService {
	if collector == nil {
		collector = metrics.NoOpCollector{}
	}
	return &LedgerService{
		store:     store,
		taxonomy:  taxonomy,
		publisher: publisher,
		metrics:   collector,
	}
}

// WithCloser registers a function run by Close, typically the AMQP client's.
func (s *LedgerService) WithCloser(fn func() error) *LedgerService {
	s.closer = fn
	return s
}

// Store returns the underlying ledger store.
func (s *LedgerService) Store() *ledger.Store { return s.store }

// Taxonomy returns the category taxonomy edits are classified with.
func (s *LedgerService) Taxonomy() *core.Taxonomy { return s.taxonomy }

// SetCell commits raw user input for one cell. Malformed amounts are
// coerced to 0, which clears the cell. The edit is saved first; publishing
// the change message is best effort.
func (s *LedgerService) SetCell(ctx context.Context, date, category, rawAmount string) (ledger.Result, error) {
	amount := core.ParseAmount(rawAmount)

	if !s.taxonomy.Known(category) {
		slog.WarnContext(ctx, "Editing category outside the taxonomy, counted as outflow",
			applog.FieldComponent, applog.ComponentLedger,
			applog.FieldCategory, category)
	}

	res, err := s.store.Set(ctx, date, category, amount)
	if err != nil {
		return ledger.Result{}, fmt.Errorf("set cell: %w", err)
	}

	slog.InfoContext(ctx, "Cell committed", applog.NewFields().
		WithComponent(applog.ComponentLedger).
		WithOperation(applog.OpUpsert).
		WithCell(date, category, res.Transaction.Amount.String()).
		With(applog.FieldChange, res.Change.String()).
		With(applog.FieldVersion, res.Version).
		ToSlice()...)

	if res.Change != ledger.Unchanged {
		s.publish(ctx, res)
	}
	return res, nil
}

func (s *LedgerService) publish(ctx context.Context, res ledger.Result) {
	if s.publisher == nil {
		return
	}
	t := res.Transaction
	msg := amqp.NewCellChangedMessage(t.Date, t.Category, t.Amount.String(), res.Change.String(), res.Version)
	err := s.publisher.PublishCellChanged(ctx, msg)
	s.metrics.RecordPublish(err == nil)
	if err != nil {
		// Don't fail the request - the edit is saved locally
		slog.ErrorContext(ctx, "Failed to publish cell change message",
			applog.FieldComponent, applog.ComponentAMQP,
			applog.FieldDate, t.Date,
			applog.FieldCategory, t.Category,
			"error", err)
	}
}

// Close releases the publisher connection
func (s *LedgerService) Close() error {
	if s.closer == nil {
		return nil
	}
	if err := s.closer(); err != nil {
		return fmt.Errorf("close ledger service: %w", err)
	}
	return nil
}
