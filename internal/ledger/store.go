package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cashflow/internal/core"
	applog "cashflow/internal/log"
	"cashflow/internal/metrics"
	"cashflow/internal/storage"

	"github.com/shopspring/decimal"
)

// Load reads the ledger persisted in slot. A missing, unreadable or
// malformed slot degrades to an empty ledger; Load never fails.
func Load(ctx context.Context, slot storage.Slot) Ledger {
	l, _ := load(ctx, slot)
	return l
}

func load(ctx context.Context, slot storage.Slot) (Ledger, string) {
	l, err := Read(ctx, slot)
	switch {
	case errors.Is(err, storage.ErrSlotEmpty):
		slog.InfoContext(ctx, "Ledger slot empty, starting with empty ledger",
			applog.FieldComponent, applog.ComponentLedger, "slot", slot.Name())
		return Ledger{}, metrics.LoadEmpty
	case errors.Is(err, ErrMalformed):
		slog.WarnContext(ctx, "Ledger slot malformed, starting with empty ledger",
			applog.FieldComponent, applog.ComponentLedger, "slot", slot.Name(), "error", err)
		return Ledger{}, metrics.LoadMalformed
	case err != nil:
		slog.ErrorContext(ctx, "Error reading ledger slot, starting with empty ledger",
			applog.FieldComponent, applog.ComponentLedger, "slot", slot.Name(), "error", err)
		return Ledger{}, metrics.LoadError
	}
	return l, metrics.LoadOK
}

// Read is the strict form of Load for consumers that must not mistake a
// broken slot for an empty ledger. It returns storage.ErrSlotEmpty when
// nothing was saved yet and ErrMalformed for undecodable data.
func Read(ctx context.Context, slot storage.Slot) (Ledger, error) {
	data, err := slot.Read(ctx)
	if err != nil {
		return Ledger{}, err
	}
	return Decode(data)
}

// Save serializes the ledger and writes it to slot.
func Save(ctx context.Context, slot storage.Slot, l Ledger) error {
	data, err := Encode(l)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := slot.Write(ctx, data); err != nil {
		return fmt.Errorf("write ledger slot: %w", err)
	}
	return nil
}

// Result describes the outcome of a Store.Set call.
type Result struct {
	Change      Change
	Transaction core.Transaction // committed state of the cell; zero amount when empty
	Version     uint64
	// Persisted is false when the slot write failed. The in-memory ledger
	// keeps the change either way.
	Persisted bool
}

// Store owns the current ledger snapshot and its persisted mirror.
// All mutations go through Set.
type Store struct {
	mu      sync.RWMutex
	current Ledger
	version uint64

	saveMu sync.Mutex
	slot   storage.Slot
	// persisted is the version the slot is known to hold. Guarded by saveMu.
	persisted uint64

	metrics metrics.Collector
}

// Option configures a Store.
type Option func(*Store)

// WithMetrics sets the metrics collector.
func WithMetrics(c metrics.Collector) Option {
	return func(s *Store) {
		if c != nil {
			s.metrics = c
		}
	}
}

// NewStore creates a store backed by slot. Call Load to read persisted data.
func NewStore(slot storage.Slot, opts ...Option) *Store {
	s := &Store{
		slot:    slot,
		metrics: metrics.NoOpCollector{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory ledger with the persisted one.
func (s *Store) Load(ctx context.Context) Ledger {
	l, outcome := load(ctx, s.slot)
	s.metrics.RecordLoad(outcome)

	s.saveMu.Lock()
	s.mu.Lock()
	s.current = l
	s.version++
	// whatever the outcome, the slot was not written; a failed read must
	// not be turned into an empty slot by a later Save
	s.persisted = s.version
	s.mu.Unlock()
	s.saveMu.Unlock()

	s.metrics.RecordLedgerSize(l.Len())
	slog.InfoContext(ctx, "Ledger loaded",
		applog.FieldComponent, applog.ComponentLedger,
		"slot", s.slot.Name(), "transactions", l.Len(), "outcome", outcome)
	return l
}

// Snapshot returns the current ledger and its version. The version changes
// every time the ledger does.
func (s *Store) Snapshot() (Ledger, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.version
}

// Set commits one cell edit. The edit is applied atomically; the resulting
// snapshot is then written to the slot.
func (s *Store) Set(ctx context.Context, date, category string, amount decimal.Decimal) (Result, error) {
	if err := core.ValidateCell(date, category); err != nil {
		return Result{}, err
	}

	s.mu.Lock()
	next, change := Apply(s.current, date, category, amount)
	if change != Unchanged {
		s.current = next
		s.version++
	}
	version := s.version
	s.mu.Unlock()

	s.metrics.RecordUpsert(change.String())

	res := Result{Change: change, Version: version, Persisted: true}
	if t, ok := next.Lookup(date, category); ok {
		res.Transaction = t
	} else {
		res.Transaction = core.NewTransaction(date, category, decimal.Zero)
	}
	if change == Unchanged {
		return res, nil
	}

	s.metrics.RecordLedgerSize(next.Len())
	if err := s.persist(ctx); err != nil {
		res.Persisted = false
	}
	return res, nil
}

// persist writes the latest snapshot. Saves are serialized so an older
// snapshot never overwrites a newer one.
func (s *Store) persist(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	return s.persistLocked(ctx)
}

func (s *Store) persistLocked(ctx context.Context) error {
	l, version := s.Snapshot()
	start := time.Now()
	err := Save(ctx, s.slot, l)
	s.metrics.RecordSave(err == nil, time.Since(start))
	if err != nil {
		slog.ErrorContext(ctx, "Error saving ledger, keeping in-memory state",
			applog.FieldComponent, applog.ComponentLedger,
			"slot", s.slot.Name(), "version", version, "error", err)
		return err
	}
	s.persisted = version
	return nil
}

// Save writes the current snapshot to the slot unless the slot already
// holds it. After Load nothing is written until the ledger changes.
func (s *Store) Save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if _, version := s.Snapshot(); version == s.persisted {
		return nil
	}
	return s.persistLocked(ctx)
}
