package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cashflow/internal/core"
	"cashflow/internal/metrics"
	"cashflow/internal/storage"

	"github.com/shopspring/decimal"
)

type failingSlot struct {
	readErr  error
	writeErr error
	writes   int
	mu       sync.Mutex
}

func (s *failingSlot) Name() string { return "failing" }

func (s *failingSlot) Read(context.Context) ([]byte, error) {
	return nil, s.readErr
}

func (s *failingSlot) Write(context.Context, []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	return s.writeErr
}

type recordingCollector struct {
	metrics.NoOpCollector
	mu      sync.Mutex
	upserts []string
	loads   []string
	saves   []bool
}

func (c *recordingCollector) RecordUpsert(change string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.upserts = append(c.upserts, change)
}

func (c *recordingCollector) RecordLoad(outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loads = append(c.loads, outcome)
}

func (c *recordingCollector) RecordSave(success bool, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saves = append(c.saves, success)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	slot := storage.NewMemorySlot(storage.DefaultSlotName)
	l := New(
		core.NewTransaction("2025-01-05", "Sales", amt("1000")),
		core.NewTransaction("2025-01-05", "Rent", amt("400")),
	)
	if err := Save(ctx, slot, l); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := Load(ctx, slot); !got.Equal(l) {
		t.Fatalf("load(save(l)) != l")
	}
}

func TestLoadDegradesToEmpty(t *testing.T) {
	ctx := context.Background()

	malformed := storage.NewMemorySlot("bad")
	_ = malformed.Write(ctx, []byte(`{"not":"an array"}`))

	tests := []struct {
		name    string
		slot    storage.Slot
		outcome string
	}{
		{"absent", storage.NewMemorySlot("empty"), metrics.LoadEmpty},
		{"unreadable", &failingSlot{readErr: errors.New("disk gone")}, metrics.LoadError},
		{"malformed", malformed, metrics.LoadMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, outcome := load(ctx, tt.slot)
			if l.Len() != 0 {
				t.Fatalf("expected empty ledger, got %d", l.Len())
			}
			if outcome != tt.outcome {
				t.Fatalf("outcome = %q, want %q", outcome, tt.outcome)
			}
		})
	}
}

func TestStoreSet(t *testing.T) {
	ctx := context.Background()
	slot := storage.NewMemorySlot(storage.DefaultSlotName)
	collector := &recordingCollector{}
	s := NewStore(slot, WithMetrics(collector))
	s.Load(ctx)

	res, err := s.Set(ctx, "2025-01-05", "Sales", amt("1000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Change != Created || !res.Persisted || !res.Transaction.Amount.Equal(amt("1000")) {
		t.Fatalf("unexpected result %+v", res)
	}
	v1 := res.Version

	res, _ = s.Set(ctx, "2025-01-05", "Sales", amt("1000"))
	if res.Change != Unchanged || res.Version != v1 {
		t.Fatalf("expected unchanged at same version, got %+v", res)
	}

	res, _ = s.Set(ctx, "2025-01-05", "Sales", decimal.Zero)
	if res.Change != Deleted || res.Version <= v1 || !res.Transaction.Amount.IsZero() {
		t.Fatalf("unexpected delete result %+v", res)
	}

	persisted := Load(ctx, slot)
	current, _ := s.Snapshot()
	if !persisted.Equal(current) || persisted.Len() != 0 {
		t.Fatalf("slot does not mirror the store")
	}

	want := []string{"created", "unchanged", "deleted"}
	if len(collector.upserts) != len(want) {
		t.Fatalf("recorded upserts %v, want %v", collector.upserts, want)
	}
	for i := range want {
		if collector.upserts[i] != want[i] {
			t.Fatalf("recorded upserts %v, want %v", collector.upserts, want)
		}
	}
	if len(collector.saves) != 2 {
		t.Fatalf("expected 2 saves, got %d", len(collector.saves))
	}
	if len(collector.loads) != 1 || collector.loads[0] != metrics.LoadEmpty {
		t.Fatalf("unexpected loads %v", collector.loads)
	}
}

func TestStoreSetRejectsInvalidCell(t *testing.T) {
	s := NewStore(storage.NewMemorySlot("x"))
	if _, err := s.Set(context.Background(), "05/01/2025", "Sales", amt("1")); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	if _, err := s.Set(context.Background(), "2025-01-05", "", amt("1")); !errors.Is(err, core.ErrEmptyCategory) {
		t.Fatalf("expected ErrEmptyCategory, got %v", err)
	}
}

func TestStoreKeepsStateWhenSaveFails(t *testing.T) {
	ctx := context.Background()
	slot := &failingSlot{readErr: storage.ErrSlotEmpty, writeErr: errors.New("quota exceeded")}
	s := NewStore(slot)
	s.Load(ctx)

	res, err := s.Set(ctx, "2025-01-05", "Rent", amt("400"))
	if err != nil {
		t.Fatalf("save failure must not fail the edit: %v", err)
	}
	if res.Persisted {
		t.Fatalf("expected Persisted=false")
	}
	l, _ := s.Snapshot()
	if _, ok := l.Lookup("2025-01-05", "Rent"); !ok {
		t.Fatalf("in-memory state was lost")
	}
	if err := s.Save(ctx); err == nil {
		t.Fatalf("expected explicit save to report the failure")
	}
}

// lockedOnceSlot fails its first read, as a busy SQLite file would.
type lockedOnceSlot struct {
	*storage.MemorySlot
	reads int
}

func (s *lockedOnceSlot) Read(ctx context.Context) ([]byte, error) {
	s.reads++
	if s.reads == 1 {
		return nil, errors.New("database is locked")
	}
	return s.MemorySlot.Read(ctx)
}

func TestStoreSaveAfterFailedLoadKeepsSlot(t *testing.T) {
	ctx := context.Background()
	const stored = `[{"id":"2025-01-05-Rent","date":"2025-01-05","category":"Rent","amount":400}]`
	slot := &lockedOnceSlot{MemorySlot: storage.NewMemorySlot("locked")}
	if err := slot.MemorySlot.Write(ctx, []byte(stored)); err != nil {
		t.Fatalf("seed slot: %v", err)
	}

	s := NewStore(slot)
	if l := s.Load(ctx); l.Len() != 0 {
		t.Fatalf("expected degraded empty ledger, got %d transactions", l.Len())
	}
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := slot.MemorySlot.Read(ctx)
	if err != nil || string(data) != stored {
		t.Fatalf("slot overwritten: %s (%v)", data, err)
	}
}

func TestStoreSaveWritesUnpersistedChanges(t *testing.T) {
	ctx := context.Background()
	slot := &failingSlot{readErr: storage.ErrSlotEmpty}
	s := NewStore(slot)
	s.Load(ctx)

	if err := s.Save(ctx); err != nil || slot.writes != 0 {
		t.Fatalf("expected no write for an unchanged ledger, got %d (%v)", slot.writes, err)
	}

	slot.writeErr = errors.New("disk full")
	if res, _ := s.Set(ctx, "2025-01-05", "Rent", amt("400")); res.Persisted {
		t.Fatalf("expected Persisted=false")
	}
	slot.writeErr = nil
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if slot.writes != 2 {
		t.Fatalf("expected the failed change to be retried, got %d writes", slot.writes)
	}
	if err := s.Save(ctx); err != nil || slot.writes != 2 {
		t.Fatalf("expected no further write, got %d (%v)", slot.writes, err)
	}
}

func TestStoreConcurrentSets(t *testing.T) {
	ctx := context.Background()
	slot := storage.NewMemorySlot("concurrent")
	s := NewStore(slot)

	var wg sync.WaitGroup
	for day := 1; day <= 20; day++ {
		wg.Add(1)
		go func(day int) {
			defer wg.Done()
			date := core.DayString(2025, time.March, day)
			if _, err := s.Set(ctx, date, "Sales", decimal.NewFromInt(int64(day))); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}(day)
	}
	wg.Wait()

	l, version := s.Snapshot()
	if l.Len() != 20 || version != 20 {
		t.Fatalf("expected 20 transactions at version 20, got %d at %d", l.Len(), version)
	}
	if !Load(ctx, slot).Equal(l) {
		t.Fatalf("slot does not hold the latest snapshot")
	}
}

func TestReadIsStrict(t *testing.T) {
	ctx := context.Background()

	if _, err := Read(ctx, storage.NewMemorySlot("empty")); !errors.Is(err, storage.ErrSlotEmpty) {
		t.Fatalf("expected ErrSlotEmpty, got %v", err)
	}

	bad := storage.NewMemorySlot("bad")
	_ = bad.Write(ctx, []byte(`[{"date":"nope"}]`))
	if _, err := Read(ctx, bad); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}

	good := storage.NewMemorySlot("good")
	_ = good.Write(ctx, []byte(`[{"id":"x","date":"2025-01-01","category":"A","amount":3}]`))
	l, err := Read(ctx, good)
	if err != nil || l.Len() != 1 {
		t.Fatalf("expected one transaction, got %d (%v)", l.Len(), err)
	}
}
