package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func exerciseSlot(t *testing.T, s Slot) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Read(ctx); !errors.Is(err, ErrSlotEmpty) {
		t.Fatalf("expected ErrSlotEmpty on fresh slot, got %v", err)
	}
	if err := s.Write(ctx, []byte(`[1]`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Write(ctx, []byte(`[2]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := s.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != `[2]` {
		t.Fatalf("expected last write, got %q", got)
	}
}

func TestMemorySlot(t *testing.T) {
	s := NewMemorySlot(DefaultSlotName)
	if s.Name() != DefaultSlotName {
		t.Fatalf("unexpected name %q", s.Name())
	}
	exerciseSlot(t, s)
}

func TestMemorySlotReturnsCopies(t *testing.T) {
	s := NewMemorySlot("x")
	buf := []byte("abc")
	_ = s.Write(context.Background(), buf)
	buf[0] = 'z'
	got, _ := s.Read(context.Background())
	if string(got) != "abc" {
		t.Fatalf("slot aliased caller buffer: %q", got)
	}
}

func TestFileSlot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	s := NewFileSlot(dir, "ledger")
	exerciseSlot(t, s)

	if _, err := os.Stat(s.Path()); err != nil {
		t.Fatalf("expected backing file: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be cleaned up, found %d entries", len(entries))
	}
}

func TestFileSlotCancelledContext(t *testing.T) {
	s := NewFileSlot(t.TempDir(), "ledger")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Write(ctx, []byte("[]")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSQLiteSlot(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "data", "cashflow.db")
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	exerciseSlot(t, store.Slot(DefaultSlotName))

	// Slots are independent
	other := store.Slot("other")
	if _, err := other.Read(context.Background()); !errors.Is(err, ErrSlotEmpty) {
		t.Fatalf("expected other slot to be empty, got %v", err)
	}
}

func TestSQLiteStoreReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cashflow.db")
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.Slot("s").Write(context.Background(), []byte("[]")); err != nil {
		t.Fatalf("write: %v", err)
	}
	store.Close()

	// Migrations must be idempotent across restarts
	store, err = NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer store.Close()
	got, err := store.Slot("s").Read(context.Background())
	if err != nil || string(got) != "[]" {
		t.Fatalf("unexpected value after reopen: %q err=%v", got, err)
	}
}
