package backend

import (
	"context"
	"path/filepath"
	"testing"

	"cashflow/internal/config"
	"cashflow/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{DataBackend: "file", DataDir: "/tmp/x"}
	got, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Type != FileBackend || got.SlotName != storage.DefaultSlotName || got.DataDirectory != "/tmp/x" {
		t.Fatalf("unexpected backend config %+v", got)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

func TestFactoryCreate(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name   string
		config Config
	}{
		{"memory", Config{Type: MemoryBackend, SlotName: "ledger"}},
		{"file", Config{Type: FileBackend, SlotName: "ledger", DataDirectory: filepath.Join(dir, "files")}},
		{"sqlite", Config{Type: SQLiteBackend, SlotName: "ledger", SQLiteDBPath: filepath.Join(dir, "db", "cashflow.db")}},
	}

	f := NewFactory(nil)
	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.Create(ctx, tt.config)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer res.Cleanup()

			if err := res.Ready(ctx); err != nil {
				t.Fatalf("backend not ready: %v", err)
			}
			if res.Slot.Name() != "ledger" {
				t.Fatalf("unexpected slot name %q", res.Slot.Name())
			}
			if err := res.Slot.Write(ctx, []byte("[]")); err != nil {
				t.Fatalf("write failed: %v", err)
			}
			data, err := res.Slot.Read(ctx)
			if err != nil || string(data) != "[]" {
				t.Fatalf("unexpected read %q (%v)", data, err)
			}
		})
	}
}

func TestFactoryRejectsInvalidConfig(t *testing.T) {
	f := NewFactory(nil)
	invalid := []Config{
		{Type: "sheets", SlotName: "x"},
		{Type: MemoryBackend},
		{Type: FileBackend, SlotName: "x"},
		{Type: SQLiteBackend, SlotName: "x"},
	}
	for _, c := range invalid {
		if _, err := f.Create(context.Background(), c); err == nil {
			t.Fatalf("expected error for %+v", c)
		}
	}
}
