package backend

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	applog "cashflow/internal/log"
	"cashflow/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger.With(applog.FieldComponent, applog.ComponentBackend),
	}
}

// Create implements Factory.Create
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLite(ctx, config)
	case FileBackend:
		return f.createFile(ctx, config)
	case MemoryBackend:
		return f.createMemory(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLite(ctx context.Context, config Config) (*Result, error) {
	db, err := storage.NewSQLiteStore(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"slot", config.SlotName)

	return &Result{
		Slot:    db.Slot(config.SlotName),
		Ready:   db.Ping,
		Cleanup: db.Close,
	}, nil
}

func (f *DefaultFactory) createFile(ctx context.Context, config Config) (*Result, error) {
	if err := os.MkdirAll(config.DataDirectory, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	slot := storage.NewFileSlot(config.DataDirectory, config.SlotName)

	f.logger.InfoContext(ctx, "Initialized file backend",
		"path", slot.Path(),
		"slot", config.SlotName)

	return &Result{
		Slot: slot,
		Ready: func(context.Context) error {
			_, err := os.Stat(config.DataDirectory)
			return err
		},
		Cleanup: noCleanup,
	}, nil
}

func (f *DefaultFactory) createMemory(ctx context.Context, config Config) (*Result, error) {
	f.logger.WarnContext(ctx, "Initialized memory backend, data is lost on restart",
		"slot", config.SlotName)

	return &Result{
		Slot:    storage.NewMemorySlot(config.SlotName),
		Ready:   func(context.Context) error { return nil },
		Cleanup: noCleanup,
	}, nil
}

func noCleanup() error { return nil }
