// Package backend turns configuration into the persistence slot the ledger
// is mirrored to.
package backend

import (
	"context"

	"cashflow/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// ReadyFunc reports whether the backend can currently serve reads and writes.
type ReadyFunc func(ctx context.Context) error

// Result contains the slot and its lifecycle hooks. Cleanup and Ready are
// never nil.
type Result struct {
	Slot    storage.Slot
	Ready   ReadyFunc
	Cleanup CleanupFunc
}

// Factory creates slots based on configuration
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for slot creation
type Config struct {
	Type     Type
	SlotName string

	// File backend
	DataDirectory string

	// SQLite backend
	SQLiteDBPath string
}

// Type represents the kind of persistence backend
type Type string

const (
	MemoryBackend Type = "memory"
	FileBackend   Type = "file"
	SQLiteBackend Type = "sqlite"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, FileBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
