// Package storage provides the named persistence slots the ledger is
// mirrored to. A slot holds one opaque serialized value.
package storage

import (
	"context"
	"errors"
)

// DefaultSlotName is the slot the ledger is persisted under.
const DefaultSlotName = "cashflow-transactions"

var ErrSlotEmpty = errors.New("slot is empty")

// Slot is a single named, string-keyed storage cell.
type Slot interface {
	Name() string
	// Read returns the stored value, or ErrSlotEmpty if nothing was written yet.
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}
