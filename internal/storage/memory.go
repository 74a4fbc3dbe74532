package storage

import (
	"context"
	"sync"
)

// MemorySlot keeps its value in process memory.
type MemorySlot struct {
	mu    sync.Mutex
	name  string
	value []byte
	set   bool
}

func NewMemorySlot(name string) *MemorySlot {
	return &MemorySlot{name: name}
}

func (s *MemorySlot) Name() string { return s.name }

func (s *MemorySlot) Read(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return nil, ErrSlotEmpty
	}
	return append([]byte(nil), s.value...), nil
}

func (s *MemorySlot) Write(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = append([]byte(nil), data...)
	s.set = true
	return nil
}
