// Package memory keeps exported summaries in process memory. It backs the
// worker's dry-run mode and tests.
package memory

import (
	"context"
	"sync"

	"cashflow/internal/aggregate"
	ports "cashflow/internal/sheets"
)

var (
	_ ports.SummaryExporter = (*Store)(nil)
	_ ports.SummaryReader   = (*Store)(nil)
)

// Store is an in-memory summary exporter.
type Store struct {
	mu      sync.Mutex
	years   map[int][12]aggregate.MonthSummary
	exports int
	err     error
}

func NewStore() *Store {
	return &Store{years: make(map[int][12]aggregate.MonthSummary)}
}

// FailWith makes every following export return err; nil restores success.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *Store) ExportSummary(_ context.Context, year int, summaries [12]aggregate.MonthSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.years[year] = summaries
	s.exports++
	return nil
}

func (s *Store) ReadSummary(_ context.Context, year int) ([12]aggregate.MonthSummary, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	summaries, ok := s.years[year]
	return summaries, ok, nil
}

// Exports returns the number of successful exports.
func (s *Store) Exports() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exports
}
