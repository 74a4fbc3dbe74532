// Package metrics defines the instrumentation points of the ledger service.
package metrics

import "time"

// Collector records ledger, persistence and export activity.
// Implementations can export metrics to various backends.
type Collector interface {
	// Ledger operations
	RecordUpsert(change string)
	RecordLedgerSize(size int)

	// Persistence slot
	RecordLoad(outcome string)
	RecordSave(success bool, duration time.Duration)

	// Change messages and export
	RecordPublish(success bool)
	RecordExport(success bool, duration time.Duration)

	// HTTP
	RecordRequest(route string, status int, duration time.Duration)
}

// Load outcomes.
const (
	LoadOK        = "ok"
	LoadEmpty     = "empty"
	LoadMalformed = "malformed"
	LoadError     = "error"
)

// NoOpCollector is the default collector when metrics are not needed.
type NoOpCollector struct{}

func (NoOpCollector) RecordUpsert(change string)                                    {}
func (NoOpCollector) RecordLedgerSize(size int)                                     {}
func (NoOpCollector) RecordLoad(outcome string)                                     {}
func (NoOpCollector) RecordSave(success bool, duration time.Duration)               {}
func (NoOpCollector) RecordPublish(success bool)                                    {}
func (NoOpCollector) RecordExport(success bool, duration time.Duration)             {}
func (NoOpCollector) RecordRequest(route string, status int, duration time.Duration) {}
