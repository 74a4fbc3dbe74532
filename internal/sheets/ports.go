package sheets

import (
	"context"

	"cashflow/internal/aggregate"
)

// Ports for outbound adapters.
type (
	// SummaryExporter mirrors a year's monthly summary somewhere outside
	// the ledger.
	SummaryExporter interface {
		ExportSummary(ctx context.Context, year int, summaries [12]aggregate.MonthSummary) error
	}

	// SummaryReader reads back a previously exported summary. ok is false
	// when nothing was exported for the year yet.
	SummaryReader interface {
		ReadSummary(ctx context.Context, year int) (summaries [12]aggregate.MonthSummary, ok bool, err error)
	}
)
