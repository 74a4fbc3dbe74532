package memory

import (
	"context"
	"errors"
	"testing"

	"cashflow/internal/aggregate"

	"github.com/shopspring/decimal"
)

func TestStoreExportAndRead(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	if _, ok, _ := s.ReadSummary(ctx, 2025); ok {
		t.Fatal("expected no summary before export")
	}

	var summaries [12]aggregate.MonthSummary
	summaries[0].TotalIncome = decimal.NewFromInt(10)
	if err := s.ExportSummary(ctx, 2025, summaries); err != nil {
		t.Fatalf("ExportSummary() error = %v", err)
	}

	got, ok, err := s.ReadSummary(ctx, 2025)
	if err != nil || !ok || !got[0].TotalIncome.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected read %+v %v %v", got[0], ok, err)
	}
	if s.Exports() != 1 {
		t.Fatalf("expected 1 export, got %d", s.Exports())
	}
}

func TestStoreFailWith(t *testing.T) {
	s := NewStore()
	boom := errors.New("quota")
	s.FailWith(boom)
	if err := s.ExportSummary(context.Background(), 2025, [12]aggregate.MonthSummary{}); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	s.FailWith(nil)
	if err := s.ExportSummary(context.Background(), 2025, [12]aggregate.MonthSummary{}); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}
