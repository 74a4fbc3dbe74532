package aggregate

import (
	"testing"
	"time"

	"cashflow/internal/core"
)

func TestMonthlySummaryEmptyLedger(t *testing.T) {
	got := MonthlySummary(nil, testTaxonomy(t), 2025)
	for i, s := range got {
		if s.Month != time.Month(i+1) {
			t.Fatalf("entry %d has month %v", i, s.Month)
		}
		if !s.TotalIncome.IsZero() || !s.TotalExpenses.IsZero() || !s.NetCashFlow.IsZero() {
			t.Fatalf("expected zeros for %v, got %+v", s.Month, s)
		}
	}
	if HasData(got) {
		t.Fatalf("expected no data")
	}
}

func TestMonthlySummary(t *testing.T) {
	tax := testTaxonomy(t)
	txs := []core.Transaction{
		tx("2025-01-03", "Sales", 1000),
		tx("2025-01-20", "Rent", 300),
		tx("2025-01-21", "Unlisted", 50),
		tx("2025-03-01", "Loans", 200),
		tx("2024-01-03", "Sales", 9999),
		tx("2025-12-31", "Wages", 700),
	}
	got := MonthlySummary(txs, tax, 2025)

	tests := []struct {
		month                 time.Month
		income, expenses, net int64
	}{
		{time.January, 1000, 350, 650},
		{time.February, 0, 0, 0},
		{time.March, 200, 0, 200},
		{time.December, 0, 700, -700},
	}
	for _, tt := range tests {
		s := got[tt.month-1]
		if !s.TotalIncome.Equal(d(tt.income)) || !s.TotalExpenses.Equal(d(tt.expenses)) || !s.NetCashFlow.Equal(d(tt.net)) {
			t.Fatalf("%v: got %s/%s/%s, want %d/%d/%d", tt.month,
				s.TotalIncome, s.TotalExpenses, s.NetCashFlow, tt.income, tt.expenses, tt.net)
		}
	}

	total := YearTotals(got)
	if !total.TotalIncome.Equal(d(1200)) || !total.TotalExpenses.Equal(d(1050)) || !total.NetCashFlow.Equal(d(150)) {
		t.Fatalf("unexpected year totals: %+v", total)
	}
	if !HasData(got) {
		t.Fatalf("expected data")
	}
}

func TestYearMonth(t *testing.T) {
	tests := []struct {
		in    string
		year  int
		month time.Month
		ok    bool
	}{
		{"2025-07-14", 2025, time.July, true},
		{"2025-13-01", 0, 0, false},
		{"2025/07/14", 0, 0, false},
		{"bad", 0, 0, false},
	}
	for _, tt := range tests {
		y, m, ok := yearMonth(tt.in)
		if ok != tt.ok || y != tt.year || m != tt.month {
			t.Fatalf("yearMonth(%q) = %d, %v, %v", tt.in, y, m, ok)
		}
	}
}
