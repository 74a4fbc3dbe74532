package aggregate

import (
	"strconv"
	"time"

	"cashflow/internal/core"

	"github.com/shopspring/decimal"
)

// MonthSummary is one row of the yearly table.
type MonthSummary struct {
	Month         time.Month
	TotalIncome   decimal.Decimal
	TotalExpenses decimal.Decimal
	NetCashFlow   decimal.Decimal
}

// MonthlySummary returns twelve summaries for year, January first. Months
// without transactions are all zeros. Categories the taxonomy does not know
// count as expenses.
func MonthlySummary(txs []core.Transaction, tax *core.Taxonomy, year int) [12]MonthSummary {
	var out [12]MonthSummary
	for i := range out {
		out[i] = MonthSummary{
			Month:         time.Month(i + 1),
			TotalIncome:   decimal.Zero,
			TotalExpenses: decimal.Zero,
		}
	}

	for _, t := range txs {
		y, m, ok := yearMonth(t.Date)
		if !ok || y != year {
			continue
		}
		s := &out[m-1]
		if tax.FlowOf(t.Category) == core.Inflow {
			s.TotalIncome = s.TotalIncome.Add(t.Amount)
		} else {
			s.TotalExpenses = s.TotalExpenses.Add(t.Amount)
		}
	}

	for i := range out {
		out[i].NetCashFlow = out[i].TotalIncome.Sub(out[i].TotalExpenses)
	}
	return out
}

// YearTotals sums the twelve monthly summaries. Month is left zero.
func YearTotals(summaries [12]MonthSummary) MonthSummary {
	total := MonthSummary{
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
		NetCashFlow:   decimal.Zero,
	}
	for _, s := range summaries {
		total.TotalIncome = total.TotalIncome.Add(s.TotalIncome)
		total.TotalExpenses = total.TotalExpenses.Add(s.TotalExpenses)
		total.NetCashFlow = total.NetCashFlow.Add(s.NetCashFlow)
	}
	return total
}

// HasData reports whether any month has a nonzero income or expense.
func HasData(summaries [12]MonthSummary) bool {
	for _, s := range summaries {
		if !s.TotalIncome.IsZero() || !s.TotalExpenses.IsZero() {
			return true
		}
	}
	return false
}

// yearMonth reads the year and month of a YYYY-MM-DD date without a full
// parse; ledger dates are validated on the way in.
func yearMonth(date string) (int, time.Month, bool) {
	if len(date) < 7 || date[4] != '-' {
		return 0, 0, false
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0, 0, false
	}
	m, err := strconv.Atoi(date[5:7])
	if err != nil || m < 1 || m > 12 {
		return 0, 0, false
	}
	return y, time.Month(m), true
}
