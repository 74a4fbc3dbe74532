package aggregate

import (
	"time"

	"cashflow/internal/core"

	"github.com/shopspring/decimal"
)

// decadeEnds are the last days of the first two decades; the third
// runs to the end of the month.
var decadeEnds = [2]int{10, 20}

// Row is one category line of the daily sheet.
type Row struct {
	Category string
	Flow     core.Flow
	Cells    []decimal.Decimal // Cells[d-1] is day d
	Total    decimal.Decimal
	// Known is false for categories outside the taxonomy that still hold
	// amounts this month.
	Known bool
}

// Decade is a subtotal over a run of days. FirstDay and LastDay are
// inclusive and 1-based.
type Decade struct {
	FirstDay int
	LastDay  int
	Inflow   decimal.Decimal
	Outflow  decimal.Decimal
	Net      decimal.Decimal
	// Balance is the running balance at LastDay.
	Balance decimal.Decimal
}

// Sheet is the full daily grid for one month.
type Sheet struct {
	Year     int
	Month    time.Month
	Days     int
	Inflows  []Row
	Outflows []Row

	Inflow  []decimal.Decimal
	Outflow []decimal.Decimal
	Net     []decimal.Decimal
	Balance []decimal.Decimal

	Decades [3]Decade

	TotalInflow  decimal.Decimal
	TotalOutflow decimal.Decimal
	TotalNet     decimal.Decimal
}

// DailySheet builds the month grid: a row for every configured category
// (empty rows included), the daily inflow, outflow and net series, the
// running balance and the three decade subtotals. The daily series sum the
// configured categories only. Unknown categories with amounts in the month
// are listed after the outflow rows, marked not Known, and stay out of the
// series and totals.
func DailySheet(txs []core.Transaction, tax *core.Taxonomy, year int, month time.Month) Sheet {
	monthTxs := FilterByMonth(txs, year, month)
	ix := NewIndex(monthTxs)
	days := core.DaysIn(year, month)

	inflowCats := tax.Categories(core.Inflow)
	outflowCats := tax.Categories(core.Outflow)
	rowCats := append(outflowCats[:len(outflowCats):len(outflowCats)], unknownCategories(monthTxs, tax)...)

	s := Sheet{
		Year:     year,
		Month:    month,
		Days:     days,
		Inflows:  buildRows(ix, tax, year, month, inflowCats),
		Outflows: buildRows(ix, tax, year, month, rowCats),
		Inflow:   DailySeries(ix, year, month, inflowCats),
		Outflow:  DailySeries(ix, year, month, outflowCats),
	}
	s.Net = NetSeries(s.Inflow, s.Outflow)
	s.Balance = RunningBalance(s.Net)

	bounds := [4]int{0, decadeEnds[0], decadeEnds[1], days}
	for i := range s.Decades {
		start, end := bounds[i], bounds[i+1]
		s.Decades[i] = Decade{
			FirstDay: start + 1,
			LastDay:  max(end, start+1),
			Inflow:   PeriodTotal(s.Inflow, start, end),
			Outflow:  PeriodTotal(s.Outflow, start, end),
			Net:      PeriodTotal(s.Net, start, end),
			Balance:  BalanceAt(s.Balance, end-1),
		}
	}

	s.TotalInflow = PeriodTotal(s.Inflow, 0, days)
	s.TotalOutflow = PeriodTotal(s.Outflow, 0, days)
	s.TotalNet = s.TotalInflow.Sub(s.TotalOutflow)
	return s
}

func buildRows(ix Index, tax *core.Taxonomy, year int, month time.Month, categories []string) []Row {
	days := core.DaysIn(year, month)
	rows := make([]Row, 0, len(categories))
	for _, c := range categories {
		row := Row{
			Category: c,
			Flow:     tax.FlowOf(c),
			Cells:    make([]decimal.Decimal, days),
			Total:    decimal.Zero,
			Known:    tax.Known(c),
		}
		for d := 1; d <= days; d++ {
			v := ix.ValueFor(core.DayString(year, month, d), c)
			row.Cells[d-1] = v
			row.Total = row.Total.Add(v)
		}
		rows = append(rows, row)
	}
	return rows
}

// unknownCategories lists, in first-seen order, categories of txs that the
// taxonomy does not know.
func unknownCategories(txs []core.Transaction, tax *core.Taxonomy) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range txs {
		if tax.Known(t.Category) || seen[t.Category] {
			continue
		}
		seen[t.Category] = true
		out = append(out, t.Category)
	}
	return out
}
