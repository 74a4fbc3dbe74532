package http

import (
	"encoding/json"
	"time"

	"cashflow/internal/aggregate"
	"cashflow/internal/core"

	"github.com/shopspring/decimal"
)

// Wire representations of the aggregate views. Amounts are JSON numbers
// carrying the exact decimal text.

type rowView struct {
	Category string        `json:"category"`
	Flow     string        `json:"flow"`
	Known    bool          `json:"known"`
	Cells    []json.Number `json:"cells"`
	Total    json.Number   `json:"total"`
}

type decadeView struct {
	FirstDay int         `json:"firstDay"`
	LastDay  int         `json:"lastDay"`
	Inflow   json.Number `json:"inflow"`
	Outflow  json.Number `json:"outflow"`
	Net      json.Number `json:"net"`
	Balance  json.Number `json:"balance"`
}

type dailyView struct {
	Year     int           `json:"year"`
	Month    int           `json:"month"`
	Days     int           `json:"days"`
	Inflows  []rowView     `json:"inflows"`
	Outflows []rowView     `json:"outflows"`
	Inflow   []json.Number `json:"inflow"`
	Outflow  []json.Number `json:"outflow"`
	Net      []json.Number `json:"net"`
	Balance  []json.Number `json:"balance"`
	Decades  []decadeView  `json:"decades"`
	Totals   totalsView    `json:"totals"`
}

type totalsView struct {
	Inflow  json.Number `json:"inflow"`
	Outflow json.Number `json:"outflow"`
	Net     json.Number `json:"net"`
}

type monthView struct {
	Month         int         `json:"month"`
	Name          string      `json:"name,omitempty"`
	TotalIncome   json.Number `json:"totalIncome"`
	TotalExpenses json.Number `json:"totalExpenses"`
	NetCashFlow   json.Number `json:"netCashFlow"`
}

type monthlyView struct {
	Year    int         `json:"year"`
	Months  []monthView `json:"months"`
	Totals  monthView   `json:"totals"`
	HasData bool        `json:"hasData"`
}

type transactionView struct {
	ID       string      `json:"id"`
	Date     string      `json:"date"`
	Category string      `json:"category"`
	Amount   json.Number `json:"amount"`
}

type transactionsView struct {
	Inflows      []transactionView `json:"inflows"`
	Outflows     []transactionView `json:"outflows"`
	TotalInflow  json.Number       `json:"totalInflow"`
	TotalOutflow json.Number       `json:"totalOutflow"`
}

type categoriesView struct {
	Inflow  []string `json:"inflow"`
	Outflow []string `json:"outflow"`
}

type cellView struct {
	ID        string      `json:"id"`
	Date      string      `json:"date"`
	Category  string      `json:"category"`
	Amount    json.Number `json:"amount"`
	Change    string      `json:"change"`
	Version   uint64      `json:"version"`
	Persisted bool        `json:"persisted"`
}

func num(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func nums(ds []decimal.Decimal) []json.Number {
	out := make([]json.Number, len(ds))
	for i, d := range ds {
		out[i] = num(d)
	}
	return out
}

func newDailyView(s aggregate.Sheet) dailyView {
	v := dailyView{
		Year:     s.Year,
		Month:    int(s.Month),
		Days:     s.Days,
		Inflows:  rowViews(s.Inflows),
		Outflows: rowViews(s.Outflows),
		Inflow:   nums(s.Inflow),
		Outflow:  nums(s.Outflow),
		Net:      nums(s.Net),
		Balance:  nums(s.Balance),
		Decades:  make([]decadeView, 0, len(s.Decades)),
		Totals: totalsView{
			Inflow:  num(s.TotalInflow),
			Outflow: num(s.TotalOutflow),
			Net:     num(s.TotalNet),
		},
	}
	for _, d := range s.Decades {
		v.Decades = append(v.Decades, decadeView{
			FirstDay: d.FirstDay,
			LastDay:  d.LastDay,
			Inflow:   num(d.Inflow),
			Outflow:  num(d.Outflow),
			Net:      num(d.Net),
			Balance:  num(d.Balance),
		})
	}
	return v
}

func rowViews(rows []aggregate.Row) []rowView {
	out := make([]rowView, 0, len(rows))
	for _, r := range rows {
		out = append(out, rowView{
			Category: r.Category,
			Flow:     r.Flow.String(),
			Known:    r.Known,
			Cells:    nums(r.Cells),
			Total:    num(r.Total),
		})
	}
	return out
}

func newMonthView(m aggregate.MonthSummary) monthView {
	v := monthView{
		Month:         int(m.Month),
		TotalIncome:   num(m.TotalIncome),
		TotalExpenses: num(m.TotalExpenses),
		NetCashFlow:   num(m.NetCashFlow),
	}
	if m.Month >= time.January && m.Month <= time.December {
		v.Name = m.Month.String()
	}
	return v
}

func newMonthlyView(year int, summaries [12]aggregate.MonthSummary) monthlyView {
	v := monthlyView{
		Year:    year,
		Months:  make([]monthView, 0, len(summaries)),
		Totals:  newMonthView(aggregate.YearTotals(summaries)),
		HasData: aggregate.HasData(summaries),
	}
	for _, m := range summaries {
		v.Months = append(v.Months, newMonthView(m))
	}
	return v
}

func transactionViews(txs []core.Transaction) []transactionView {
	out := make([]transactionView, 0, len(txs))
	for _, t := range txs {
		out = append(out, transactionView{
			ID:       t.ID,
			Date:     t.Date,
			Category: t.Category,
			Amount:   num(t.Amount),
		})
	}
	return out
}

func newTransactionsView(inflows, outflows []core.Transaction) transactionsView {
	return transactionsView{
		Inflows:      transactionViews(inflows),
		Outflows:     transactionViews(outflows),
		TotalInflow:  num(aggregate.Total(inflows)),
		TotalOutflow: num(aggregate.Total(outflows)),
	}
}
