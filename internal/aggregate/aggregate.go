// Package aggregate derives read-only views from a ledger snapshot.
//
// Every function here is pure: the same transactions and parameters always
// produce the same result, and a missing (date, category) pair counts as 0.
package aggregate

import (
	"strings"
	"time"

	"cashflow/internal/core"

	"github.com/shopspring/decimal"
)

// Index maps (date, category) to the stored amount. Build it once per
// snapshot and query it as often as needed.
type Index map[core.Key]decimal.Decimal

// NewIndex indexes transactions by their natural key.
func NewIndex(txs []core.Transaction) Index {
	ix := make(Index, len(txs))
	for _, t := range txs {
		ix[t.Key()] = t.Amount
	}
	return ix
}

// ValueFor returns the amount stored at (date, category), or 0.
func (ix Index) ValueFor(date, category string) decimal.Decimal {
	if v, ok := ix[core.Key{Date: date, Category: category}]; ok {
		return v
	}
	return decimal.Zero
}

// FilterByMonth returns the transactions whose date falls in year/month.
// Input order is preserved.
func FilterByMonth(txs []core.Transaction, year int, month time.Month) []core.Transaction {
	prefix := core.MonthPrefix(year, month) + "-"
	var out []core.Transaction
	for _, t := range txs {
		if strings.HasPrefix(t.Date, prefix) {
			out = append(out, t)
		}
	}
	return out
}

// DailyTotal sums the given categories on one calendar day.
func DailyTotal(ix Index, year int, month time.Month, day int, categories []string) decimal.Decimal {
	date := core.DayString(year, month, day)
	sum := decimal.Zero
	for _, c := range categories {
		sum = sum.Add(ix.ValueFor(date, c))
	}
	return sum
}

// DailySeries returns one DailyTotal per day of the month, day 1 first.
func DailySeries(ix Index, year int, month time.Month, categories []string) []decimal.Decimal {
	days := core.DaysIn(year, month)
	series := make([]decimal.Decimal, days)
	for d := 1; d <= days; d++ {
		series[d-1] = DailyTotal(ix, year, month, d, categories)
	}
	return series
}

// NetSeries returns inflow[i] - outflow[i]. The shorter series is padded
// with zeros.
func NetSeries(inflow, outflow []decimal.Decimal) []decimal.Decimal {
	n := max(len(inflow), len(outflow))
	net := make([]decimal.Decimal, n)
	for i := range net {
		net[i] = at(inflow, i).Sub(at(outflow, i))
	}
	return net
}

// PeriodTotal sums series[start:end]. Indices are clamped to the series, so
// an out-of-range period yields 0 rather than a panic.
func PeriodTotal(series []decimal.Decimal, start, end int) decimal.Decimal {
	start = clamp(start, 0, len(series))
	end = clamp(end, 0, len(series))
	sum := decimal.Zero
	for i := start; i < end; i++ {
		sum = sum.Add(series[i])
	}
	return sum
}

// RunningBalance returns the prefix sums of net: balance[i] is the sum of
// net[0..i]. Each call starts from 0.
func RunningBalance(net []decimal.Decimal) []decimal.Decimal {
	balance := make([]decimal.Decimal, len(net))
	acc := decimal.Zero
	for i, v := range net {
		acc = acc.Add(v)
		balance[i] = acc
	}
	return balance
}

// BalanceAt reads balance[i], clamping i to the last element. Negative
// indices and empty series read as 0.
func BalanceAt(balance []decimal.Decimal, i int) decimal.Decimal {
	if len(balance) == 0 || i < 0 {
		return decimal.Zero
	}
	if i >= len(balance) {
		i = len(balance) - 1
	}
	return balance[i]
}

// Total sums the amounts of txs.
func Total(txs []core.Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range txs {
		sum = sum.Add(t.Amount)
	}
	return sum
}

func at(series []decimal.Decimal, i int) decimal.Decimal {
	if i < len(series) {
		return series[i]
	}
	return decimal.Zero
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
