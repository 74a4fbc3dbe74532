package google

import (
	"fmt"
	"strings"
	"time"

	"cashflow/internal/aggregate"
	"cashflow/internal/core"

	"github.com/shopspring/decimal"
)

// tableRows is header + 12 months + total.
const tableRows = 14

var (
	summaryHeader = []string{"الشهر", "إجمالي الدخل", "إجمالي المصروفات", "صافي التدفق"}
	totalLabel    = "الإجمالي"
)

// summaryValues renders the yearly table the way the monthly view shows it.
// Amounts are written as decimal strings so no precision is lost.
func summaryValues(summaries [12]aggregate.MonthSummary) [][]interface{} {
	rows := make([][]interface{}, 0, tableRows)

	header := make([]interface{}, len(summaryHeader))
	for i, h := range summaryHeader {
		header[i] = h
	}
	rows = append(rows, header)

	for i, s := range summaries {
		rows = append(rows, summaryRow(core.MonthNames[i], s))
	}
	return append(rows, summaryRow(totalLabel, aggregate.YearTotals(summaries)))
}

func summaryRow(label string, s aggregate.MonthSummary) []interface{} {
	return []interface{}{
		label,
		s.TotalIncome.String(),
		s.TotalExpenses.String(),
		s.NetCashFlow.String(),
	}
}

// parseSummary reads a table written by summaryValues. The total row is
// ignored since it is derived.
func parseSummary(values [][]interface{}) ([12]aggregate.MonthSummary, error) {
	var out [12]aggregate.MonthSummary
	if len(values) < 13 {
		return out, fmt.Errorf("expected at least 13 rows, got %d", len(values))
	}
	headers := toStrings(values[0])
	if len(headers) < len(summaryHeader) || headers[0] != summaryHeader[0] {
		return out, fmt.Errorf("unexpected summary header: got headers=%v", headers)
	}

	for i := range out {
		row := toStrings(values[i+1])
		if strings.TrimSpace(safeGet(row, 0)) != core.MonthNames[i] {
			return out, fmt.Errorf("row %d: expected month %s, got %q", i+2, core.MonthNames[i], safeGet(row, 0))
		}
		var err error
		s := aggregate.MonthSummary{Month: time.Month(i + 1)}
		if s.TotalIncome, err = parseCell(safeGet(row, 1)); err != nil {
			return out, fmt.Errorf("row %d income: %w", i+2, err)
		}
		if s.TotalExpenses, err = parseCell(safeGet(row, 2)); err != nil {
			return out, fmt.Errorf("row %d expenses: %w", i+2, err)
		}
		if s.NetCashFlow, err = parseCell(safeGet(row, 3)); err != nil {
			return out, fmt.Errorf("row %d net: %w", i+2, err)
		}
		out[i] = s
	}
	return out, nil
}

// parseCell accepts the sheet's rendering of an amount; empty cells are 0.
func parseCell(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return core.ParseDecimal(s)
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx >= 0 && idx < len(arr) {
		return arr[idx]
	}
	return ""
}
