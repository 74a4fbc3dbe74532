// Package core provides amount parsing utilities.
//
// Cell input is lenient: anything that is not a number clears the cell.
package core

import (
	"errors"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseDecimal parses a signed decimal string.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// surrounding whitespace. Thousands separators are not supported: a comma
// followed by exactly three digits after a nonzero integer part ("1,000")
// is rejected rather than read as a decimal comma.
//
// Examples:
//
//	ParseDecimal("12.34") -> 12.34, nil
//	ParseDecimal("-12,5") -> -12.5, nil
//	ParseDecimal("1.2.3") -> 0, ErrInvalidAmount
//	ParseDecimal("1,000") -> 0, ErrInvalidAmount
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if thousandsGrouped(s) {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	body := strings.TrimLeft(s, "+-")
	if len(s)-len(body) > 1 || body == "" || body == "." {
		return decimal.Zero, ErrInvalidAmount
	}
	dots := 0
	for _, r := range body {
		switch {
		case r == '.':
			dots++
		case !unicode.IsDigit(r) || r > unicode.MaxASCII:
			return decimal.Zero, ErrInvalidAmount
		}
	}
	if dots > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(s, "+"))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseAmount coerces user input to an amount. Malformed input yields zero,
// which the ledger treats as "clear this cell".
func ParseAmount(s string) decimal.Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// thousandsGrouped reports whether s looks like "1,000": the digits after
// its last comma are exactly three and the integer part is not zero.
func thousandsGrouped(s string) bool {
	i := strings.LastIndexByte(s, ',')
	if i < 0 || len(s)-i-1 != 3 {
		return false
	}
	intPart := strings.TrimLeft(s[:i], "+-")
	return strings.Trim(intPart, "0") != ""
}
