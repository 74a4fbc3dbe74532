package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the on-disk and on-wire format of transaction dates.
const DateLayout = "2006-01-02"

type (
	Date struct {
		time.Time
	}

	// Key is the natural composite key of a transaction.
	Key struct {
		Date     string
		Category string
	}

	Transaction struct {
		ID       string
		Date     string // YYYY-MM-DD
		Category string
		Amount   decimal.Decimal
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrEmptyCategory = errors.New("empty category")
)

// NewDate creates a new Date from year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// DaysIn returns the number of days of the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthPrefix returns the "YYYY-MM" prefix shared by every date of the month.
func MonthPrefix(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// DayString formats a day of the given month as YYYY-MM-DD.
func DayString(year int, month time.Month, day int) string {
	return fmt.Sprintf("%s-%02d", MonthPrefix(year, month), day)
}

// TransactionID derives the id of the transaction stored at (date, category).
func TransactionID(date, category string) string {
	return date + "-" + category
}

// NewTransaction builds a transaction whose id is consistent with its key.
func NewTransaction(date, category string, amount decimal.Decimal) Transaction {
	return Transaction{
		ID:       TransactionID(date, category),
		Date:     date,
		Category: category,
		Amount:   amount,
	}
}

func (t Transaction) Key() Key {
	return Key{Date: t.Date, Category: t.Category}
}

// ValidateCell checks that (date, category) addresses a ledger cell.
func ValidateCell(date, category string) error {
	if _, err := ParseDate(date); err != nil {
		return err
	}
	if strings.TrimSpace(category) == "" {
		return ErrEmptyCategory
	}
	return nil
}
