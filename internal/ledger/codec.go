package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"cashflow/internal/core"

	"github.com/shopspring/decimal"
)

var ErrMalformed = errors.New("malformed ledger data")

// record is the persisted shape of a transaction.
type record struct {
	ID       string      `json:"id"`
	Date     string      `json:"date"`
	Category string      `json:"category"`
	Amount   json.Number `json:"amount"`
}

// Encode serializes the ledger as a JSON array of {id, date, category, amount}.
func Encode(l Ledger) ([]byte, error) {
	records := make([]record, 0, len(l.txs))
	for _, t := range l.txs {
		records = append(records, record{
			ID:       t.ID,
			Date:     t.Date,
			Category: t.Category,
			Amount:   json.Number(t.Amount.String()),
		})
	}
	return json.Marshal(records)
}

// Decode parses data produced by Encode. Any entry that is not a well-formed
// transaction makes the whole payload malformed.
func Decode(data []byte) (Ledger, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return Ledger{}, fmt.Errorf("%w: not an array", ErrMalformed)
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Ledger{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	txs := make([]core.Transaction, 0, len(raw))
	for i, item := range raw {
		t, err := decodeRecord(item)
		if err != nil {
			return Ledger{}, fmt.Errorf("%w: entry %d: %v", ErrMalformed, i, err)
		}
		txs = append(txs, t)
	}
	return New(txs...), nil
}

func decodeRecord(item json.RawMessage) (core.Transaction, error) {
	item = bytes.TrimSpace(item)
	if len(item) == 0 || item[0] != '{' {
		return core.Transaction{}, errors.New("not an object")
	}
	var r record
	if err := json.Unmarshal(item, &r); err != nil {
		return core.Transaction{}, err
	}
	if err := core.ValidateCell(r.Date, r.Category); err != nil {
		return core.Transaction{}, err
	}
	amount, err := decimal.NewFromString(r.Amount.String())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount %q: %w", r.Amount, core.ErrInvalidAmount)
	}
	return core.NewTransaction(r.Date, r.Category, amount), nil
}
