// Package ledger holds the canonical transaction collection.
//
// A Ledger value is an immutable snapshot: every mutation goes through Upsert,
// which returns a new Ledger and leaves its input untouched.
package ledger

import (
	"cashflow/internal/core"

	"github.com/shopspring/decimal"
)

// Change describes what a single upsert did to the ledger.
type Change int

const (
	Unchanged Change = iota
	Created
	Updated
	Deleted
)

func (c Change) String() string {
	switch c {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Deleted:
		return "deleted"
	default:
		return "unchanged"
	}
}

// Ledger is an unordered set of transactions, unique on (date, category).
type Ledger struct {
	txs []core.Transaction
}

// New builds a ledger from arbitrary transactions. Later duplicates of a
// (date, category) pair win, zero amounts are dropped and ids are re-derived.
func New(txs ...core.Transaction) Ledger {
	var l Ledger
	for _, t := range txs {
		l, _ = Apply(l, t.Date, t.Category, t.Amount)
	}
	return l
}

// Len returns the number of transactions.
func (l Ledger) Len() int {
	return len(l.txs)
}

// Transactions returns a copy of the snapshot's transactions.
func (l Ledger) Transactions() []core.Transaction {
	return append([]core.Transaction(nil), l.txs...)
}

// Lookup returns the transaction stored at (date, category).
func (l Ledger) Lookup(date, category string) (core.Transaction, bool) {
	if i := l.indexOf(date, category); i >= 0 {
		return l.txs[i], true
	}
	return core.Transaction{}, false
}

// Equal reports order-independent equality of two ledgers.
func (l Ledger) Equal(other Ledger) bool {
	if len(l.txs) != len(other.txs) {
		return false
	}
	byKey := make(map[core.Key]core.Transaction, len(l.txs))
	for _, t := range l.txs {
		byKey[t.Key()] = t
	}
	for _, o := range other.txs {
		t, ok := byKey[o.Key()]
		if !ok || t.ID != o.ID || !t.Amount.Equal(o.Amount) {
			return false
		}
	}
	return true
}

func (l Ledger) indexOf(date, category string) int {
	for i, t := range l.txs {
		if t.Date == date && t.Category == category {
			return i
		}
	}
	return -1
}

// Upsert sets the amount stored at (date, category). A zero amount removes
// the entry; a zero amount on an empty cell returns the ledger unchanged.
func Upsert(l Ledger, date, category string, amount decimal.Decimal) Ledger {
	next, _ := Apply(l, date, category, amount)
	return next
}

// Apply is Upsert that also reports the kind of change performed.
func Apply(l Ledger, date, category string, amount decimal.Decimal) (Ledger, Change) {
	i := l.indexOf(date, category)
	switch {
	case i >= 0 && amount.IsZero():
		next := make([]core.Transaction, 0, len(l.txs)-1)
		next = append(next, l.txs[:i]...)
		next = append(next, l.txs[i+1:]...)
		return Ledger{txs: next}, Deleted
	case i >= 0:
		if l.txs[i].Amount.Equal(amount) {
			return l, Unchanged
		}
		next := l.Transactions()
		next[i].Amount = amount
		return Ledger{txs: next}, Updated
	case !amount.IsZero():
		next := make([]core.Transaction, 0, len(l.txs)+1)
		next = append(next, l.txs...)
		next = append(next, core.NewTransaction(date, category, amount))
		return Ledger{txs: next}, Created
	default:
		return l, Unchanged
	}
}
