package ledger

import (
	"errors"
	"strings"
	"testing"

	"cashflow/internal/core"
)

func TestEncodeWritesNumbers(t *testing.T) {
	l := New(core.NewTransaction("2025-01-05", "Rent", amt("12.50")))
	data, err := Encode(l)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `[{"id":"2025-01-05-Rent","date":"2025-01-05","category":"Rent","amount":12.5}]`
	if string(data) != want {
		t.Fatalf("got %s, want %s", data, want)
	}

	empty, err := Encode(Ledger{})
	if err != nil || string(empty) != "[]" {
		t.Fatalf("expected [] for empty ledger, got %s (%v)", empty, err)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	l := New(
		core.NewTransaction("2025-01-05", "مبيعات نقدية", amt("1000")),
		core.NewTransaction("2025-01-05", "إيجار", amt("-400.25")),
	)
	data, err := Encode(l)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(l) {
		t.Fatalf("round trip changed the ledger")
	}
}

func TestDecodeNormalizes(t *testing.T) {
	data := `[
		{"id":"wrong","date":"2025-01-01","category":"A","amount":1},
		{"id":"x","date":"2025-01-01","category":"A","amount":5},
		{"id":"z","date":"2025-01-02","category":"B","amount":0}
	]`
	l, err := Decode([]byte(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Len() != 1 {
		t.Fatalf("expected one transaction, got %d", l.Len())
	}
	tx, _ := l.Lookup("2025-01-01", "A")
	if tx.ID != "2025-01-01-A" || !tx.Amount.Equal(amt("5")) {
		t.Fatalf("unexpected transaction %+v", tx)
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := map[string]string{
		"empty":          "",
		"object":         `{"id":"x"}`,
		"not json":       `[{`,
		"non-object":     `[1, 2]`,
		"bad date":       `[{"id":"x","date":"2025-13-01","category":"A","amount":1}]`,
		"empty category": `[{"id":"x","date":"2025-01-01","category":" ","amount":1}]`,
		"bad amount":     `[{"id":"x","date":"2025-01-01","category":"A","amount":"abc"}]`,
		"one bad entry":  `[{"id":"x","date":"2025-01-01","category":"A","amount":1}, null]`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(data))
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestDecodeEmptyArray(t *testing.T) {
	l, err := Decode([]byte(strings.TrimSpace("  []  ")))
	if err != nil || l.Len() != 0 {
		t.Fatalf("expected empty ledger, got %d (%v)", l.Len(), err)
	}
}
