package amqp

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// CellChangedMessage announces one committed ledger edit. Consumers
// re-read the ledger from its slot; the message only says what moved.
type CellChangedMessage struct {
	Date      string      `json:"date"`
	Category  string      `json:"category"`
	Amount    json.Number `json:"amount"`
	Change    string      `json:"change"`
	Version   uint64      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewCellChangedMessage creates a message stamped with the current time.
func NewCellChangedMessage(date, category, amount, change string, version uint64) *CellChangedMessage {
	return &CellChangedMessage{
		Date:      date,
		Category:  category,
		Amount:    json.Number(amount),
		Change:    change,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// Year returns the calendar year of the changed cell.
func (m *CellChangedMessage) Year() (int, error) {
	if len(m.Date) < 4 {
		return 0, fmt.Errorf("invalid date %q", m.Date)
	}
	y, err := strconv.Atoi(m.Date[:4])
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", m.Date, err)
	}
	return y, nil
}

// ToJSON converts the message to JSON bytes
func (m *CellChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// CellChangedMessageFromJSON creates a message from JSON bytes
func CellChangedMessageFromJSON(data []byte) (*CellChangedMessage, error) {
	var msg CellChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Date == "" {
		return nil, fmt.Errorf("message has no date")
	}
	return &msg, nil
}
