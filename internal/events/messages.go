package events

import (
	"encoding/json"
	"time"
)

// ExpenseLoggedMessage carries the full expense payload so the export
// worker can append a row without sharing the ledger's storage backend.
type ExpenseLoggedMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Amount    string    `json:"amount"`
	Date      string    `json:"date"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseLoggedMessage stamps a message with the current time.
func NewExpenseLoggedMessage(id, name, category, amount, date string) *ExpenseLoggedMessage {
	return &ExpenseLoggedMessage{
		ID:        id,
		Name:      name,
		Category:  category,
		Amount:    amount,
		Date:      date,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *ExpenseLoggedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseLoggedMessageFromJSON parses a message from JSON bytes.
func ExpenseLoggedMessageFromJSON(data []byte) (*ExpenseLoggedMessage, error) {
	var msg ExpenseLoggedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
