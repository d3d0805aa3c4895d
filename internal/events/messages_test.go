package events

import (
	"testing"
	"time"
)

func TestNewExpenseLoggedMessage(t *testing.T) {
	msg := NewExpenseLoggedMessage("exp_1", "Coffee", "Food", "4.5", "2024-01-05")

	if msg.ID != "exp_1" || msg.Name != "Coffee" || msg.Category != "Food" {
		t.Errorf("unexpected identity fields: %+v", msg)
	}
	if msg.Amount != "4.5" || msg.Date != "2024-01-05" {
		t.Errorf("unexpected payload fields: %+v", msg)
	}
	if msg.Timestamp.IsZero() || time.Since(msg.Timestamp) > time.Second {
		t.Errorf("Timestamp should be recent, got %v", msg.Timestamp)
	}
}

func TestExpenseLoggedMessageJSON(t *testing.T) {
	msg := &ExpenseLoggedMessage{
		ID:        "exp_1",
		Name:      "Coffee",
		Category:  "Food",
		Amount:    "4.5",
		Date:      "2024-01-05",
		Timestamp: time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC),
	}

	raw, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	parsed, err := ExpenseLoggedMessageFromJSON(raw)
	if err != nil {
		t.Fatalf("ExpenseLoggedMessageFromJSON() error = %v", err)
	}
	if parsed.ID != msg.ID || parsed.Amount != msg.Amount || !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("round trip mismatch: got %+v, want %+v", parsed, msg)
	}
}

func TestExpenseLoggedMessageInvalidJSON(t *testing.T) {
	if _, err := ExpenseLoggedMessageFromJSON([]byte(`{"timestamp": 42}`)); err == nil {
		t.Error("expected error for malformed payload")
	}
}
