package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDateParse(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2024-01-05", true},
		{"2024-12-31", true},
		{"2024-13-01", false},
		{"not-a-date", false},
		{"", false},
	}
	for i, tc := range cases {
		_, err := ParseDate(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2024, 1, 5)
	b, err := d.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2024-01-05"` {
		t.Fatalf("unexpected encoding %s", b)
	}
	var back Date
	if err := back.UnmarshalJSON(b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(d) {
		t.Fatalf("round trip mismatch: %s != %s", back, d)
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Name:     "Coffee",
		Category: "Food",
		Amount:   decimal.NewFromFloat(4.50),
		Date:     NewDate(2024, 1, 5),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{Name: "", Category: "Food", Amount: decimal.NewFromInt(1), Date: NewDate(2024, 1, 5)},
		{Name: "   ", Category: "Food", Amount: decimal.NewFromInt(1), Date: NewDate(2024, 1, 5)},
		{Name: "Coffee", Category: "Food", Amount: decimal.Zero, Date: NewDate(2024, 1, 5)},
		{Name: "Coffee", Category: "Food", Amount: decimal.NewFromInt(-1), Date: NewDate(2024, 1, 5)},
		{Name: "Coffee", Category: "Food", Amount: decimal.NewFromInt(1)},
	}
	for i, e := range bads {
		err := e.Validate()
		if err == nil {
			t.Fatalf("case %d expected error", i)
		}
		if !IsValidation(err) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Name:      "Rent",
		AccountID: CheckingAccountID,
		Amount:    decimal.NewFromInt(-1200),
		Date:      NewDate(2024, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	zero := good
	zero.Amount = decimal.Zero
	if err := zero.Validate(); err == nil {
		t.Fatalf("expected error for zero amount")
	}
}

func TestNewStateSeed(t *testing.T) {
	st := NewState(decimal.NewFromInt(1000), decimal.NewFromInt(1200), decimal.NewFromInt(1500))
	acc := st.Account(CheckingAccountID)
	if acc == nil {
		t.Fatalf("missing checking account")
	}
	if !acc.Balance.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("unexpected balance %s", acc.Balance)
	}
	if len(st.Categories) != len(DefaultCategories()) {
		t.Fatalf("unexpected category seed %v", st.Categories)
	}
	if !st.HasCategory("Income") || st.HasCategory("income") {
		t.Fatalf("category matching must be case-sensitive")
	}
}

func TestNewIDUniquePerCall(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewID("txn")
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestCloneIsDeep(t *testing.T) {
	st := NewState(decimal.NewFromInt(100), decimal.Zero, decimal.Zero)
	cp := st.Clone()
	cp.Accounts[0].Balance = decimal.NewFromInt(0)
	cp.Categories[0] = "mutated"
	if !st.Accounts[0].Balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("clone shares account storage")
	}
	if st.Categories[0] == "mutated" {
		t.Fatalf("clone shares category storage")
	}
}
