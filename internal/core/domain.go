package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckingAccountID is the identifier of the single primary account every
// fresh state starts with.
const CheckingAccountID = "acc_checking"

func init() {
	// Amounts go over the wire as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Severity grades how loudly an alert should be surfaced.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Alert kinds produced by ledger operations and the reminder processor.
const (
	KindExpenseLogged   = "expense_logged"
	KindRentPaid        = "rent_paid"
	KindPayrollPosted   = "payroll_posted"
	KindRentDueSoon     = "rent_due_soon"
	KindPayrollIncoming = "payroll_incoming"
	KindSpendUp         = "spend_up_month_over_month"
)

type (
	// Account is a named money pool. Its balance equals the configured base
	// balance plus the sum of all transaction amounts posted against it.
	Account struct {
		ID      string          `json:"id"`
		Name    string          `json:"name"`
		Kind    string          `json:"type"`
		Balance decimal.Decimal `json:"balance"`
	}

	// Transaction is one posted ledger entry. Negative amount = debit,
	// positive = credit. Immutable after creation.
	Transaction struct {
		ID        string          `json:"id"`
		AccountID string          `json:"account_id"`
		Name      string          `json:"name"`
		Amount    decimal.Decimal `json:"amount"`
		Date      Date            `json:"date"`
		Category  string          `json:"category,omitempty"`
	}

	// Expense is a discretionary spending record, always paired with a
	// mirrored debit transaction of the same magnitude.
	Expense struct {
		ID       string          `json:"id"`
		Name     string          `json:"name"`
		Category string          `json:"category"`
		Amount   decimal.Decimal `json:"amount"`
		Date     Date            `json:"date"`
	}

	// Alert is an append-only notice about a ledger event.
	Alert struct {
		ID        string          `json:"id"`
		TxnID     string          `json:"txn_id,omitempty"`
		Kind      string          `json:"kind"`
		Message   string          `json:"message"`
		Severity  Severity        `json:"severity"`
		Amount    decimal.Decimal `json:"amount"`
		Balance   decimal.Decimal `json:"balance"`
		CreatedAt time.Time       `json:"created_at"`
	}

	// Preferences holds the configured base checking balance and the
	// default rent/payroll autopay amounts.
	Preferences struct {
		CheckingBase decimal.Decimal `json:"checking"`
		Rent         decimal.Decimal `json:"rent"`
		Payroll      decimal.Decimal `json:"payroll"`
	}

	// State is the full ledger snapshot: one account set, append-ordered
	// transaction/expense/alert lists (most recent first), the de-duplicated
	// category set and the preferences record.
	State struct {
		Accounts     []Account     `json:"accounts"`
		Transactions []Transaction `json:"transactions"`
		Expenses     []Expense     `json:"expenses"`
		Alerts       []Alert       `json:"alerts"`
		Categories   []string      `json:"categories"`
		Prefs        Preferences   `json:"prefs"`
	}
)

var (
	ErrEmptyName       = errors.New("empty name")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrAccountNotFound = errors.New("account not found")
)

// IsValidation reports whether err is an input validation failure, as
// opposed to a missing-reference or infrastructure error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyName) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidDate)
}

// NewID returns a collection-scoped unique identifier such as "txn_8f14e45fce".
func NewID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// DefaultCategories returns the seed category set present after
// initialize/reset.
func DefaultCategories() []string {
	return []string{"Rent", "Groceries", "Transport", "Entertainment", "Utilities", "Subscriptions", "Health", "Income", "Other"}
}

// NewState builds a fresh ledger state: one checking account holding base,
// empty lists, the seed categories and the given autopay preferences.
func NewState(checkingBase, rent, payroll decimal.Decimal) *State {
	return &State{
		Accounts: []Account{{
			ID:      CheckingAccountID,
			Name:    "Checking",
			Kind:    "depository",
			Balance: checkingBase,
		}},
		Transactions: []Transaction{},
		Expenses:     []Expense{},
		Alerts:       []Alert{},
		Categories:   DefaultCategories(),
		Prefs: Preferences{
			CheckingBase: checkingBase,
			Rent:         rent,
			Payroll:      payroll,
		},
	}
}

// Account returns a pointer into the state's account slice, or nil.
func (s *State) Account(id string) *Account {
	for i := range s.Accounts {
		if s.Accounts[i].ID == id {
			return &s.Accounts[i]
		}
	}
	return nil
}

// HasCategory reports whether name is already in the category set
// (case-sensitive exact match).
func (s *State) HasCategory(name string) bool {
	for _, c := range s.Categories {
		if c == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe to hand to readers.
func (s *State) Clone() *State {
	return &State{
		Accounts:     append([]Account(nil), s.Accounts...),
		Transactions: append([]Transaction(nil), s.Transactions...),
		Expenses:     append([]Expense(nil), s.Expenses...),
		Alerts:       append([]Alert(nil), s.Alerts...),
		Categories:   append([]string(nil), s.Categories...),
		Prefs:        s.Prefs,
	}
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if t.Amount.IsZero() {
		return ErrInvalidAmount
	}
	return t.Date.Validate()
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return e.Date.Validate()
}
