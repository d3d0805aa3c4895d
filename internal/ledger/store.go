// Package ledger implements the ledger-state core: one store owning the
// account set, transaction/expense/alert lists, category set and autopay
// preferences, with mutation-serialized operations that keep balance
// derivations consistent.
package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"pennyjar/internal/core"
	"pennyjar/internal/log"
	"pennyjar/internal/storage"
)

// Store is the aggregate root. Every mutating operation runs under one
// mutex: a balance update and its paired transaction append are never
// observable separately. Readers get deep-copied snapshots.
//
// The in-memory state is authoritative; the backend receives a full
// snapshot after each mutation. A failed save is logged but does not roll
// back the in-memory mutation.
type Store struct {
	mu      sync.Mutex
	state   *core.State
	backend storage.Backend
	logger  *log.Logger
}

// Open loads existing state from the backend, or starts from a fresh
// zero-balance state when nothing has been persisted yet.
func Open(ctx context.Context, backend storage.Backend, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentLedger)
	}
	st, found, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger state: %w", err)
	}
	if !found {
		st = core.NewState(decimal.Zero, decimal.Zero, decimal.Zero)
	}
	return &Store{state: st, backend: backend, logger: logger}, nil
}

// Initialize replaces the whole store with fresh state: one checking
// account at checkingBase, empty lists, the seed category set and the
// given autopay preferences. Always yields the same fresh shape.
func (s *Store) Initialize(ctx context.Context, checkingBase, rent, payroll decimal.Decimal) *core.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = core.NewState(checkingBase.Round(2), rent.Round(2), payroll.Round(2))
	s.persist(ctx)
	s.logger.InfoContext(ctx, "Ledger initialized",
		"checking", checkingBase.String(), "rent", rent.String(), "payroll", payroll.String())
	return s.state.Clone()
}

// Reset wipes everything back to zero balances and the default category
// seed, returning the user to the setup flow.
func (s *Store) Reset(ctx context.Context) *core.State {
	return s.Initialize(ctx, decimal.Zero, decimal.Zero, decimal.Zero)
}

// PostTransaction appends a transaction at the head of the ledger and
// applies its amount to the target account balance in the same step.
// An empty accountID targets the checking account.
func (s *Store) PostTransaction(ctx context.Context, name string, amount decimal.Decimal, date core.Date, category, accountID string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn, err := s.postTransactionLocked(name, amount, date, category, accountID)
	if err != nil {
		return core.Transaction{}, err
	}
	s.persist(ctx)
	return txn, nil
}

// postTransactionLocked validates and applies a transaction. Callers hold
// the mutex and are responsible for persisting.
func (s *Store) postTransactionLocked(name string, amount decimal.Decimal, date core.Date, category, accountID string) (core.Transaction, error) {
	if accountID == "" {
		accountID = core.CheckingAccountID
	}
	txn := core.Transaction{
		ID:        core.NewID("txn"),
		AccountID: accountID,
		Name:      strings.TrimSpace(name),
		Amount:    amount.Round(2),
		Date:      date,
		Category:  category,
	}
	if err := txn.Validate(); err != nil {
		return core.Transaction{}, err
	}
	acc := s.state.Account(accountID)
	if acc == nil {
		return core.Transaction{}, fmt.Errorf("%w: %s", core.ErrAccountNotFound, accountID)
	}

	s.state.Transactions = append([]core.Transaction{txn}, s.state.Transactions...)
	acc.Balance = acc.Balance.Add(txn.Amount)
	return txn, nil
}

// LogExpense records a discretionary spend: the expense itself, its
// mirrored debit transaction, the category (added if new) and a
// low-severity alert. All-or-nothing: validation failures leave the store
// untouched. Returns the expense and the created transaction.
func (s *Store) LogExpense(ctx context.Context, name, category string, amount decimal.Decimal, date core.Date) (core.Expense, core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	category = strings.TrimSpace(category)
	if category == "" {
		category = "Other"
	}
	exp := core.Expense{
		ID:       core.NewID("exp"),
		Name:     strings.TrimSpace(name),
		Category: category,
		Amount:   amount.Abs().Round(2),
		Date:     date,
	}
	if err := exp.Validate(); err != nil {
		return core.Expense{}, core.Transaction{}, err
	}
	if !amount.IsPositive() {
		return core.Expense{}, core.Transaction{}, core.ErrInvalidAmount
	}

	txn, err := s.postTransactionLocked(exp.Name, exp.Amount.Neg(), date, category, core.CheckingAccountID)
	if err != nil {
		return core.Expense{}, core.Transaction{}, err
	}

	s.state.Expenses = append([]core.Expense{exp}, s.state.Expenses...)
	s.ensureCategoryLocked(category)
	s.appendAlertLocked(core.Alert{
		TxnID:    txn.ID,
		Kind:     core.KindExpenseLogged,
		Message:  fmt.Sprintf("Logged %s (-$%s)", exp.Name, wholeDollars(exp.Amount)),
		Severity: core.SeverityLow,
		Amount:   txn.Amount,
		Balance:  s.checkingBalanceLocked(),
	})

	s.persist(ctx)
	s.logger.InfoContext(ctx, "Expense logged",
		log.FieldExpenseName, exp.Name,
		log.FieldCategory, exp.Category,
		log.FieldAmount, exp.Amount.String(),
		log.FieldDate, exp.Date.String())
	return exp, txn, nil
}

// MarkRentPaid posts the rent autopay: a mirrored expense, a debit
// transaction under "Rent" and a medium alert. The amount defaults to the
// rent preference; zero with no override is a no-op.
func (s *Store) MarkRentPaid(ctx context.Context, date core.Date, override *decimal.Decimal) (*core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	amount := s.state.Prefs.Rent
	if override != nil {
		amount = *override
	}
	amount = amount.Abs().Round(2)
	if amount.IsZero() {
		return nil, nil // nothing to pay
	}
	if err := date.Validate(); err != nil {
		return nil, err
	}

	txn, err := s.postTransactionLocked("Rent", amount.Neg(), date, "Rent", core.CheckingAccountID)
	if err != nil {
		return nil, err
	}
	s.state.Expenses = append([]core.Expense{{
		ID:       core.NewID("exp"),
		Name:     "Rent",
		Category: "Rent",
		Amount:   amount,
		Date:     date,
	}}, s.state.Expenses...)
	s.ensureCategoryLocked("Rent")
	s.appendAlertLocked(core.Alert{
		TxnID:    txn.ID,
		Kind:     core.KindRentPaid,
		Message:  fmt.Sprintf("Rent paid (-$%s)", wholeDollars(amount)),
		Severity: core.SeverityMedium,
		Amount:   txn.Amount,
		Balance:  s.checkingBalanceLocked(),
	})

	s.persist(ctx)
	s.logger.InfoContext(ctx, "Rent marked paid",
		log.FieldAmount, amount.String(), log.FieldDate, date.String())
	return &txn, nil
}

// MarkPayrollDeposited posts the payroll autopay: a credit transaction
// under "Income" and a low alert. Zero amount with no override is a no-op.
func (s *Store) MarkPayrollDeposited(ctx context.Context, date core.Date, override *decimal.Decimal) (*core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	amount := s.state.Prefs.Payroll
	if override != nil {
		amount = *override
	}
	amount = amount.Abs().Round(2)
	if amount.IsZero() {
		return nil, nil
	}
	if err := date.Validate(); err != nil {
		return nil, err
	}

	txn, err := s.postTransactionLocked("Payroll", amount, date, "Income", core.CheckingAccountID)
	if err != nil {
		return nil, err
	}
	s.ensureCategoryLocked("Income")
	s.appendAlertLocked(core.Alert{
		TxnID:    txn.ID,
		Kind:     core.KindPayrollPosted,
		Message:  fmt.Sprintf("Payroll deposited (+$%s)", wholeDollars(amount)),
		Severity: core.SeverityLow,
		Amount:   txn.Amount,
		Balance:  s.checkingBalanceLocked(),
	})

	s.persist(ctx)
	s.logger.InfoContext(ctx, "Payroll marked deposited",
		log.FieldAmount, amount.String(), log.FieldDate, date.String())
	return &txn, nil
}

// SetCheckingBalance replaces the checking balance and its recorded base
// outright. This is a deliberate override, not an adjustment transaction.
func (s *Store) SetCheckingBalance(ctx context.Context, balance decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance = balance.Round(2)
	s.state.Prefs.CheckingBase = balance
	if acc := s.state.Account(core.CheckingAccountID); acc != nil {
		acc.Balance = balance
	}
	s.persist(ctx)
}

// SetRentAmount sets the monthly rent preference used by MarkRentPaid.
func (s *Store) SetRentAmount(ctx context.Context, amount decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Prefs.Rent = amount.Round(2)
	s.persist(ctx)
}

// SetPayrollAmount sets the monthly payroll preference used by
// MarkPayrollDeposited.
func (s *Store) SetPayrollAmount(ctx context.Context, amount decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Prefs.Payroll = amount.Round(2)
	s.persist(ctx)
}

// AddCategory inserts a category label if not already present
// (case-sensitive). Adding an existing label is a no-op.
func (s *Store) AddCategory(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return core.ErrEmptyName
	}
	if s.state.HasCategory(name) {
		return nil
	}
	s.state.Categories = append(s.state.Categories, name)
	s.persist(ctx)
	return nil
}

// AppendAlert records an externally produced alert (reminder processor or
// the alerts API). ID and timestamp are filled in when absent.
func (s *Store) AppendAlert(ctx context.Context, alert core.Alert) core.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.appendAlertLocked(alert)
	s.persist(ctx)
	return out
}

func (s *Store) appendAlertLocked(alert core.Alert) core.Alert {
	if alert.ID == "" {
		alert.ID = core.NewID("alt")
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	s.state.Alerts = append([]core.Alert{alert}, s.state.Alerts...)
	return alert
}

func (s *Store) ensureCategoryLocked(name string) {
	if name != "" && !s.state.HasCategory(name) {
		s.state.Categories = append(s.state.Categories, name)
	}
}

func (s *Store) checkingBalanceLocked() decimal.Decimal {
	if acc := s.state.Account(core.CheckingAccountID); acc != nil {
		return acc.Balance
	}
	return decimal.Zero
}

// Snapshot returns a deep copy of the full state.
func (s *Store) Snapshot() *core.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Accounts returns the account list, checking first.
func (s *Store) Accounts() []core.Account {
	return s.Snapshot().Accounts
}

// Transactions returns the ledger, most recent first.
func (s *Store) Transactions() []core.Transaction {
	return s.Snapshot().Transactions
}

// Expenses returns the expense list, most recent first.
func (s *Store) Expenses() []core.Expense {
	return s.Snapshot().Expenses
}

// Alerts returns the alert list, most recent first.
func (s *Store) Alerts() []core.Alert {
	return s.Snapshot().Alerts
}

// Categories returns the category set in insertion order.
func (s *Store) Categories() []string {
	return s.Snapshot().Categories
}

// Preferences returns the current preference record.
func (s *Store) Preferences() core.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Prefs
}

func (s *Store) persist(ctx context.Context) {
	if s.backend == nil {
		return
	}
	if err := s.backend.Save(ctx, s.state); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist ledger state", log.FieldError, err)
	}
}

// wholeDollars formats an amount without cents for alert messages,
// matching the presentation the autopay buttons expect.
func wholeDollars(d decimal.Decimal) string {
	return d.Abs().Round(0).String()
}
