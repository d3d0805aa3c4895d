// Package services orchestrates ledger operations across the store,
// the event queue and the reminder rules.
package services

import (
	"context"

	"github.com/shopspring/decimal"

	"pennyjar/internal/core"
	"pennyjar/internal/events"
	"pennyjar/internal/ledger"
	"pennyjar/internal/log"
)

// ExpensePublisher sends a logged expense to the export queue.
type ExpensePublisher interface {
	PublishExpenseLogged(ctx context.Context, msg *events.ExpenseLoggedMessage) error
}

// LedgerService fronts the store for the HTTP layer and publishes an
// export message after each logged expense. Publishing is best-effort:
// the expense is already committed, so a queue failure is logged and the
// request still succeeds.
type LedgerService struct {
	store     *ledger.Store
	publisher ExpensePublisher
	logger    *log.Logger
}

func NewLedgerService(store *ledger.Store, publisher ExpensePublisher, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentApp)
	}
	return &LedgerService{store: store, publisher: publisher, logger: logger}
}

// Store exposes the underlying store for read paths.
func (s *LedgerService) Store() *ledger.Store {
	return s.store
}

func (s *LedgerService) Initialize(ctx context.Context, checking, rent, payroll decimal.Decimal) *core.State {
	return s.store.Initialize(ctx, checking, rent, payroll)
}

func (s *LedgerService) Reset(ctx context.Context) *core.State {
	return s.store.Reset(ctx)
}

// LogExpense commits the expense, then queues it for export.
func (s *LedgerService) LogExpense(ctx context.Context, name, category string, amount decimal.Decimal, date core.Date) (core.Expense, core.Transaction, error) {
	exp, txn, err := s.store.LogExpense(ctx, name, category, amount, date)
	if err != nil {
		return core.Expense{}, core.Transaction{}, err
	}

	if s.publisher != nil {
		msg := events.NewExpenseLoggedMessage(exp.ID, exp.Name, exp.Category, exp.Amount.String(), exp.Date.String())
		if err := s.publisher.PublishExpenseLogged(ctx, msg); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish expense logged message",
				log.FieldExpenseName, exp.Name, log.FieldError, err)
		}
	}
	return exp, txn, nil
}

func (s *LedgerService) PostTransaction(ctx context.Context, name string, amount decimal.Decimal, date core.Date, category, accountID string) (core.Transaction, error) {
	return s.store.PostTransaction(ctx, name, amount, date, category, accountID)
}

func (s *LedgerService) MarkRentPaid(ctx context.Context, date core.Date, override *decimal.Decimal) (*core.Transaction, error) {
	return s.store.MarkRentPaid(ctx, date, override)
}

func (s *LedgerService) MarkPayrollDeposited(ctx context.Context, date core.Date, override *decimal.Decimal) (*core.Transaction, error) {
	return s.store.MarkPayrollDeposited(ctx, date, override)
}

func (s *LedgerService) SetCheckingBalance(ctx context.Context, balance decimal.Decimal) {
	s.store.SetCheckingBalance(ctx, balance)
}

func (s *LedgerService) SetRentAmount(ctx context.Context, amount decimal.Decimal) {
	s.store.SetRentAmount(ctx, amount)
}

func (s *LedgerService) SetPayrollAmount(ctx context.Context, amount decimal.Decimal) {
	s.store.SetPayrollAmount(ctx, amount)
}

func (s *LedgerService) AddCategory(ctx context.Context, name string) error {
	return s.store.AddCategory(ctx, name)
}

func (s *LedgerService) AppendAlert(ctx context.Context, alert core.Alert) core.Alert {
	return s.store.AppendAlert(ctx, alert)
}
