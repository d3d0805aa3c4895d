// Package worker turns queued expense events into spreadsheet rows.
package worker

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"pennyjar/internal/core"
	"pennyjar/internal/events"
	"pennyjar/internal/log"
	"pennyjar/internal/sheets"
)

// ExportWorker appends each logged expense to the configured sheet.
// Messages carry the full payload, so the worker never touches the
// ledger's storage backend.
type ExportWorker struct {
	sheets sheets.ExpenseWriter
	logger *log.Logger
}

func NewExportWorker(writer sheets.ExpenseWriter, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentWorker)
	}
	return &ExportWorker{sheets: writer, logger: logger}
}

// HandleExpenseLogged processes one queued message. Errors surface to
// the consumer, which requeues the delivery.
func (w *ExportWorker) HandleExpenseLogged(ctx context.Context, msg *events.ExpenseLoggedMessage) error {
	exp, err := expenseFromMessage(msg)
	if err != nil {
		return fmt.Errorf("decode message payload: %w", err)
	}

	rowRef, err := w.sheets.Append(ctx, exp)
	if err != nil {
		return fmt.Errorf("append expense to sheet: %w", err)
	}

	w.logger.InfoContext(ctx, "Exported expense",
		log.FieldExpenseName, exp.Name,
		log.FieldCategory, exp.Category,
		log.FieldAmount, exp.Amount.String(),
		"row_ref", rowRef)
	return nil
}

func expenseFromMessage(msg *events.ExpenseLoggedMessage) (core.Expense, error) {
	amount, err := decimal.NewFromString(msg.Amount)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse amount %q: %w", msg.Amount, err)
	}
	date, err := core.ParseDate(msg.Date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse date %q: %w", msg.Date, err)
	}
	return core.Expense{
		ID:       msg.ID,
		Name:     msg.Name,
		Category: msg.Category,
		Amount:   amount,
		Date:     date,
	}, nil
}
