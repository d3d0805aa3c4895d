// Package memory is an in-process ExpenseWriter used in tests and when
// no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"pennyjar/internal/core"
	ports "pennyjar/internal/sheets"
)

type Writer struct {
	mu   sync.Mutex
	rows []core.Expense
}

var _ ports.ExpenseWriter = (*Writer)(nil)

func New() *Writer {
	return &Writer{}
}

func (w *Writer) Append(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rows = append(w.rows, e)
	return fmt.Sprintf("row:%d", len(w.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (w *Writer) Rows() []core.Expense {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]core.Expense, len(w.rows))
	copy(out, w.rows)
	return out
}
