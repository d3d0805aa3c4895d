// Package sheets defines the outbound port for expense export.
package sheets

import (
	"context"

	"pennyjar/internal/core"
)

// ExpenseWriter appends one expense row to an external sheet and
// returns a reference to the written range.
type ExpenseWriter interface {
	Append(ctx context.Context, e core.Expense) (rowRef string, err error)
}
