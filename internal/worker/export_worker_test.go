package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pennyjar/internal/events"
	"pennyjar/internal/sheets/memory"
)

func TestHandleExpenseLogged(t *testing.T) {
	writer := memory.New()
	w := NewExportWorker(writer, nil)

	msg := events.NewExpenseLoggedMessage("exp_1", "Coffee", "Food", "4.5", "2024-01-05")
	require.NoError(t, w.HandleExpenseLogged(context.Background(), msg))

	rows := writer.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "Coffee", rows[0].Name)
	assert.Equal(t, "Food", rows[0].Category)
	assert.Equal(t, "4.5", rows[0].Amount.String())
	assert.Equal(t, "2024-01-05", rows[0].Date.String())
}

func TestHandleExpenseLoggedBadPayload(t *testing.T) {
	w := NewExportWorker(memory.New(), nil)
	ctx := context.Background()

	err := w.HandleExpenseLogged(ctx, events.NewExpenseLoggedMessage("exp_1", "Coffee", "Food", "not-a-number", "2024-01-05"))
	require.Error(t, err)

	err = w.HandleExpenseLogged(ctx, events.NewExpenseLoggedMessage("exp_1", "Coffee", "Food", "4.5", "01/05/2024"))
	require.Error(t, err)
}
