package ledger

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pennyjar/internal/core"
	"pennyjar/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), storage.NewMemory(), nil)
	require.NoError(t, err)
	return s
}

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func decPtr(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

// checkingBalance re-derives the invariant: base + sum of posted amounts.
func assertBalanceConsistent(t *testing.T, s *Store) {
	t.Helper()
	st := s.Snapshot()
	sum := st.Prefs.CheckingBase
	for _, txn := range st.Transactions {
		if txn.AccountID == core.CheckingAccountID {
			sum = sum.Add(txn.Amount)
		}
	}
	acc := st.Account(core.CheckingAccountID)
	require.NotNil(t, acc)
	assert.True(t, acc.Balance.Equal(sum),
		"balance %s != base+sum %s", acc.Balance, sum)
}

func TestInitialize(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	st := s.Initialize(ctx, dec(1000), dec(1200), dec(1500))

	acc := st.Account(core.CheckingAccountID)
	require.NotNil(t, acc)
	assert.True(t, acc.Balance.Equal(dec(1000)))
	assert.True(t, st.Prefs.Rent.Equal(dec(1200)))
	assert.True(t, st.Prefs.Payroll.Equal(dec(1500)))
	assert.Empty(t, st.Transactions)
	assert.Empty(t, st.Expenses)
	assert.Empty(t, st.Alerts)
	assert.Equal(t, core.DefaultCategories(), st.Categories)
	assertBalanceConsistent(t, s)
}

func TestLogExpense(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.Initialize(ctx, dec(1000), dec(1200), dec(1500))

	date, _ := core.ParseDate("2024-01-05")
	exp, _, err := s.LogExpense(ctx, "Coffee", "Food", dec(4.50), date)
	require.NoError(t, err)

	st := s.Snapshot()
	assert.True(t, st.Account(core.CheckingAccountID).Balance.Equal(dec(995.50)))
	require.Len(t, st.Expenses, 1)
	require.Len(t, st.Transactions, 1)

	// Mirrored debit: same magnitude negated, same date and category.
	txn := st.Transactions[0]
	assert.True(t, txn.Amount.Equal(dec(-4.50)))
	assert.True(t, txn.Date.Equal(exp.Date))
	assert.Equal(t, exp.Category, txn.Category)
	assert.Equal(t, "Coffee", txn.Name)

	assert.True(t, st.HasCategory("Food"))
	require.Len(t, st.Alerts, 1)
	assert.Equal(t, core.KindExpenseLogged, st.Alerts[0].Kind)
	assert.Equal(t, core.SeverityLow, st.Alerts[0].Severity)
	assert.Equal(t, txn.ID, st.Alerts[0].TxnID)
	assertBalanceConsistent(t, s)
}

func TestLogExpenseNormalizesBlankCategory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.Initialize(ctx, dec(100), decimal.Zero, decimal.Zero)

	exp, _, err := s.LogExpense(ctx, "Mystery", "   ", dec(5), core.NewDate(2024, 1, 5))
	require.NoError(t, err)
	assert.Equal(t, "Other", exp.Category)
}

func TestLogExpenseRejectsInvalidInput(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	before := *s.Initialize(ctx, dec(1000), dec(1200), dec(1500))

	date := core.NewDate(2024, 1, 5)
	cases := []struct {
		name   string
		amount decimal.Decimal
	}{
		{"", dec(5)},
		{"   ", dec(5)},
		{"Coffee", decimal.Zero},
		{"Coffee", dec(-5)},
	}
	for i, tc := range cases {
		_, _, err := s.LogExpense(ctx, tc.name, "Food", tc.amount, date)
		require.Error(t, err, "case %d", i)
		assert.True(t, core.IsValidation(err), "case %d: %v", i, err)
	}

	// All-or-nothing: the store is exactly as it was.
	after := s.Snapshot()
	assert.Equal(t, before.Transactions, after.Transactions)
	assert.Equal(t, before.Expenses, after.Expenses)
	assert.Equal(t, before.Alerts, after.Alerts)
	assert.True(t, before.Account(core.CheckingAccountID).Balance.Equal(
		after.Account(core.CheckingAccountID).Balance))
}

func TestMarkRentPaid(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.Initialize(ctx, dec(1000), dec(1200), dec(1500))

	date, _ := core.ParseDate("2024-01-01")
	txn, err := s.MarkRentPaid(ctx, date, nil)
	require.NoError(t, err)
	require.NotNil(t, txn)

	st := s.Snapshot()
	assert.True(t, st.Account(core.CheckingAccountID).Balance.Equal(dec(-200)))
	require.Len(t, st.Transactions, 1)
	assert.Equal(t, "Rent", st.Transactions[0].Name)
	assert.True(t, st.Transactions[0].Amount.Equal(dec(-1200)))
	require.Len(t, st.Expenses, 1)
	assert.Equal(t, "Rent", st.Expenses[0].Category)
	require.Len(t, st.Alerts, 1)
	assert.Equal(t, core.KindRentPaid, st.Alerts[0].Kind)
	assert.Equal(t, core.SeverityMedium, st.Alerts[0].Severity)
	assertBalanceConsistent(t, s)
}

func TestMarkPayrollDeposited(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.Initialize(ctx, dec(1000), dec(1200), dec(1500))

	_, err := s.MarkRentPaid(ctx, core.NewDate(2024, 1, 1), nil)
	require.NoError(t, err)
	txn, err := s.MarkPayrollDeposited(ctx, core.NewDate(2024, 1, 15), nil)
	require.NoError(t, err)
	require.NotNil(t, txn)

	st := s.Snapshot()
	assert.True(t, st.Account(core.CheckingAccountID).Balance.Equal(dec(1300)))
	assert.Equal(t, "Payroll", st.Transactions[0].Name)
	assert.True(t, st.Transactions[0].Amount.Equal(dec(1500)))
	assert.Equal(t, "Income", st.Transactions[0].Category)
	assert.Equal(t, core.KindPayrollPosted, st.Alerts[0].Kind)
	// Payroll posts only a credit transaction, no mirrored expense.
	require.Len(t, st.Expenses, 1)
	assertBalanceConsistent(t, s)
}

func TestAutopayZeroPreferenceIsNoOp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.Initialize(ctx, dec(1000), decimal.Zero, decimal.Zero)

	txn, err := s.MarkRentPaid(ctx, core.NewDate(2024, 1, 1), nil)
	require.NoError(t, err)
	assert.Nil(t, txn)
	txn, err = s.MarkPayrollDeposited(ctx, core.NewDate(2024, 1, 15), nil)
	require.NoError(t, err)
	assert.Nil(t, txn)

	st := s.Snapshot()
	assert.Empty(t, st.Transactions)
	assert.Empty(t, st.Alerts)
	assert.True(t, st.Account(core.CheckingAccountID).Balance.Equal(dec(1000)))
}

func TestAutopayAmountOverride(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.Initialize(ctx, dec(1000), decimal.Zero, decimal.Zero)

	txn, err := s.MarkRentPaid(ctx, core.NewDate(2024, 1, 1), decPtr(800))
	require.NoError(t, err)
	require.NotNil(t, txn)
	assert.True(t, txn.Amount.Equal(dec(-800)))
	assertBalanceConsistent(t, s)
}

func TestResetIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.Initialize(ctx, dec(1000), dec(1200), dec(1500))
	_, _, err := s.LogExpense(ctx, "Coffee", "Food", dec(4.50), core.NewDate(2024, 1, 5))
	require.NoError(t, err)

	first := s.Reset(ctx)
	second := s.Reset(ctx)

	for _, st := range []*core.State{first, second} {
		assert.True(t, st.Account(core.CheckingAccountID).Balance.IsZero())
		assert.Empty(t, st.Transactions)
		assert.Empty(t, st.Expenses)
		assert.Empty(t, st.Alerts)
		assert.Equal(t, core.DefaultCategories(), st.Categories)
		assert.True(t, st.Prefs.Rent.IsZero())
		assert.True(t, st.Prefs.Payroll.IsZero())
	}
}

func TestMostRecentFirstOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.Initialize(ctx, dec(1000), dec(1200), dec(1500))

	_, _, err := s.LogExpense(ctx, "first", "Food", dec(1), core.NewDate(2024, 1, 1))
	require.NoError(t, err)
	_, _, err = s.LogExpense(ctx, "second", "Food", dec(2), core.NewDate(2024, 1, 2))
	require.NoError(t, err)
	_, _, err = s.LogExpense(ctx, "third", "Food", dec(3), core.NewDate(2024, 1, 3))
	require.NoError(t, err)

	st := s.Snapshot()
	require.Len(t, st.Transactions, 3)
	assert.Equal(t, "third", st.Transactions[0].Name)
	assert.Equal(t, "second", st.Transactions[1].Name)
	assert.Equal(t, "first", st.Transactions[2].Name)
	assert.Equal(t, "third", st.Expenses[0].Name)
	assert.Contains(t, st.Alerts[0].Message, "third")
}

func TestPostTransactionUnknownAccount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.Initialize(ctx, dec(1000), decimal.Zero, decimal.Zero)

	_, err := s.PostTransaction(ctx, "Transfer", dec(10), core.NewDate(2024, 1, 1), "", "acc_savings")
	require.ErrorIs(t, err, core.ErrAccountNotFound)
	assert.Empty(t, s.Transactions())
}

func TestSetCheckingBalanceReplacesOutright(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.Initialize(ctx, dec(1000), dec(1200), decimal.Zero)
	_, _, err := s.LogExpense(ctx, "Coffee", "Food", dec(50), core.NewDate(2024, 1, 5))
	require.NoError(t, err)

	s.SetCheckingBalance(ctx, dec(2500))

	st := s.Snapshot()
	// Replace, not adjust: the balance is exactly the override, no
	// adjustment transaction appears.
	assert.True(t, st.Account(core.CheckingAccountID).Balance.Equal(dec(2500)))
	assert.Len(t, st.Transactions, 1)
	assert.True(t, st.Prefs.CheckingBase.Equal(dec(2500)))
	// The invariant holds against the new base going forward.
	_, _, err = s.LogExpense(ctx, "Lunch", "Food", dec(10), core.NewDate(2024, 1, 6))
	require.NoError(t, err)
	assert.True(t, s.Snapshot().Account(core.CheckingAccountID).Balance.Equal(dec(2490)))
}

func TestCategoryGrowthMonotonic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.Initialize(ctx, dec(1000), decimal.Zero, decimal.Zero)

	seedLen := len(s.Categories())
	require.NoError(t, s.AddCategory(ctx, "Books"))
	require.NoError(t, s.AddCategory(ctx, "Books")) // duplicate: no-op
	_, _, err := s.LogExpense(ctx, "Novel", "Books", dec(12), core.NewDate(2024, 1, 5))
	require.NoError(t, err)
	_, _, err = s.LogExpense(ctx, "Pens", "Stationery", dec(3), core.NewDate(2024, 1, 6))
	require.NoError(t, err)

	cats := s.Categories()
	assert.Len(t, cats, seedLen+2)
	assert.Contains(t, cats, "Books")
	assert.Contains(t, cats, "Stationery")

	require.Error(t, s.AddCategory(ctx, "  "))
}

func TestOpenRestoresPersistedState(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()

	s, err := Open(ctx, backend, nil)
	require.NoError(t, err)
	s.Initialize(ctx, dec(1000), dec(1200), dec(1500))
	_, _, err = s.LogExpense(ctx, "Coffee", "Food", dec(4.50), core.NewDate(2024, 1, 5))
	require.NoError(t, err)

	reopened, err := Open(ctx, backend, nil)
	require.NoError(t, err)
	st := reopened.Snapshot()
	assert.True(t, st.Account(core.CheckingAccountID).Balance.Equal(dec(995.50)))
	require.Len(t, st.Expenses, 1)
	assert.Equal(t, "Coffee", st.Expenses[0].Name)
}

func TestAppendAlertFillsIdentity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := s.AppendAlert(ctx, core.Alert{
		Kind:     core.KindRentDueSoon,
		Message:  "Rent is due in 3 day(s)",
		Severity: core.SeverityMedium,
	})
	assert.NotEmpty(t, a.ID)
	assert.False(t, a.CreatedAt.IsZero())
	require.Len(t, s.Alerts(), 1)
}
