package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"pennyjar/internal/core"
)

// SQLite persists state snapshots into a local SQLite database. Each save
// rewrites the tables inside a single transaction; list ordering is
// preserved by insertion order (rowid).
type SQLite struct {
	db *sql.DB
}

func NewSQLite(dbPath string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context) (*core.State, bool, error) {
	st := &core.State{
		Transactions: []core.Transaction{},
		Expenses:     []core.Expense{},
		Alerts:       []core.Alert{},
	}

	var checking, rent, payroll string
	err := s.db.QueryRowContext(ctx, `SELECT checking, rent, payroll FROM prefs WHERE id = 1`).
		Scan(&checking, &rent, &payroll)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load prefs: %w", err)
	}
	if st.Prefs.CheckingBase, err = decimal.NewFromString(checking); err != nil {
		return nil, false, fmt.Errorf("parse checking base: %w", err)
	}
	if st.Prefs.Rent, err = decimal.NewFromString(rent); err != nil {
		return nil, false, fmt.Errorf("parse rent: %w", err)
	}
	if st.Prefs.Payroll, err = decimal.NewFromString(payroll); err != nil {
		return nil, false, fmt.Errorf("parse payroll: %w", err)
	}

	if err := s.loadAccounts(ctx, st); err != nil {
		return nil, false, err
	}
	if err := s.loadTransactions(ctx, st); err != nil {
		return nil, false, err
	}
	if err := s.loadExpenses(ctx, st); err != nil {
		return nil, false, err
	}
	if err := s.loadAlerts(ctx, st); err != nil {
		return nil, false, err
	}
	if err := s.loadCategories(ctx, st); err != nil {
		return nil, false, err
	}

	return st, true, nil
}

func (s *SQLite) loadAccounts(ctx context.Context, st *core.State) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, type, balance FROM accounts ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a core.Account
		var balance string
		if err := rows.Scan(&a.ID, &a.Name, &a.Kind, &balance); err != nil {
			return fmt.Errorf("scan account: %w", err)
		}
		if a.Balance, err = decimal.NewFromString(balance); err != nil {
			return fmt.Errorf("parse account balance: %w", err)
		}
		st.Accounts = append(st.Accounts, a)
	}
	return rows.Err()
}

func (s *SQLite) loadTransactions(ctx context.Context, st *core.State) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, account_id, name, amount, date, COALESCE(category, '') FROM transactions ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t core.Transaction
		var amount, date string
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Name, &amount, &date, &t.Category); err != nil {
			return fmt.Errorf("scan transaction: %w", err)
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return fmt.Errorf("parse transaction amount: %w", err)
		}
		if t.Date, err = core.ParseDate(date); err != nil {
			return fmt.Errorf("parse transaction date: %w", err)
		}
		st.Transactions = append(st.Transactions, t)
	}
	return rows.Err()
}

func (s *SQLite) loadExpenses(ctx context.Context, st *core.State) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, COALESCE(category, ''), amount, date FROM expenses ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("load expenses: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e core.Expense
		var amount, date string
		if err := rows.Scan(&e.ID, &e.Name, &e.Category, &amount, &date); err != nil {
			return fmt.Errorf("scan expense: %w", err)
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return fmt.Errorf("parse expense amount: %w", err)
		}
		if e.Date, err = core.ParseDate(date); err != nil {
			return fmt.Errorf("parse expense date: %w", err)
		}
		st.Expenses = append(st.Expenses, e)
	}
	return rows.Err()
}

func (s *SQLite) loadAlerts(ctx context.Context, st *core.State) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, COALESCE(txn_id, ''), kind, message, severity, COALESCE(amount, '0'), COALESCE(balance, '0'), created_at
		 FROM alerts ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("load alerts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a core.Alert
		var amount, balance, created string
		if err := rows.Scan(&a.ID, &a.TxnID, &a.Kind, &a.Message, &a.Severity, &amount, &balance, &created); err != nil {
			return fmt.Errorf("scan alert: %w", err)
		}
		if a.Amount, err = decimal.NewFromString(amount); err != nil {
			return fmt.Errorf("parse alert amount: %w", err)
		}
		if a.Balance, err = decimal.NewFromString(balance); err != nil {
			return fmt.Errorf("parse alert balance: %w", err)
		}
		if a.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return fmt.Errorf("parse alert timestamp: %w", err)
		}
		st.Alerts = append(st.Alerts, a)
	}
	return rows.Err()
}

func (s *SQLite) loadCategories(ctx context.Context, st *core.State) error {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM categories ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan category: %w", err)
		}
		st.Categories = append(st.Categories, name)
	}
	return rows.Err()
}

func (s *SQLite) Save(ctx context.Context, st *core.State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"accounts", "transactions", "expenses", "alerts", "categories", "prefs"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, a := range st.Accounts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO accounts (id, name, type, balance) VALUES (?, ?, ?, ?)`,
			a.ID, a.Name, a.Kind, a.Balance.String()); err != nil {
			return fmt.Errorf("insert account: %w", err)
		}
	}
	for _, t := range st.Transactions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (id, account_id, name, amount, date, category) VALUES (?, ?, ?, ?, ?, ?)`,
			t.ID, t.AccountID, t.Name, t.Amount.String(), t.Date.String(), t.Category); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
	}
	for _, e := range st.Expenses {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO expenses (id, name, category, amount, date) VALUES (?, ?, ?, ?, ?)`,
			e.ID, e.Name, e.Category, e.Amount.String(), e.Date.String()); err != nil {
			return fmt.Errorf("insert expense: %w", err)
		}
	}
	for _, a := range st.Alerts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO alerts (id, txn_id, kind, message, severity, amount, balance, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.TxnID, a.Kind, a.Message, string(a.Severity),
			a.Amount.String(), a.Balance.String(), a.CreatedAt.Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("insert alert: %w", err)
		}
	}
	for _, c := range st.Categories {
		if _, err := tx.ExecContext(ctx, `INSERT INTO categories (name) VALUES (?)`, c); err != nil {
			return fmt.Errorf("insert category: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO prefs (id, checking, rent, payroll) VALUES (1, ?, ?, ?)`,
		st.Prefs.CheckingBase.String(), st.Prefs.Rent.String(), st.Prefs.Payroll.String()); err != nil {
		return fmt.Errorf("insert prefs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}
