package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"pennyjar/internal/core"
)

// Postgres persists state snapshots into a Postgres database through a
// pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS accounts (
    seq     bigserial,
    id      text PRIMARY KEY,
    name    text NOT NULL,
    type    text NOT NULL,
    balance numeric NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS transactions (
    seq        bigserial,
    id         text PRIMARY KEY,
    account_id text NOT NULL,
    name       text NOT NULL,
    amount     numeric NOT NULL,
    date       date NOT NULL,
    category   text
);
CREATE TABLE IF NOT EXISTS expenses (
    seq      bigserial,
    id       text PRIMARY KEY,
    name     text NOT NULL,
    category text,
    amount   numeric NOT NULL,
    date     date NOT NULL
);
CREATE TABLE IF NOT EXISTS alerts (
    seq        bigserial,
    id         text PRIMARY KEY,
    txn_id     text,
    kind       text NOT NULL,
    message    text NOT NULL,
    severity   text NOT NULL,
    amount     numeric,
    balance    numeric,
    created_at timestamptz NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS categories (
    seq  bigserial,
    name text PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS prefs (
    id       int PRIMARY KEY DEFAULT 1,
    checking numeric NOT NULL DEFAULT 0,
    rent     numeric NOT NULL DEFAULT 0,
    payroll  numeric NOT NULL DEFAULT 0
);
`

func NewPostgres(ctx context.Context, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) Load(ctx context.Context) (*core.State, bool, error) {
	st := &core.State{
		Transactions: []core.Transaction{},
		Expenses:     []core.Expense{},
		Alerts:       []core.Alert{},
	}

	var checking, rent, payroll string
	err := p.pool.QueryRow(ctx,
		`SELECT checking::text, rent::text, payroll::text FROM prefs WHERE id = 1`).
		Scan(&checking, &rent, &payroll)
	if errors.Is(err, pgx.ErrNoRows) {
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

	rows, err := p.pool.Query(ctx, `SELECT id, name, type, balance::text FROM accounts ORDER BY seq`)
	if err != nil {
		return nil, false, fmt.Errorf("load accounts: %w", err)
	}
	for rows.Next() {
		var a core.Account
		var balance string
		if err := rows.Scan(&a.ID, &a.Name, &a.Kind, &balance); err != nil {
			rows.Close()
			return nil, false, fmt.Errorf("scan account: %w", err)
		}
		if a.Balance, err = decimal.NewFromString(balance); err != nil {
			rows.Close()
			return nil, false, fmt.Errorf("parse account balance: %w", err)
		}
		st.Accounts = append(st.Accounts, a)
	}
	rows.Close()
	if rows.Err() != nil {
		return nil, false, rows.Err()
	}

	rows, err = p.pool.Query(ctx,
		`SELECT id, account_id, name, amount::text, date, COALESCE(category, '') FROM transactions ORDER BY seq`)
	if err != nil {
		return nil, false, fmt.Errorf("load transactions: %w", err)
	}
	for rows.Next() {
		var t core.Transaction
		var amount string
		var date time.Time
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Name, &amount, &date, &t.Category); err != nil {
			rows.Close()
			return nil, false, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			rows.Close()
			return nil, false, fmt.Errorf("parse transaction amount: %w", err)
		}
		t.Date = core.NewDate(date.Year(), int(date.Month()), date.Day())
		st.Transactions = append(st.Transactions, t)
	}
	rows.Close()
	if rows.Err() != nil {
		return nil, false, rows.Err()
	}

	rows, err = p.pool.Query(ctx,
		`SELECT id, name, COALESCE(category, ''), amount::text, date FROM expenses ORDER BY seq`)
	if err != nil {
		return nil, false, fmt.Errorf("load expenses: %w", err)
	}
	for rows.Next() {
		var e core.Expense
		var amount string
		var date time.Time
		if err := rows.Scan(&e.ID, &e.Name, &e.Category, &amount, &date); err != nil {
			rows.Close()
			return nil, false, fmt.Errorf("scan expense: %w", err)
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			rows.Close()
			return nil, false, fmt.Errorf("parse expense amount: %w", err)
		}
		e.Date = core.NewDate(date.Year(), int(date.Month()), date.Day())
		st.Expenses = append(st.Expenses, e)
	}
	rows.Close()
	if rows.Err() != nil {
		return nil, false, rows.Err()
	}

	rows, err = p.pool.Query(ctx,
		`SELECT id, COALESCE(txn_id, ''), kind, message, severity,
		        COALESCE(amount, 0)::text, COALESCE(balance, 0)::text, created_at
		 FROM alerts ORDER BY seq`)
	if err != nil {
		return nil, false, fmt.Errorf("load alerts: %w", err)
	}
	for rows.Next() {
		var a core.Alert
		var amount, balance string
		if err := rows.Scan(&a.ID, &a.TxnID, &a.Kind, &a.Message, &a.Severity, &amount, &balance, &a.CreatedAt); err != nil {
			rows.Close()
			return nil, false, fmt.Errorf("scan alert: %w", err)
		}
		if a.Amount, err = decimal.NewFromString(amount); err != nil {
			rows.Close()
			return nil, false, fmt.Errorf("parse alert amount: %w", err)
		}
		if a.Balance, err = decimal.NewFromString(balance); err != nil {
			rows.Close()
			return nil, false, fmt.Errorf("parse alert balance: %w", err)
		}
		st.Alerts = append(st.Alerts, a)
	}
	rows.Close()
	if rows.Err() != nil {
		return nil, false, rows.Err()
	}

	rows, err = p.pool.Query(ctx, `SELECT name FROM categories ORDER BY seq`)
	if err != nil {
		return nil, false, fmt.Errorf("load categories: %w", err)
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, false, fmt.Errorf("scan category: %w", err)
		}
		st.Categories = append(st.Categories, name)
	}
	rows.Close()
	if rows.Err() != nil {
		return nil, false, rows.Err()
	}

	return st, true, nil
}

func (p *Postgres) Save(ctx context.Context, st *core.State) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`TRUNCATE accounts, transactions, expenses, alerts, categories, prefs`); err != nil {
		return fmt.Errorf("clear tables: %w", err)
	}

	for _, a := range st.Accounts {
		if _, err := tx.Exec(ctx,
			`INSERT INTO accounts (id, name, type, balance) VALUES ($1, $2, $3, $4)`,
			a.ID, a.Name, a.Kind, a.Balance.String()); err != nil {
			return fmt.Errorf("insert account: %w", err)
		}
	}
	for _, t := range st.Transactions {
		if _, err := tx.Exec(ctx,
			`INSERT INTO transactions (id, account_id, name, amount, date, category) VALUES ($1, $2, $3, $4, $5, $6)`,
			t.ID, t.AccountID, t.Name, t.Amount.String(), t.Date.Time, t.Category); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
	}
	for _, e := range st.Expenses {
		if _, err := tx.Exec(ctx,
			`INSERT INTO expenses (id, name, category, amount, date) VALUES ($1, $2, $3, $4, $5)`,
			e.ID, e.Name, e.Category, e.Amount.String(), e.Date.Time); err != nil {
			return fmt.Errorf("insert expense: %w", err)
		}
	}
	for _, a := range st.Alerts {
		if _, err := tx.Exec(ctx,
			`INSERT INTO alerts (id, txn_id, kind, message, severity, amount, balance, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			a.ID, a.TxnID, a.Kind, a.Message, string(a.Severity),
			a.Amount.String(), a.Balance.String(), a.CreatedAt); err != nil {
			return fmt.Errorf("insert alert: %w", err)
		}
	}
	for _, c := range st.Categories {
		if _, err := tx.Exec(ctx, `INSERT INTO categories (name) VALUES ($1)`, c); err != nil {
			return fmt.Errorf("insert category: %w", err)
		}
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO prefs (id, checking, rent, payroll) VALUES (1, $1, $2, $3)`,
		st.Prefs.CheckingBase.String(), st.Prefs.Rent.String(), st.Prefs.Payroll.String()); err != nil {
		return fmt.Errorf("insert prefs: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}
