package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"pennyjar/internal/core"
	"pennyjar/internal/ledger"
	"pennyjar/internal/log"
)

// ReminderProcessor periodically evaluates three reminder rules against
// the ledger and appends an alert for each one that fires: rent due
// within 5 days, payroll within 3 days, and month-over-month spend
// growth. Each rule fires at most once per occurrence, keyed by the date
// it refers to.
type ReminderProcessor struct {
	store    *ledger.Store
	interval time.Duration
	fired    map[string]struct{}
	logger   *log.Logger
}

func NewReminderProcessor(store *ledger.Store, interval time.Duration, logger *log.Logger) *ReminderProcessor {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentReminder)
	}
	return &ReminderProcessor{
		store:    store,
		interval: interval,
		fired:    make(map[string]struct{}),
		logger:   logger,
	}
}

// Run evaluates the rules on a fixed interval until ctx is cancelled.
func (p *ReminderProcessor) Run(ctx context.Context) error {
	p.logger.InfoContext(ctx, "Reminder processor started", "interval", p.interval.String())
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.InfoContext(ctx, "Reminder processor stopped")
			return ctx.Err()
		case <-ticker.C:
			p.RunOnce(ctx, time.Now().UTC())
		}
	}
}

// RunOnce evaluates all rules against the given clock reading and
// returns how many alerts were appended.
func (p *ReminderProcessor) RunOnce(ctx context.Context, now time.Time) int {
	count := 0
	if p.checkRentDue(ctx, now) {
		count++
	}
	if p.checkPayrollIncoming(ctx, now) {
		count++
	}
	if p.checkSpendGrowth(ctx, now) {
		count++
	}
	return count
}

// checkRentDue warns when the next first-of-month rent date is at most
// 5 days out.
func (p *ReminderProcessor) checkRentDue(ctx context.Context, now time.Time) bool {
	next := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if now.Day() > 1 {
		next = next.AddDate(0, 1, 0)
	}
	days := wholeDays(next.Sub(now))
	if days <= 0 || days > 5 {
		return false
	}

	key := fmt.Sprintf("%s|%s", core.KindRentDueSoon, next.Format("2006-01-02"))
	if _, done := p.fired[key]; done {
		return false
	}
	p.fired[key] = struct{}{}
	p.appendAlert(ctx, core.Alert{
		Kind:     core.KindRentDueSoon,
		Message:  fmt.Sprintf("Rent is due in %d day(s) on %s.", days, next.Format("2006-01-02")),
		Severity: core.SeverityMedium,
	})
	return true
}

// checkPayrollIncoming warns when the next payday (1st or 15th) is at
// most 3 days out.
func (p *ReminderProcessor) checkPayrollIncoming(ctx context.Context, now time.Time) bool {
	var next time.Time
	for _, day := range []int{1, 15} {
		pd := time.Date(now.Year(), now.Month(), day, 0, 0, 0, 0, time.UTC)
		if !pd.Before(now) {
			next = pd
			break
		}
	}
	if next.IsZero() {
		next = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	}
	days := wholeDays(next.Sub(now))
	if days <= 0 || days > 3 {
		return false
	}

	key := fmt.Sprintf("%s|%s", core.KindPayrollIncoming, next.Format("2006-01-02"))
	if _, done := p.fired[key]; done {
		return false
	}
	p.fired[key] = struct{}{}
	p.appendAlert(ctx, core.Alert{
		Kind:     core.KindPayrollIncoming,
		Message:  fmt.Sprintf("Payroll expected on %s.", next.Format("2006-01-02")),
		Severity: core.SeverityLow,
	})
	return true
}

// checkSpendGrowth fires once per calendar month when this month's
// spend so far exceeds the whole of last month's.
func (p *ReminderProcessor) checkSpendGrowth(ctx context.Context, now time.Time) bool {
	expenses := p.store.Expenses()

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	prevEnd := monthStart.AddDate(0, 0, -1)
	prevStart := time.Date(prevEnd.Year(), prevEnd.Month(), 1, 0, 0, 0, 0, time.UTC)

	thisMonth := sumExpensesInRange(expenses, monthStart, now)
	lastMonth := sumExpensesInRange(expenses, prevStart, prevEnd)
	if !thisMonth.IsPositive() || thisMonth.LessThanOrEqual(lastMonth) {
		return false
	}

	key := fmt.Sprintf("%s|%s", core.KindSpendUp, monthStart.Format("2006-01-02"))
	if _, done := p.fired[key]; done {
		return false
	}
	p.fired[key] = struct{}{}

	delta := thisMonth.Sub(lastMonth)
	p.appendAlert(ctx, core.Alert{
		Kind:     core.KindSpendUp,
		Message:  fmt.Sprintf("Spending is up by $%s vs last month.", delta.Round(0)),
		Severity: core.SeverityMedium,
		Amount:   delta.Neg(),
	})
	return true
}

func (p *ReminderProcessor) appendAlert(ctx context.Context, alert core.Alert) {
	p.store.AppendAlert(ctx, alert)
	p.logger.InfoContext(ctx, "Reminder alert appended",
		log.FieldAlertKind, alert.Kind, "message", alert.Message)
}

// sumExpensesInRange totals expense magnitudes with dates in [start, end].
func sumExpensesInRange(expenses []core.Expense, start, end time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		d := e.Date.Time
		if d.Before(start) || d.After(end) {
			continue
		}
		total = total.Add(e.Amount.Abs())
	}
	return total
}

// wholeDays truncates a duration to whole days.
func wholeDays(d time.Duration) int {
	return int(d.Hours() / 24)
}
