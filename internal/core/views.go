package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CategoryTotal is the absolute spend aggregated under one category label.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// CategoryBreakdown is the spend-by-category view rendered by the donut
// chart: entries sorted by descending total (ties keep first-encountered
// order), plus the grand total.
type CategoryBreakdown struct {
	Entries []CategoryTotal `json:"entries"`
	Total   decimal.Decimal `json:"total"`
}

// CategoryTotals aggregates |amount| per category over the given expenses.
// Pure: it never mutates its input.
func CategoryTotals(expenses []Expense) CategoryBreakdown {
	totals := make(map[string]decimal.Decimal)
	var order []string
	for _, e := range expenses {
		amt := e.Amount.Abs()
		if _, seen := totals[e.Category]; !seen {
			order = append(order, e.Category)
		}
		totals[e.Category] = totals[e.Category].Add(amt)
	}

	out := CategoryBreakdown{Total: decimal.Zero}
	for _, cat := range order {
		out.Entries = append(out.Entries, CategoryTotal{Category: cat, Total: totals[cat]})
		out.Total = out.Total.Add(totals[cat])
	}
	// Stable sort keeps first-encountered order for equal totals.
	sort.SliceStable(out.Entries, func(i, j int) bool {
		return out.Entries[i].Total.GreaterThan(out.Entries[j].Total)
	})
	return out
}

// MonthlySpend sums |amount| over expenses whose date falls in the given
// calendar year and month. Not a rolling window.
func MonthlySpend(expenses []Expense, year, month int) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range expenses {
		if e.Date.InMonth(year, month) {
			sum = sum.Add(e.Amount.Abs())
		}
	}
	return sum
}
