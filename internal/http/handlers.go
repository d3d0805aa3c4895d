package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"pennyjar/internal/core"
)

type setupRequest struct {
	CheckingBalance decimal.Decimal `json:"checking_balance"`
	RentAmount      decimal.Decimal `json:"rent_amount"`
	PayrollAmount   decimal.Decimal `json:"payroll_amount"`
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type postTransactionRequest struct {
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	Date      core.Date       `json:"date"`
	Category  string          `json:"category"`
	AccountID string          `json:"account_id"`
}

type logExpenseRequest struct {
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Date     core.Date       `json:"date"`
}

type autopayRequest struct {
	Amount *decimal.Decimal `json:"amount,omitempty"`
	Date   core.Date        `json:"date,omitempty"`
}

type stateResponse struct {
	Accounts     []core.Account     `json:"accounts"`
	Transactions []core.Transaction `json:"transactions"`
	Expenses     []core.Expense     `json:"expenses"`
	Alerts       []core.Alert       `json:"alerts"`
	Categories   []string           `json:"categories"`
	Prefs        core.Preferences   `json:"prefs"`
}

type categorySummaryResponse struct {
	Entries []core.CategoryTotal `json:"entries"`
	Total   decimal.Decimal      `json:"total"`
	Slices  []core.DonutSlice    `json:"slices"`
}

type monthSummaryResponse struct {
	Year  int             `json:"year"`
	Month int             `json:"month"`
	Total decimal.Decimal `json:"total"`
}

func stateResponseFrom(st *core.State) stateResponse {
	return stateResponse{
		Accounts:     st.Accounts,
		Transactions: st.Transactions,
		Expenses:     st.Expenses,
		Alerts:       st.Alerts,
		Categories:   st.Categories,
		Prefs:        st.Prefs,
	}
}

// --- setup and preferences ---

func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	var req setupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	st := s.svc.Initialize(r.Context(), req.CheckingBalance, req.RentAmount, req.PayrollAmount)
	s.invalidateSummaries()
	writeJSON(w, http.StatusOK, stateResponseFrom(st))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	st := s.svc.Reset(r.Context())
	s.invalidateSummaries()
	writeJSON(w, http.StatusOK, stateResponseFrom(st))
}

func (s *Server) handleSetCheckingBalance(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.svc.SetCheckingBalance(r.Context(), req.Amount)
	s.invalidateSummaries()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "prefs": s.store.Preferences()})
}

func (s *Server) handleSetRentAmount(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.svc.SetRentAmount(r.Context(), req.Amount)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "prefs": s.store.Preferences()})
}

func (s *Server) handleSetPayrollAmount(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.svc.SetPayrollAmount(r.Context(), req.Amount)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "prefs": s.store.Preferences()})
}

func (s *Server) handleGetPrefs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"prefs": s.store.Preferences()})
}

// --- reads ---

func (s *Server) handleGetBalances(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"accounts": s.snapshot().Accounts})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"transactions": s.snapshot().Transactions})
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"expenses": s.snapshot().Expenses})
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"alerts": s.snapshot().Alerts})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": s.snapshot().Categories})
}

// --- mutations ---

func (s *Server) handlePostTransaction(w http.ResponseWriter, r *http.Request) {
	var req postTransactionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	txn, err := s.svc.PostTransaction(r.Context(), req.Name, req.Amount, req.Date, req.Category, req.AccountID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateSummaries()
	writeJSON(w, http.StatusOK, map[string]any{"transaction": txn})
}

func (s *Server) handleLogExpense(w http.ResponseWriter, r *http.Request) {
	var req logExpenseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	exp, txn, err := s.svc.LogExpense(r.Context(), req.Name, req.Category, req.Amount, req.Date)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateSummaries()
	writeJSON(w, http.StatusOK, map[string]any{"expense": exp, "created_txn_id": txn.ID})
}

func (s *Server) handlePostAlert(w http.ResponseWriter, r *http.Request) {
	var alert core.Alert
	if !decodeBody(w, r, &alert) {
		return
	}
	out := s.svc.AppendAlert(r.Context(), alert)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.svc.AddCategory(r.Context(), req.Name); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "name": req.Name})
}

// --- autopay ---

func (s *Server) handleAutopayRent(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAutopay(w, r)
	if !ok {
		return
	}
	txn, err := s.svc.MarkRentPaid(r.Context(), req.Date, req.Amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if txn == nil {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "skipped": "no rent amount configured"})
		return
	}
	s.invalidateSummaries()
	// Rent creates a mirrored expense; it is the newest one.
	expenseID := ""
	if exps := s.snapshot().Expenses; len(exps) > 0 {
		expenseID = exps[0].ID
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "expense_id": expenseID, "txn_id": txn.ID})
}

func (s *Server) handleAutopayPayroll(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAutopay(w, r)
	if !ok {
		return
	}
	txn, err := s.svc.MarkPayrollDeposited(r.Context(), req.Date, req.Amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if txn == nil {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "skipped": "no payroll amount configured"})
		return
	}
	s.invalidateSummaries()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "txn_id": txn.ID})
}

// decodeAutopay parses an optional body: both amount and date may be
// omitted, in which case preferences and today's date apply.
func decodeAutopay(w http.ResponseWriter, r *http.Request) (autopayRequest, bool) {
	var req autopayRequest
	if r.Body != nil && r.ContentLength != 0 {
		if !decodeBody(w, r, &req) {
			return autopayRequest{}, false
		}
	}
	if req.Amount != nil && !req.Amount.IsPositive() {
		req.Amount = nil
	}
	if req.Date.IsZero() {
		req.Date = core.Today()
	}
	return req, true
}

// --- summaries ---

func (s *Server) handleCategorySummary(w http.ResponseWriter, r *http.Request) {
	const key = "categories"
	if cached, ok := s.categoryCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	breakdown := core.CategoryTotals(s.snapshot().Expenses)
	resp := categorySummaryResponse{
		Entries: breakdown.Entries,
		Total:   breakdown.Total,
		Slices:  core.DonutSlices(breakdown),
	}
	if resp.Entries == nil {
		resp.Entries = []core.CategoryTotal{}
	}
	if resp.Slices == nil {
		resp.Slices = []core.DonutSlice{}
	}
	s.categoryCache.Set(key, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMonthSummary(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	year, month := now.Year(), int(now.Month())
	if v := r.URL.Query().Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = n
	}
	if v := r.URL.Query().Get("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 12 {
			writeError(w, http.StatusBadRequest, "invalid month")
			return
		}
		month = n
	}

	key := strconv.Itoa(year) + "-" + strconv.Itoa(month)
	if cached, ok := s.monthCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	resp := monthSummaryResponse{
		Year:  year,
		Month: month,
		Total: core.MonthlySpend(s.snapshot().Expenses, year, month),
	}
	s.monthCache.Set(key, resp)
	writeJSON(w, http.StatusOK, resp)
}
