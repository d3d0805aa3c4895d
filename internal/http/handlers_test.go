package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pennyjar/internal/config"
	"pennyjar/internal/ledger"
	"pennyjar/internal/services"
	"pennyjar/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := ledger.Open(context.Background(), storage.NewMemory(), nil)
	require.NoError(t, err)
	svc := services.NewLedgerService(store, nil, nil)
	cfg := &config.Config{
		AllowedOrigin:      "http://localhost:3000",
		RateLimitPerMinute: 1000,
	}
	return NewServer(":0", svc, cfg, nil)
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestSetupExpenseSummaryFlow(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/setup", map[string]any{
		"checking_balance": 1000,
		"rent_amount":      1200,
		"payroll_amount":   1500,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode(t, rec)
	accounts := state["accounts"].([]any)
	require.Len(t, accounts, 1)
	assert.Equal(t, float64(1000), accounts[0].(map[string]any)["balance"])

	rec = doJSON(t, s, http.MethodPost, "/api/expenses", map[string]any{
		"name":     "Coffee",
		"category": "Food",
		"amount":   4.5,
		"date":     "2024-01-05",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.NotEmpty(t, body["created_txn_id"])
	exp := body["expense"].(map[string]any)
	assert.Equal(t, "Coffee", exp["name"])

	rec = doJSON(t, s, http.MethodGet, "/api/balances", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	accounts = decode(t, rec)["accounts"].([]any)
	assert.Equal(t, 995.5, accounts[0].(map[string]any)["balance"])

	rec = doJSON(t, s, http.MethodGet, "/api/summary/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode(t, rec)
	assert.Equal(t, 4.5, summary["total"])
	entries := summary["entries"].([]any)
	require.Len(t, entries, 1)
	assert.Equal(t, "Food", entries[0].(map[string]any)["category"])

	rec = doJSON(t, s, http.MethodGet, "/api/summary/month?year=2024&month=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4.5, decode(t, rec)["total"])

	// Reset wipes everything and the summary cache with it.
	rec = doJSON(t, s, http.MethodPost, "/api/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/summary/month?year=2024&month=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decode(t, rec)["total"])
}

func TestLogExpenseValidation(t *testing.T) {
	s := newTestServer(t)
	doJSON(t, s, http.MethodPost, "/api/setup", map[string]any{"checking_balance": 100})

	cases := []map[string]any{
		{"name": "", "category": "Food", "amount": 5, "date": "2024-01-05"},
		{"name": "Coffee", "category": "Food", "amount": 0, "date": "2024-01-05"},
		{"name": "Coffee", "category": "Food", "amount": -5, "date": "2024-01-05"},
	}
	for i, body := range cases {
		rec := doJSON(t, s, http.MethodPost, "/api/expenses", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "case %d: %s", i, rec.Body.String())
	}

	rec := doJSON(t, s, http.MethodPost, "/api/expenses", map[string]any{
		"name": "Coffee", "category": "Food", "amount": 5, "date": "not-a-date",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostTransactionUnknownAccount(t *testing.T) {
	s := newTestServer(t)
	doJSON(t, s, http.MethodPost, "/api/setup", map[string]any{"checking_balance": 100})

	rec := doJSON(t, s, http.MethodPost, "/api/transactions", map[string]any{
		"name":       "Transfer",
		"amount":     10,
		"date":       "2024-01-05",
		"account_id": "acc_savings",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAutopayEndpoints(t *testing.T) {
	s := newTestServer(t)
	doJSON(t, s, http.MethodPost, "/api/setup", map[string]any{
		"checking_balance": 1000, "rent_amount": 1200, "payroll_amount": 1500,
	})

	rec := doJSON(t, s, http.MethodPost, "/api/autopay/rent", map[string]any{"date": "2024-01-01"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["ok"])
	assert.NotEmpty(t, body["txn_id"])
	assert.NotEmpty(t, body["expense_id"])

	rec = doJSON(t, s, http.MethodPost, "/api/autopay/payroll", map[string]any{"date": "2024-01-15"})
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.NotEmpty(t, body["txn_id"])
	assert.Nil(t, body["expense_id"])

	rec = doJSON(t, s, http.MethodGet, "/api/balances", nil)
	accounts := decode(t, rec)["accounts"].([]any)
	assert.Equal(t, float64(1300), accounts[0].(map[string]any)["balance"])
}

func TestAutopayNoPreferenceSkips(t *testing.T) {
	s := newTestServer(t)
	doJSON(t, s, http.MethodPost, "/api/setup", map[string]any{"checking_balance": 1000})

	rec := doJSON(t, s, http.MethodPost, "/api/autopay/rent", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["skipped"])
}

func TestCategoriesEndpoint(t *testing.T) {
	s := newTestServer(t)
	doJSON(t, s, http.MethodPost, "/api/setup", map[string]any{"checking_balance": 100})

	rec := doJSON(t, s, http.MethodGet, "/api/categories", nil)
	cats := decode(t, rec)["categories"].([]any)
	assert.Len(t, cats, 9)

	rec = doJSON(t, s, http.MethodPost, "/api/categories", map[string]any{"name": "Books"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Books", decode(t, rec)["name"])

	rec = doJSON(t, s, http.MethodPost, "/api/categories", map[string]any{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/categories", nil)
	assert.Len(t, decode(t, rec)["categories"].([]any), 10)
}

func TestAlertsEndpoint(t *testing.T) {
	s := newTestServer(t)
	doJSON(t, s, http.MethodPost, "/api/setup", map[string]any{"checking_balance": 100})

	rec := doJSON(t, s, http.MethodPost, "/api/alerts", map[string]any{
		"kind":     "rent_due_soon",
		"message":  "Rent is due in 3 day(s) on 2024-02-01.",
		"severity": "medium",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	alert := decode(t, rec)
	assert.NotEmpty(t, alert["id"])
	assert.NotEmpty(t, alert["created_at"])

	rec = doJSON(t, s, http.MethodGet, "/api/alerts", nil)
	assert.Len(t, decode(t, rec)["alerts"].([]any), 1)
}

func TestPrefsEndpoints(t *testing.T) {
	s := newTestServer(t)
	doJSON(t, s, http.MethodPost, "/api/setup", map[string]any{"checking_balance": 100})

	rec := doJSON(t, s, http.MethodPost, "/api/setup/rent", map[string]any{"amount": 900})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/prefs", nil)
	prefs := decode(t, rec)["prefs"].(map[string]any)
	assert.Equal(t, float64(900), prefs["rent"])
}

func TestMonthSummaryRejectsBadQuery(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/summary/month?month=13", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doJSON(t, s, http.MethodGet, "/api/summary/month?year=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/expenses", nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
