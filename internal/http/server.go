// Package http exposes the ledger over a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"pennyjar/internal/cache"
	"pennyjar/internal/config"
	"pennyjar/internal/core"
	"pennyjar/internal/ledger"
	"pennyjar/internal/log"
	"pennyjar/internal/services"
)

const (
	summaryCacheSize = 64
	summaryCacheTTL  = 30 * time.Second
	cacheSweepEvery  = 10 * time.Minute
)

// Server wires the router, rate limiter and summary caches around the
// ledger service.
type Server struct {
	http.Server

	svc    *services.LedgerService
	store  *ledger.Store
	logger *log.Logger

	allowedOrigin string
	limiter       *rateLimiter

	// Summaries are cheap but hot; cache them briefly and purge on any
	// mutation so reads never go stale.
	categoryCache *cache.LRU[categorySummaryResponse]
	monthCache    *cache.LRU[monthSummaryResponse]
	janitor       *cache.Janitor

	stopJanitor  context.CancelFunc
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server listening on addr.
func NewServer(addr string, svc *services.LedgerService, cfg *config.Config, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}

	s := &Server{
		svc:           svc,
		store:         svc.Store(),
		logger:        logger,
		allowedOrigin: cfg.AllowedOrigin,
		limiter:       newRateLimiter(cfg.RateLimitPerMinute),
		categoryCache: cache.New[categorySummaryResponse](summaryCacheSize, summaryCacheTTL),
		monthCache:    cache.New[monthSummaryResponse](summaryCacheSize, summaryCacheTTL),
		janitor:       cache.NewJanitor(cacheSweepEvery),
	}
	s.janitor.Register(s.categoryCache)
	s.janitor.Register(s.monthCache)

	janitorCtx, cancel := context.WithCancel(context.Background())
	s.stopJanitor = cancel
	go s.janitor.Run(janitorCtx)

	s.Server = http.Server{
		Addr:         addr,
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.corsMiddleware)
	r.Use(log.RequestLogger(s.logger))
	r.Use(s.rateLimitMiddleware)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/setup", s.handleSetup)
		r.Post("/reset", s.handleReset)
		r.Post("/setup/checking", s.handleSetCheckingBalance)
		r.Post("/setup/rent", s.handleSetRentAmount)
		r.Post("/setup/payroll", s.handleSetPayrollAmount)
		r.Get("/prefs", s.handleGetPrefs)

		r.Get("/balances", s.handleGetBalances)

		r.Get("/transactions", s.handleListTransactions)
		r.Post("/transactions", s.handlePostTransaction)

		r.Get("/expenses", s.handleListExpenses)
		r.Post("/expenses", s.handleLogExpense)

		r.Get("/alerts", s.handleListAlerts)
		r.Post("/alerts", s.handlePostAlert)

		r.Get("/categories", s.handleListCategories)
		r.Post("/categories", s.handleAddCategory)

		r.Post("/autopay/rent", s.handleAutopayRent)
		r.Post("/autopay/payroll", s.handleAutopayPayroll)

		r.Get("/summary/categories", s.handleCategorySummary)
		r.Get("/summary/month", s.handleMonthSummary)
	})

	return r
}

// invalidateSummaries purges both summary caches. Called after every
// mutation.
func (s *Server) invalidateSummaries() {
	s.categoryCache.Purge()
	s.monthCache.Purge()
}

// Shutdown stops the janitor and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if s.stopJanitor != nil {
			s.stopJanitor()
		}
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// snapshot gives handlers one consistent view per request.
func (s *Server) snapshot() *core.State {
	return s.store.Snapshot()
}
