// Package httpapi exposes the ledger over HTTP.
// Handlers stay thin and leave every business rule to the book and report services.
package httpapi

import (
    "context"
    "log/slog"
    "net/http"
    "time"

    chi "github.com/go-chi/chi/v5"
    chimw "github.com/go-chi/chi/v5/middleware"

    "github.com/tinoosan/pocketledger/internal/service/book"
    "github.com/tinoosan/pocketledger/internal/service/report"
)

// Server wires handlers and middleware using Chi.
type Server struct {
    book    book.Service
    reports report.Service
    ready   func(context.Context) error
    now     func() time.Time
    log     *slog.Logger
    rt      *chi.Mux
}

// Option customises a Server.
type Option func(*Server)

// WithReadiness sets the probe behind /readyz, typically the storage ping.
func WithReadiness(fn func(context.Context) error) Option {
    return func(s *Server) { s.ready = fn }
}

// WithClock sets the clock used to resolve named report periods.
func WithClock(now func() time.Time) Option {
    return func(s *Server) { s.now = now }
}

// New constructs the HTTP server with routes and middleware.
func New(b book.Service, reports report.Service, logger *slog.Logger, opts ...Option) *Server {
    if logger == nil { logger = slog.Default() }
    r := chi.NewRouter()
    r.Use(chimw.RequestID)
    r.Use(requestLogger(logger))
    r.Use(recoverer(logger))
    r.Use(metricsMiddleware)

    s := &Server{
        book:    b,
        reports: reports,
        now:     time.Now,
        log:     logger,
        rt:      r,
    }
    for _, opt := range opts { opt(s) }
    s.routes()
    return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

func (s *Server) routes() {
    s.rt.Get("/healthz", s.healthz)
    s.rt.Get("/readyz", s.readyz)
    s.rt.Method(http.MethodGet, "/metrics", metricsHandler())

    s.rt.Route("/v1", func(r chi.Router) {
        r.Route("/accounts", func(r chi.Router) {
            r.Get("/", s.listAccounts)
            r.With(requireJSON).Post("/", s.createAccount)
            r.Get("/by-name/{name}/balance", s.accountBalance)
            r.Get("/by-name/{name}/overdraw", s.wouldOverdraw)
            r.Get("/{id}", s.getAccount)
            r.With(requireJSON).Patch("/{id}", s.renameAccount)
            r.Delete("/{id}", s.deleteAccount)
        })
        r.Route("/categories/{type}", func(r chi.Router) {
            r.Get("/", s.listCategories)
            r.With(requireJSON).Post("/", s.addCategory)
            r.With(requireJSON).Patch("/{id}", s.renameCategory)
            r.Delete("/{id}", s.deleteCategory)
        })
        r.Route("/transactions", func(r chi.Router) {
            r.Get("/", s.listTransactions)
            r.With(requireJSON).Post("/income", s.recordIncome)
            r.With(requireJSON).Post("/expense", s.recordExpense)
            r.With(requireJSON).Post("/transfer", s.recordTransfer)
        })
        r.Route("/reports", func(r chi.Router) {
            r.Get("/overview", s.overview)
            r.Get("/balance-sheet", s.balanceSheet)
            r.Get("/categories", s.categoryDistribution)
            r.Get("/accounts/{id}", s.accountActivity)
            r.Get("/goals", s.goalProgress)
        })
        r.Get("/audit", s.audit)
    })
}
