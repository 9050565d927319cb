package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"scadenze/internal/log"
	"scadenze/internal/middleware/ratelimit"
	"scadenze/internal/middleware/security"
	"scadenze/internal/middleware/trace"
	"scadenze/internal/ports"
)

const readyTimeout = 2 * time.Second

// Deps are the services the API serves. Ready may be nil.
type Deps struct {
	Entries     ports.EntryManager
	Aggregator  ports.Aggregator
	Dashboard   ports.DashboardReader
	Reports     ports.ReportStore
	Settings    ports.SettingsStore
	Maintenance ports.Maintainer
	Ready       ports.ReadinessChecker
}

// Options tune the middleware chain.
type Options struct {
	Logger             *log.Logger
	RateLimitPerMinute int
	EnableHSTS         bool
}

// Server is the JSON API. It embeds http.Server so callers can ListenAndServe directly.
type Server struct {
	http.Server

	deps     Deps
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware. Mutating requests are rate limited per client IP.
func NewServer(addr string, deps Deps, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		Server:   http.Server{Addr: addr},
		deps:     deps,
		logger:   logger,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector: security.NewDetector(),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	s.routes(mux)

	headers := security.DefaultHeadersConfig()
	headers.EnableHSTS = opts.EnableHSTS

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, ratelimit.MutatingOnly, s.onRateLimited)(h)
	h = security.NewHeadersMiddleware(headers).Middleware(h)
	h = s.detector.Middleware(logger)(h)
	h = s.tracer.Middleware(h)
	s.Handler = h

	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /entries", s.handleCreateEntry)
	mux.HandleFunc("GET /entries", s.handleListEntries)
	mux.HandleFunc("GET /entries/{id}", s.handleGetEntry)
	mux.HandleFunc("PATCH /entries/{id}", s.handleUpdateEntry)
	mux.HandleFunc("DELETE /entries/{id}", s.handleDeleteEntry)
	mux.HandleFunc("GET /entries/{id}/payments", s.handleListPayments)
	mux.HandleFunc("GET /payments/{id}", s.handleGetPayment)
	mux.HandleFunc("PUT /payments/{id}/status", s.handleUpdatePaymentStatus)

	mux.HandleFunc("POST /aggregate", s.handleAggregate)

	mux.HandleFunc("GET /dashboard/summary", s.handleSummary)
	mux.HandleFunc("GET /dashboard/monthly", s.handleMonthlySeries)
	mux.HandleFunc("GET /dashboard/expense-breakdown", s.handleExpenseBreakdown)
	mux.HandleFunc("GET /dashboard/upcoming", s.handleUpcoming)
	mux.HandleFunc("GET /dashboard/overdue", s.handleOverdue)
	mux.HandleFunc("GET /dashboard/years", s.handleYears)
	mux.HandleFunc("GET /dashboard/cashflow", s.handleCashFlow)

	mux.HandleFunc("POST /reports", s.handleCreateReport)
	mux.HandleFunc("GET /reports", s.handleListReports)
	mux.HandleFunc("GET /reports/{id}", s.handleGetReport)
	mux.HandleFunc("PUT /reports/{id}", s.handleUpdateReport)
	mux.HandleFunc("DELETE /reports/{id}", s.handleDeleteReport)
	mux.HandleFunc("GET /reports/{id}/run", s.handleRunReport)

	mux.HandleFunc("GET /categories", s.handleListCategories)
	mux.HandleFunc("POST /categories", s.handleCreateCategory)
	mux.HandleFunc("GET /settings", s.handleListSettings)
	mux.HandleFunc("GET /settings/{key}", s.handleGetSetting)
	mux.HandleFunc("PUT /settings/{key}", s.handleSetSetting)

	mux.HandleFunc("POST /admin/reset", s.handleReset)
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	TooManyRequestsError().Write(w)
}

// Shutdown stops the rate limiter and gracefully shuts down the HTTP server. It is
// safe to call more than once; only the first call has effect.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := s.deps.Ready.Ready(ctx); err != nil {
			s.logger.WarnContext(ctx, "Readiness check failed", log.FieldError, err.Error())
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
