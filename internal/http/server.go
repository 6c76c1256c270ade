package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"debtplan/internal/core"
	"debtplan/internal/ledger"
	dlog "debtplan/internal/log"
	"debtplan/internal/middleware/ratelimit"
	"debtplan/internal/middleware/security"
	"debtplan/internal/middleware/trace"
)

type loanService interface {
	AddLoan(ctx context.Context, rec core.LoanRecord) (int64, error)
	ListLoans(ctx context.Context) ([]core.LoanRecord, error)
	GetLoan(ctx context.Context, id int64) (core.LoanRecord, error)
	UpdateLoan(ctx context.Context, rec core.LoanRecord) error
	DeleteLoan(ctx context.Context, id int64) error
	RequestRefresh(ctx context.Context) (bool, error)
}

type planService interface {
	Plan(ctx context.Context, budget float64, strategy core.Strategy, cascade bool) (core.SimulationResult, error)
	Compare(ctx context.Context, budget float64, cascade bool) (core.Comparison, error)
	CompareLoans(ctx context.Context, loans []core.Loan, budget float64, cascade bool) (core.Comparison, error)
	Simulate(ctx context.Context, loans []core.Loan, budget float64, strategy core.Strategy, cascade bool) (core.SimulationResult, error)
}

// Deps are the services the API is served from. Snapshots and Ready may be nil.
type Deps struct {
	Loans     loanService
	Plans     planService
	Snapshots ledger.PlanReader
	Ready     func(ctx context.Context) error
}

// Options tune the middleware chain.
type Options struct {
	RateLimitPerMinute int
	Logger             *dlog.Logger
}

type Server struct {
	http.Server
	loans     loanService
	plans     planService
	snapshots ledger.PlanReader
	ready     func(ctx context.Context) error

	detector     *security.Detector
	limiter      *ratelimit.Limiter
	tracer       *trace.Middleware
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = dlog.FromContext(context.Background()).WithComponent(dlog.ComponentHTTP)
	}

	rlCfg := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		rlCfg.RequestsPerMinute = opts.RateLimitPerMinute
	}

	s := &Server{
		loans:     deps.Loans,
		plans:     deps.Plans,
		snapshots: deps.Snapshots,
		ready:     deps.Ready,
		detector:  security.NewDetector(),
		limiter:   ratelimit.NewLimiter(rlCfg),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /loans", s.handleListLoans)
	mux.HandleFunc("POST /loans", s.handleCreateLoan)
	mux.HandleFunc("GET /loans/{id}", s.handleGetLoan)
	mux.HandleFunc("PUT /loans/{id}", s.handleUpdateLoan)
	mux.HandleFunc("DELETE /loans/{id}", s.handleDeleteLoan)
	mux.HandleFunc("GET /loans/{id}/schedule", s.handleLoanSchedule)
	mux.HandleFunc("GET /loan-types", handleLoanTypes)

	mux.HandleFunc("GET /plan", s.handlePlan)
	mux.HandleFunc("GET /plan/compare", s.handleCompare)
	mux.HandleFunc("POST /simulate", s.handleSimulate)
	mux.HandleFunc("GET /plans/latest", s.handleLatestPlan)
	mux.HandleFunc("POST /plans/refresh", s.handleRefreshPlans)

	mux.HandleFunc("POST /projections", s.handleProjection)

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
	})(h)
	h = s.tracer.Middleware(h)
	h = dlog.Middleware(logger)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.detector.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Stats reports middleware counters.
func (s *Server) Stats() map[string]int64 {
	return map[string]int64{
		"requests":          s.tracer.TotalRequests(),
		"rate_limited":      s.limiter.Rejected(),
		"suspicious":        s.detector.SuspiciousCount(),
		"rate_limit_active": int64(s.limiter.ActiveClients()),
	}
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
