package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"bookkeep/internal/log"
	"bookkeep/internal/middleware/ratelimit"
	"bookkeep/internal/middleware/security"
	"bookkeep/internal/middleware/trace"
	"bookkeep/internal/services"
)

const (
	readTimeout    = 15 * time.Second
	writeTimeout   = 30 * time.Second
	idleTimeout    = 60 * time.Second
	maxUploadBytes = 32 << 20
)

// ReadinessCheck reports whether a dependency can serve requests.
type ReadinessCheck func(ctx context.Context) error

// Dependencies groups what the handlers call into.
type Dependencies struct {
	Entries  *services.EntryService
	Payments *services.PaymentService
	Queue    *services.QueueService
	Imports  *services.ImportService

	// Checks run on /readyz, keyed by dependency name.
	Checks map[string]ReadinessCheck

	Logger    *log.Logger
	RateLimit ratelimit.Config
}

// Server wraps http.Server with the ledger API routes and middleware.
type Server struct {
	http.Server

	entries  *services.EntryService
	payments *services.PaymentService
	queue    *services.QueueService
	imports  *services.ImportService
	checks   map[string]ReadinessCheck

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	now          func() time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	detector := security.NewDetector()

	s := &Server{
		entries:  deps.Entries,
		payments: deps.Payments,
		queue:    deps.Queue,
		imports:  deps.Imports,
		checks:   deps.Checks,
		limiter:  ratelimit.NewLimiter(deps.RateLimit),
		detector: detector,
		tracer:   trace.NewMiddleware(detector.ExtractClientIP),
		now:      time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/entries", s.handleListEntries)
	mux.HandleFunc("POST /api/entries", s.handleCreateEntry)
	mux.HandleFunc("DELETE /api/entries/{id}", s.handleDeleteEntry)
	mux.HandleFunc("GET /api/reports/monthly", s.handleMonthReport)

	mux.HandleFunc("GET /api/payments", s.handlePaymentView)
	mux.HandleFunc("POST /api/payments/new", s.handleAddNewPayment)
	mux.HandleFunc("POST /api/payments/paid", s.handleAddPaidPayment)
	mux.HandleFunc("DELETE /api/payments/{id}", s.handleDeletePayment)
	mux.HandleFunc("GET /api/payments/carry-forward", s.handleGetCarryForward)
	mux.HandleFunc("PUT /api/payments/carry-forward", s.handleSetCarryForward)

	mux.HandleFunc("GET /api/queue", s.handleQueueView)
	mux.HandleFunc("POST /api/queue", s.handleAddQueueItem)
	mux.HandleFunc("PUT /api/queue/{id}/status", s.handleSetQueueStatus)
	mux.HandleFunc("POST /api/queue/{id}/toggle", s.handleToggleQueueItem)
	mux.HandleFunc("PUT /api/queue/{id}/vendor", s.handleRenameQueueVendor)
	mux.HandleFunc("DELETE /api/queue/{id}", s.handleDeleteQueueItem)

	mux.HandleFunc("POST /api/imports", s.handleImport)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded, try again later").Write(w)
	}, http.MethodGet, http.MethodHead)

	var handler http.Handler = mux
	handler = limit(handler)
	handler = detector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = s.tracer.Middleware(handler)
	handler = log.ComponentMiddleware(log.ComponentHTTP)(handler)
	handler = log.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
	return s
}

// Shutdown stops background routines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
