// Package trace tags requests with an id, writes the access log and keeps
// request counters.
package trace

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"bookkeep/internal/log"
)

type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"

	// RequestIDHeader is read from the request and echoed on the response.
	RequestIDHeader = "X-Request-ID"

	requestIDPrefix = "req_"
)

var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

type counters struct {
	requests     atomic.Int64
	clientErrors atomic.Int64
	serverErrors atomic.Int64
	micros       atomic.Int64
}

func (c *counters) observe(status int, d time.Duration) {
	c.requests.Add(1)
	c.micros.Add(d.Microseconds())
	switch {
	case status >= 500:
		c.serverErrors.Add(1)
	case status >= 400:
		c.clientErrors.Add(1)
	}
}

// Middleware traces every request through the chain.
type Middleware struct {
	clientIP func(*http.Request) string
	stats    counters
}

// Metrics is a snapshot of request counters.
type Metrics struct {
	TotalRequests       int64
	ClientErrors        int64
	ServerErrors        int64
	AverageResponseTime int64 // microseconds
}

func NewMiddleware(clientIP func(*http.Request) string) *Middleware {
	return &Middleware{clientIP: clientIP}
}

// GenerateRequestID returns a fresh id in the form req_<hex>.
func GenerateRequestID() string {
	return requestIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

func requestID(r *http.Request) string {
	if id := r.Header.Get(RequestIDHeader); validRequestID.MatchString(id) {
		return id
	}
	return GenerateRequestID()
}

// GetRequestID extracts the request id from ctx.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := requestID(r)
		w.Header().Set(RequestIDHeader, id)

		var ip string
		if m.clientIP != nil {
			ip = m.clientIP(r)
		}

		logger := log.FromContext(r.Context()).With(log.FieldRequestID, id)
		ctx := context.WithValue(r.Context(), RequestIDKey, id)
		ctx = log.NewContext(ctx, logger)
		r = r.WithContext(ctx)

		access := log.NewStructuredLogger(logger.WithComponent(log.ComponentHTTP))
		access.LogHTTPStart(ctx, r, ip)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		m.stats.observe(rec.status, elapsed)
		access.LogHTTPEnd(ctx, r, rec.status, elapsed.Milliseconds(), rec.bytes, ip)
	})
}

func (m *Middleware) GetMetrics() Metrics {
	n := m.stats.requests.Load()
	var avg int64
	if n > 0 {
		avg = m.stats.micros.Load() / n
	}
	return Metrics{
		TotalRequests:       n,
		ClientErrors:        m.stats.clientErrors.Load(),
		ServerErrors:        m.stats.serverErrors.Load(),
		AverageResponseTime: avg,
	}
}

// statusRecorder remembers the first status written and counts body bytes.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	bytes   int
	written bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.written {
		s.status = code
		s.written = true
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	s.written = true
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}
