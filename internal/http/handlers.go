package http

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

const readinessTimeout = 3 * time.Second

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type readinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// handleReady runs every readiness check and answers 503 if any fails.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	resp := readinessResponse{Status: "ready", Checks: make(map[string]string, len(s.checks))}
	status := http.StatusOK
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	NewJSONResponse().Status(status).Data(resp).Write(w)
}

// handleMetrics writes request, rate-limit and detection counters as
// plain text, one "name value" pair per line.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tm := s.tracer.GetMetrics()
	rm := s.limiter.GetMetrics()
	dm := s.detector.GetMetrics()

	counters := map[string]int64{
		"http_requests_total":                tm.TotalRequests,
		"http_client_errors_total":           tm.ClientErrors,
		"http_server_errors_total":           tm.ServerErrors,
		"http_response_time_avg_us":          tm.AverageResponseTime,
		"ratelimit_rejected_total":           rm.Rejected,
		"ratelimit_clients":                  rm.ClientCount,
		"security_suspicious_requests_total": dm.SuspiciousRequests,
		"security_invalid_ip_total":          dm.InvalidIPAttempts,
	}
	names := make([]string, 0, len(counters))
	for name := range counters {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%s %d\n", name, counters[name])
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(b.String()))
}
