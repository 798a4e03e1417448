package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var errTemplatesNotLoaded = errors.New("templates not loaded")

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

// handleReady checks templates and that a dataset can be served.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: " + errTemplatesNotLoaded.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if err := s.service.Ready(ctx); err != nil {
		checks["dataset"] = "failed: " + userMessage(err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["dataset"] = "ok"
	}

	if s.loader != nil {
		checks["cache"] = map[string]any{
			"entries": s.loader.Cache().Size(),
			"status":  "ok",
		}
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.limiter.ActiveClients(),
		"status":         "ok",
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.detector.GetMetrics()
	rateLimitMetrics := s.limiter.GetMetrics()
	traceMetrics := s.tracer.GetMetrics()
	uptime := time.Since(s.started)

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_response_time_microseconds_avg Average response time\n")
	fmt.Fprintf(w, "# TYPE http_response_time_microseconds_avg gauge\n")
	fmt.Fprintf(w, "http_response_time_microseconds_avg %d\n\n", traceMetrics.AverageResponseTime)

	if s.loader != nil {
		st := s.loader.Stats()
		fmt.Fprintf(w, "# HELP loader_cache_hits_total Sheet loads served from cache\n")
		fmt.Fprintf(w, "# TYPE loader_cache_hits_total counter\n")
		fmt.Fprintf(w, "loader_cache_hits_total %d\n\n", st.Hits)

		fmt.Fprintf(w, "# HELP loader_cache_misses_total Sheet loads that needed a fetch\n")
		fmt.Fprintf(w, "# TYPE loader_cache_misses_total counter\n")
		fmt.Fprintf(w, "loader_cache_misses_total %d\n\n", st.Misses)

		fmt.Fprintf(w, "# HELP loader_fetches_total Fetch attempts against the source\n")
		fmt.Fprintf(w, "# TYPE loader_fetches_total counter\n")
		fmt.Fprintf(w, "loader_fetches_total %d\n\n", st.Fetches)

		fmt.Fprintf(w, "# HELP loader_retries_total Fetch retries after a failure\n")
		fmt.Fprintf(w, "# TYPE loader_retries_total counter\n")
		fmt.Fprintf(w, "loader_retries_total %d\n\n", st.Retries)

		fmt.Fprintf(w, "# HELP loader_failures_total Loads that failed after all attempts\n")
		fmt.Fprintf(w, "# TYPE loader_failures_total counter\n")
		fmt.Fprintf(w, "loader_failures_total %d\n\n", st.Failures)

		fmt.Fprintf(w, "# HELP cache_entries Current cache entries\n")
		fmt.Fprintf(w, "# TYPE cache_entries gauge\n")
		fmt.Fprintf(w, "cache_entries %d\n\n", s.loader.Cache().Size())
	}

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n\n", uptime.Seconds())
}
