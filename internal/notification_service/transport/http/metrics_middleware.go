package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// unmatchedRoute labels requests chi could not route, keeping label cardinality bounded.
const unmatchedRoute = "unmatched"

var (
	webhookRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notification",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Inbound HTTP requests by route and response code.",
	}, []string{"method", "route", "code"})

	webhookLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "notification",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Inbound HTTP request latency by route.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "route"})
)

// requestSummary is what both middlewares record about a finished request.
type requestSummary struct {
	method   string
	route    string
	status   int
	duration time.Duration
}

// serveAndSummarize runs next and reports the matched route pattern and final status.
// A handler that never writes counts as 200, as net/http would send it.
func serveAndSummarize(next http.Handler, w http.ResponseWriter, r *http.Request) requestSummary {
	start := time.Now()
	ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
	next.ServeHTTP(ww, r)

	status := ww.Status()
	if status == 0 {
		status = http.StatusOK
	}
	return requestSummary{
		method:   r.Method,
		route:    routePattern(r),
		status:   status,
		duration: time.Since(start),
	}
}

// routePattern returns the chi pattern that matched r, e.g. "/webhooks/cal".
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return unmatchedRoute
}

// PrometheusMetricsMiddleware counts requests and observes latency per route pattern.
// Raw paths are never used as labels.
func PrometheusMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := serveAndSummarize(next, w, r)
		webhookLatency.WithLabelValues(s.method, s.route).Observe(s.duration.Seconds())
		webhookRequests.WithLabelValues(s.method, s.route, strconv.Itoa(s.status)).Inc()
	})
}

// RequestLogger logs one line per request with route, status, duration and request id.
func RequestLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := serveAndSummarize(next, w, r)
			level := slog.LevelInfo
			if s.status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.LogAttrs(r.Context(), level, "HTTP request",
				slog.String("method", s.method),
				slog.String("path", r.URL.Path),
				slog.String("route", s.route),
				slog.Int("status_code", s.status),
				slog.Int64("duration_ms", s.duration.Milliseconds()),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("remote_ip", r.RemoteAddr),
			)
		})
	}
}
