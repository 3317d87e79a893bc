package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Histogram bucket definitions.
var (
	httpDurationBuckets    = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	backendDurationBuckets = []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}
	rowCountBuckets        = []float64{0, 10, 50, 100, 250, 500, 1000}
)

// Metrics holds all Prometheus metric instruments for the admin server.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Backend metrics
	BackendRequestsTotal       *prometheus.CounterVec
	BackendRequestDuration     *prometheus.HistogramVec
	BackendCircuitBreakerState prometheus.Gauge

	// Listing metrics
	ListRequestsTotal *prometheus.CounterVec
	ListRowsFetched   *prometheus.HistogramVec
	StaleResponses    prometheus.Counter

	// Session metrics
	SessionsClearedTotal *prometheus.CounterVec
	LoginsTotal          *prometheus.CounterVec

	// System metrics
	DefinitionsLoaded prometheus.Gauge
}

// InitMetrics creates and registers all Prometheus metric instruments.
func InitMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cebee_admin_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cebee_admin_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: httpDurationBuckets,
		}, []string{"method", "path_pattern"}),

		BackendRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cebee_admin_backend_requests_total",
			Help: "Total number of backend requests by method and status.",
		}, []string{"method", "status"}),
		BackendRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cebee_admin_backend_request_duration_seconds",
			Help:    "Backend request duration in seconds.",
			Buckets: backendDurationBuckets,
		}, []string{"method"}),
		BackendCircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cebee_admin_backend_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open).",
		}),

		ListRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cebee_admin_list_requests_total",
			Help: "Total number of resource listings by resource and outcome.",
		}, []string{"resource", "outcome"}),
		ListRowsFetched: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cebee_admin_list_rows_fetched",
			Help:    "Rows fetched from the backend per listing.",
			Buckets: rowCountBuckets,
		}, []string{"resource"}),
		StaleResponses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cebee_admin_stale_responses_total",
			Help: "List responses discarded because a newer request was issued.",
		}),

		SessionsClearedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cebee_admin_sessions_cleared_total",
			Help: "Sessions cleared, by reason (logout, unauthorized).",
		}, []string{"reason"}),
		LoginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cebee_admin_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),

		DefinitionsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cebee_admin_definitions_loaded",
			Help: "Number of loaded resource and content definitions.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.BackendRequestsTotal,
		m.BackendRequestDuration,
		m.BackendCircuitBreakerState,
		m.ListRequestsTotal,
		m.ListRowsFetched,
		m.StaleResponses,
		m.SessionsClearedTotal,
		m.LoginsTotal,
		m.DefinitionsLoaded,
	)

	return m
}

// --- Recording helpers ---
//
// All helpers are nil-safe so packages can take an optional *Metrics.

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(method, pathPattern string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, pathPattern, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pathPattern).Observe(duration.Seconds())
}

// RecordBackendRequest records a backend request. Status 0 means no response.
func (m *Metrics) RecordBackendRequest(method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.BackendRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.BackendRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// SetBackendCircuitBreakerState sets the breaker state gauge.
// State: 0=closed, 1=half-open, 2=open.
func (m *Metrics) SetBackendCircuitBreakerState(state float64) {
	if m == nil {
		return
	}
	m.BackendCircuitBreakerState.Set(state)
}

// RecordList records one listing of a resource.
func (m *Metrics) RecordList(resourceID, outcome string, fetched int) {
	if m == nil {
		return
	}
	m.ListRequestsTotal.WithLabelValues(resourceID, outcome).Inc()
	if outcome == "ok" {
		m.ListRowsFetched.WithLabelValues(resourceID).Observe(float64(fetched))
	}
}

// RecordStaleResponse records a discarded out-of-order list response.
func (m *Metrics) RecordStaleResponse() {
	if m == nil {
		return
	}
	m.StaleResponses.Inc()
}

// RecordSessionCleared records a session teardown.
func (m *Metrics) RecordSessionCleared(reason string) {
	if m == nil {
		return
	}
	m.SessionsClearedTotal.WithLabelValues(reason).Inc()
}

// RecordLogin records a login attempt.
func (m *Metrics) RecordLogin(outcome string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(outcome).Inc()
}

// SetDefinitionsLoaded sets the number of loaded definitions.
func (m *Metrics) SetDefinitionsLoaded(count float64) {
	if m == nil {
		return
	}
	m.DefinitionsLoaded.Set(count)
}

// --- HTTP Middleware ---

// MetricsMiddleware returns HTTP middleware that records request metrics using
// chi's route pattern (not the actual URL path) to avoid label cardinality
// explosion.
func (m *Metrics) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		m.RecordHTTPRequest(r.Method, routePattern(r), sw.status, time.Since(start))
	})
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor returns a /metrics handler serving the given gatherer.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// routePattern extracts chi's route pattern from the request context.
// Falls back to the raw URL path if no pattern is found.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.URL.Path
	}
	pattern := strings.Join(rctx.RoutePatterns, "")
	pattern = strings.TrimSuffix(pattern, "/*")
	if pattern == "" {
		return r.URL.Path
	}
	return pattern
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	return w.ResponseWriter.Write(b)
}
