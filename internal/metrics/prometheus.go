// Package metrics provides Prometheus metrics for the workflow service and
// the engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jobmate/workflow-service/internal/analytics"
	"jobmate/workflow-service/internal/pipeline"
)

// Manager owns the workflow metrics. It satisfies cache.Observer and
// engine.Recorder.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	transitions   *prometheus.CounterVec
	cacheRequests *prometheus.CounterVec
	candidates    *prometheus.GaugeVec
	successRate   prometheus.Gauge
	lastRefresh   prometheus.Gauge

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager creates a Manager. Without WithRegistry metrics go to a fresh
// registry, so Go runtime collectors are not exported.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "jobmate",
		subsystem:        "workflow",
		histogramBuckets: prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.transitions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "transitions_total",
		Help:      "Stage transition requests by source, target and outcome",
	}, []string{"from", "to", "outcome"})

	m.cacheRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_requests_total",
		Help:      "Result cache lookups by class and result (hit or miss)",
	}, []string{"class", "result"})

	m.candidates = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "candidates",
		Help:      "Applications currently in each stage",
	}, []string{"stage"})

	m.successRate = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "success_rate_percent",
		Help:      "Share of applications that passed the interview",
	})

	m.lastRefresh = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "analytics_last_refresh_unix",
		Help:      "Unix time of the last analytics gauge refresh",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// Registry returns the registry metrics are registered on.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveTransition counts one transition outcome.
func (m *Manager) ObserveTransition(from, to pipeline.Stage, outcome string) {
	m.transitions.WithLabelValues(string(from), string(to), outcome).Inc()
}

// CacheHit counts a fresh cache read.
func (m *Manager) CacheHit(class string) {
	m.cacheRequests.WithLabelValues(class, "hit").Inc()
}

// CacheMiss counts a cache recomputation.
func (m *Manager) CacheMiss(class string) {
	m.cacheRequests.WithLabelValues(class, "miss").Inc()
}

// SetStageAnalytics publishes per-stage counts and the success rate.
func (m *Manager) SetStageAnalytics(a analytics.StageAnalytics) {
	for _, s := range pipeline.Stages() {
		m.candidates.WithLabelValues(string(s)).Set(float64(a.Counts[s]))
	}
	m.successRate.Set(a.SuccessRate)
	m.lastRefresh.Set(float64(time.Now().Unix()))
}

// Middleware records request counts and durations. The endpoint label is
// the matched ServeMux pattern, so path parameters do not explode
// cardinality.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		endpoint := r.Pattern
		if endpoint == "" {
			endpoint = "unmatched"
		}
		code := strconv.Itoa(wrapped.statusCode)
		m.httpRequests.WithLabelValues(endpoint, r.Method, code).Inc()
		m.httpRequestDuration.WithLabelValues(endpoint, r.Method, code).Observe(time.Since(start).Seconds())
	})
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
