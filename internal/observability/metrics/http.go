package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "studylib"

type HTTPServerMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge
	shedTotal       *prometheus.CounterVec

	uploadsTotal    *prometheus.CounterVec
	uploadBytes     prometheus.Histogram
	deletesTotal    *prometheus.CounterVec
	authChecksTotal *prometheus.CounterVec
	breakerState    *prometheus.GaugeVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service}

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "requests_total",
			Help:        "Total HTTP requests processed.",
			ConstLabels: constLabels,
		},
		[]string{"method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "request_duration_seconds",
			Help:        "HTTP request duration in seconds.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		},
		[]string{"method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "in_flight_requests",
			Help:        "Number of in-flight HTTP requests.",
			ConstLabels: constLabels,
		},
	)
	shedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "shed_requests_total",
			Help:        "Requests rejected by traffic control, by reason.",
			ConstLabels: constLabels,
		},
		[]string{"reason"},
	)
	uploadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "catalog",
			Name:        "uploads_total",
			Help:        "Document uploads by outcome.",
			ConstLabels: constLabels,
		},
		[]string{"outcome"},
	)
	uploadBytes := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "catalog",
			Name:        "upload_size_bytes",
			Help:        "Size of accepted PDF uploads.",
			Buckets:     prometheus.ExponentialBuckets(64*1024, 4, 7),
			ConstLabels: constLabels,
		},
	)
	deletesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "catalog",
			Name:        "deletes_total",
			Help:        "Document deletions by outcome.",
			ConstLabels: constLabels,
		},
		[]string{"outcome"},
	)
	authChecksTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "auth",
			Name:        "checks_total",
			Help:        "Admin code checks by result.",
			ConstLabels: constLabels,
		},
		[]string{"result"},
	)
	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "resilience",
			Name:        "breaker_open",
			Help:        "1 while the circuit breaker of a dependency is open or half-open.",
			ConstLabels: constLabels,
		},
		[]string{"dependency"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		shedTotal,
		uploadsTotal,
		uploadBytes,
		deletesTotal,
		authChecksTotal,
		breakerState,
	)

	return &HTTPServerMetrics{
		registry:        registry,
		service:         service,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestInFlight: requestInFlight,
		shedTotal:       shedTotal,
		uploadsTotal:    uploadsTotal,
		uploadBytes:     uploadBytes,
		deletesTotal:    deletesTotal,
		authChecksTotal: authChecksTotal,
		breakerState:    breakerState,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(r.Method, path, strconv.Itoa(recorder.statusCode)).Inc()
		m.requestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath folds numeric ids and SPA routes so label cardinality stays bounded.
func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/api/") {
		switch path {
		case "/healthz", "/metrics":
			return path
		default:
			return "/static"
		}
	}
	parts := strings.Split(strings.TrimSuffix(path, "/"), "/")
	for i, part := range parts {
		if part == "" {
			continue
		}
		if _, err := strconv.ParseInt(part, 10, 64); err == nil {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

func (m *HTTPServerMetrics) RecordShed(reason string) {
	m.shedTotal.WithLabelValues(reason).Inc()
}

// RecordUpload counts an upload; outcome is "ok" or the rejection reason.
func (m *HTTPServerMetrics) RecordUpload(outcome string, size int64) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.uploadsTotal.WithLabelValues(outcome).Inc()
	if outcome == "ok" && size > 0 {
		m.uploadBytes.Observe(float64(size))
	}
}

func (m *HTTPServerMetrics) RecordDelete(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.deletesTotal.WithLabelValues(outcome).Inc()
}

func (m *HTTPServerMetrics) RecordAuthCheck(granted bool) {
	result := "denied"
	if granted {
		result = "granted"
	}
	m.authChecksTotal.WithLabelValues(result).Inc()
}

// ObserveBreaker matches resilience.StateObserver.
func (m *HTTPServerMetrics) ObserveBreaker(dependency, _, to string) {
	value := 0.0
	if to != "closed" {
		value = 1
	}
	m.breakerState.WithLabelValues(dependency).Set(value)
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
