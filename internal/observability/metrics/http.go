package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPServerMetrics carries the API-process instrumentation: generic HTTP
// request metrics plus the retrieval-pipeline observations.
type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	queriesTotal    *prometheus.CounterVec
	queryStages     *prometheus.HistogramVec
	queryConfidence *prometheus.HistogramVec
	queryChunks     *prometheus.HistogramVec
	queryDuration   *prometheus.HistogramVec
	fallbacksTotal  *prometheus.CounterVec
	cacheTotal      *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aret",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aret",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "aret",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aret",
			Subsystem: "retrieval",
			Name:      "queries_total",
			Help:      "Total retrieval queries by resolved strategy trail.",
		},
		[]string{"service", "strategy"},
	)
	queryStages := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aret",
			Subsystem: "retrieval",
			Name:      "stages",
			Help:      "Distribution of executed stages per query.",
			Buckets:   []float64{1, 2, 3},
		},
		[]string{"service"},
	)
	queryConfidence := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aret",
			Subsystem: "retrieval",
			Name:      "confidence",
			Help:      "Distribution of final confidence per query.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.85, 0.9, 0.95, 1},
		},
		[]string{"service"},
	)
	queryChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aret",
			Subsystem: "retrieval",
			Name:      "result_chunks",
			Help:      "Distribution of returned chunks per query.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	queryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aret",
			Subsystem: "retrieval",
			Name:      "duration_seconds",
			Help:      "Retrieval execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	fallbacksTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aret",
			Subsystem: "retrieval",
			Name:      "fallbacks_total",
			Help:      "Total queries that needed the lowered-threshold fallback.",
		},
		[]string{"service"},
	)
	cacheTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aret",
			Subsystem: "retrieval",
			Name:      "cache_requests_total",
			Help:      "Result cache lookups by outcome.",
		},
		[]string{"service", "outcome"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		queriesTotal,
		queryStages,
		queryConfidence,
		queryChunks,
		queryDuration,
		fallbacksTotal,
		cacheTotal,
	)

	return &HTTPServerMetrics{
		registry:        registry,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestInFlight: requestInFlight,
		queriesTotal:    queriesTotal,
		queryStages:     queryStages,
		queryConfidence: queryConfidence,
		queryChunks:     queryChunks,
		queryDuration:   queryDuration,
		fallbacksTotal:  fallbacksTotal,
		cacheTotal:      cacheTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	default:
		return path
	}
}

// RecordRetrieval observes one completed retrieval query.
func (m *HTTPServerMetrics) RecordRetrieval(service, strategy string, stages, chunks int, confidence float64, duration time.Duration) {
	if strategy == "" {
		strategy = "unknown"
	}
	m.queriesTotal.WithLabelValues(service, strategy).Inc()
	m.queryStages.WithLabelValues(service).Observe(float64(stages))
	m.queryConfidence.WithLabelValues(service).Observe(confidence)
	m.queryChunks.WithLabelValues(service).Observe(float64(chunks))
	m.queryDuration.WithLabelValues(service).Observe(duration.Seconds())

	if strings.Contains(strategy, "fallback") {
		m.fallbacksTotal.WithLabelValues(service).Inc()
	}
}

func (m *HTTPServerMetrics) RecordCacheLookup(service string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cacheTotal.WithLabelValues(service, outcome).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
