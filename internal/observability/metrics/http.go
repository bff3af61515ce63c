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

	"github.com/kirillkom/document-inbox/internal/core/domain"
)

const namespace = "inbox"

// HTTPServerMetrics owns the API registry: request metrics plus catalog activity.
type HTTPServerMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	documentsAppended   *prometheus.CounterVec
	documentsClassified *prometheus.CounterVec
	classificationBatch prometheus.Histogram
	publishFailures     *prometheus.CounterVec
	breakerStateChanges *prometheus.CounterVec
	rateLimitedRequests prometheus.Counter
	overloadedRequests  prometheus.Counter
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service}

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
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
	documentsAppended := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "catalog",
			Name:        "documents_appended_total",
			Help:        "Documents appended to session catalogs by format class.",
			ConstLabels: constLabels,
		},
		[]string{"format_class"},
	)
	documentsClassified := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "catalog",
			Name:        "documents_classified_total",
			Help:        "Documents moved to classified by category.",
			ConstLabels: constLabels,
		},
		[]string{"category"},
	)
	classificationBatch := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "catalog",
			Name:        "classification_pass_documents",
			Help:        "Documents changed by one classification pass.",
			Buckets:     []float64{1, 2, 5, 10, 20, 50, 100, 200},
			ConstLabels: constLabels,
		},
	)
	publishFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "events",
			Name:        "publish_failures_total",
			Help:        "Catalog events that could not be published.",
			ConstLabels: constLabels,
		},
		[]string{"event_type"},
	)
	breakerStateChanges := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "resilience",
			Name:        "breaker_state_changes_total",
			Help:        "Circuit breaker transitions by operation and target state.",
			ConstLabels: constLabels,
		},
		[]string{"operation", "state"},
	)
	rateLimitedRequests := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "rate_limited_total",
			Help:        "Requests rejected by the rate limiter.",
			ConstLabels: constLabels,
		},
	)
	overloadedRequests := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "overloaded_total",
			Help:        "Requests rejected because the in-flight limit was reached.",
			ConstLabels: constLabels,
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		documentsAppended,
		documentsClassified,
		classificationBatch,
		publishFailures,
		breakerStateChanges,
		rateLimitedRequests,
		overloadedRequests,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		service:             service,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		documentsAppended:   documentsAppended,
		documentsClassified: documentsClassified,
		classificationBatch: classificationBatch,
		publishFailures:     publishFailures,
		breakerStateChanges: breakerStateChanges,
		rateLimitedRequests: rateLimitedRequests,
		overloadedRequests:  overloadedRequests,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(next http.Handler) http.Handler {
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
			m.service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// unmatchedPath labels every request outside the API's routes.
const unmatchedPath = "unmatched"

var routeTemplates = map[string]struct{}{
	"/healthz":                            {},
	"/metrics":                            {},
	"/v1/sessions":                        {},
	"/v1/sessions/{session_id}":           {},
	"/v1/sessions/{session_id}/theme":     {},
	"/v1/sessions/{session_id}/documents": {},
	"/v1/sessions/{session_id}/documents/{document_id}": {},
	"/v1/sessions/{session_id}/folders":                 {},
	"/v1/sessions/{session_id}/folders/{format_class}":  {},
	"/v1/sessions/{session_id}/stats":                   {},
	"/v1/sessions/{session_id}/export":                  {},
}

// normalizePath maps a request path to its route template so label cardinality stays
// bounded. Paths matching no route share one label.
func normalizePath(path string) string {
	template := path
	if rest, ok := strings.CutPrefix(path, "/v1/sessions/"); ok && rest != "" {
		parts := strings.Split(rest, "/")
		parts[0] = "{session_id}"
		if len(parts) >= 3 {
			switch parts[1] {
			case "documents":
				parts[2] = "{document_id}"
			case "folders":
				parts[2] = "{format_class}"
			}
		}
		template = "/v1/sessions/" + strings.Join(parts, "/")
	}
	if _, ok := routeTemplates[template]; ok {
		return template
	}
	return unmatchedPath
}

func (m *HTTPServerMetrics) RecordAppended(class domain.FormatClass) {
	m.documentsAppended.WithLabelValues(string(class)).Inc()
}

func (m *HTTPServerMetrics) RecordClassified(category domain.Category) {
	m.documentsClassified.WithLabelValues(string(category)).Inc()
}

func (m *HTTPServerMetrics) RecordClassificationBatch(size int) {
	if size <= 0 {
		return
	}
	m.classificationBatch.Observe(float64(size))
}

func (m *HTTPServerMetrics) RecordPublishFailure(eventType string) {
	if eventType == "" {
		eventType = "unknown"
	}
	m.publishFailures.WithLabelValues(eventType).Inc()
}

func (m *HTTPServerMetrics) RecordBreakerState(operation, state string) {
	m.breakerStateChanges.WithLabelValues(operation, state).Inc()
}

func (m *HTTPServerMetrics) RecordRateLimited() {
	m.rateLimitedRequests.Inc()
}

func (m *HTTPServerMetrics) RecordOverloaded() {
	m.overloadedRequests.Inc()
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
