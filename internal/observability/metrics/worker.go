package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/document-inbox/internal/core/domain"
)

// WorkerMetrics covers the catalog event consumer.
type WorkerMetrics struct {
	registry *prometheus.Registry
	service  string

	eventsTotal    *prometheus.CounterVec
	eventDocuments *prometheus.HistogramVec
	eventLag       prometheus.Histogram
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	eventsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "catalog_events_total",
			Help:      "Consumed catalog events by type and status.",
		},
		[]string{"service", "event_type", "status"},
	)
	eventDocuments := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "catalog_event_documents",
			Help:      "Documents carried by one catalog event.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 200},
		},
		[]string{"service", "event_type"},
	)
	eventLag := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "worker",
			Name:        "catalog_event_lag_seconds",
			Help:        "Delay between an event occurring and its consumption.",
			Buckets:     []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			ConstLabels: prometheus.Labels{"service": service},
		},
	)

	registry.MustRegister(eventsTotal, eventDocuments, eventLag)

	return &WorkerMetrics{
		registry:       registry,
		service:        service,
		eventsTotal:    eventsTotal,
		eventDocuments: eventDocuments,
		eventLag:       eventLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveEvent records one consumed event. Types other than the known catalog events are
// labelled "unknown", whatever arrived on the wire.
func (m *WorkerMetrics) ObserveEvent(eventType string, documents int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	switch domain.CatalogEventType(eventType) {
	case domain.EventDocumentsAppended, domain.EventDocumentsClassified:
	default:
		eventType = "unknown"
	}
	m.eventsTotal.WithLabelValues(m.service, eventType, status).Inc()
	m.eventDocuments.WithLabelValues(m.service, eventType).Observe(float64(documents))
}

func (m *WorkerMetrics) ObserveLag(lag time.Duration) {
	if lag < 0 {
		return
	}
	m.eventLag.Observe(lag.Seconds())
}
