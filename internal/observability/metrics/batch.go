package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BatchMetrics observes executor progress. It satisfies ports.BatchObserver.
type BatchMetrics struct {
	registry *prometheus.Registry
	service  string

	documentTotal    *prometheus.CounterVec
	documentDuration *prometheus.HistogramVec
	documentInFlight prometheus.Gauge
	attemptTotal     *prometheus.CounterVec
	outcomeTotal     *prometheus.CounterVec
	queueLag         *prometheus.HistogramVec
}

func NewBatchMetrics(service string) *BatchMetrics {
	registry := prometheus.NewRegistry()

	documentTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "translation",
			Subsystem: "executor",
			Name:      "document_runs_total",
			Help:      "Total workflow runs per document by status.",
		},
		[]string{"service", "status"},
	)
	documentDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "translation",
			Subsystem: "executor",
			Name:      "document_run_duration_seconds",
			Help:      "Workflow run duration in seconds by status.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"service", "status"},
	)
	documentInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "translation",
			Subsystem: "executor",
			Name:      "document_runs_in_flight",
			Help:      "Number of in-flight workflow runs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	attemptTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "translation",
			Subsystem: "executor",
			Name:      "attempts_total",
			Help:      "Total recovery attempts by tier and status.",
		},
		[]string{"service", "tier", "status"},
	)
	outcomeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "translation",
			Subsystem: "executor",
			Name:      "outcomes_total",
			Help:      "Total committed document outcomes.",
		},
		[]string{"service", "outcome"},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "translation",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between batch submission and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(documentTotal, documentDuration, documentInFlight, attemptTotal, outcomeTotal, queueLag)

	return &BatchMetrics{
		registry:         registry,
		service:          service,
		documentTotal:    documentTotal,
		documentDuration: documentDuration,
		documentInFlight: documentInFlight,
		attemptTotal:     attemptTotal,
		outcomeTotal:     outcomeTotal,
		queueLag:         queueLag,
	}
}

func (m *BatchMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *BatchMetrics) StartDocument() {
	m.documentInFlight.Inc()
}

func (m *BatchMetrics) FinishDocument(duration time.Duration, err error) {
	m.documentInFlight.Dec()

	status := statusOf(err)
	m.documentTotal.WithLabelValues(m.service, status).Inc()
	m.documentDuration.WithLabelValues(m.service, status).Observe(duration.Seconds())
}

func (m *BatchMetrics) ObserveAttempt(tier string, err error) {
	m.attemptTotal.WithLabelValues(m.service, tier, statusOf(err)).Inc()
}

func (m *BatchMetrics) ObserveOutcome(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.outcomeTotal.WithLabelValues(m.service, outcome).Inc()
}

func (m *BatchMetrics) ObserveQueueLag(lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(m.service).Observe(lag.Seconds())
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
