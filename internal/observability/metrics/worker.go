package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	processTotal     *prometheus.CounterVec
	processDuration  *prometheus.HistogramVec
	processInFlight  prometheus.Gauge
	queueLag         *prometheus.HistogramVec
	aiCallsTotal     *prometheus.CounterVec
	reviewFlagsTotal *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docintake",
			Subsystem: "worker",
			Name:      "classification_total",
			Help:      "Total classified documents by status.",
		},
		[]string{"service", "status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docintake",
			Subsystem: "worker",
			Name:      "classification_duration_seconds",
			Help:      "Classification duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docintake",
			Subsystem: "worker",
			Name:      "classification_in_flight",
			Help:      "Number of in-flight classification jobs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docintake",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between job creation and claim.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)
	aiCallsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docintake",
			Subsystem: "worker",
			Name:      "ai_calls_total",
			Help:      "Total AI classification calls by outcome.",
		},
		[]string{"service", "outcome"},
	)
	reviewFlagsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docintake",
			Subsystem: "worker",
			Name:      "review_flags_total",
			Help:      "Total documents flagged for human review.",
		},
		[]string{"service"},
	)

	registry.MustRegister(processTotal, processDuration, processInFlight, queueLag, aiCallsTotal, reviewFlagsTotal)

	return &WorkerMetrics{
		registry:         registry,
		processTotal:     processTotal,
		processDuration:  processDuration,
		processInFlight:  processInFlight,
		queueLag:         queueLag,
		aiCallsTotal:     aiCallsTotal,
		reviewFlagsTotal: reviewFlagsTotal,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartJob() {
	m.processInFlight.Inc()
}

func (m *WorkerMetrics) FinishJob(service string, duration time.Duration, err error) {
	m.processInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.processTotal.WithLabelValues(service, status).Inc()
	m.processDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}

// RecordAICall counts one external classification call. Outcome is
// "classified" when the model returned a known label, "fail_closed" when
// the adapter degraded to unknown.
func (m *WorkerMetrics) RecordAICall(service, outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.aiCallsTotal.WithLabelValues(service, outcome).Inc()
}

func (m *WorkerMetrics) RecordReviewFlag(service string) {
	m.reviewFlagsTotal.WithLabelValues(service).Inc()
}
