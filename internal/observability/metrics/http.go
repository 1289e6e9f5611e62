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

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	batchesSubmittedTotal *prometheus.CounterVec
	batchFilesTotal       *prometheus.CounterVec
	batchStageFailures    *prometheus.CounterVec
	batchDuration         *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docintake",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docintake",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docintake",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	batchesSubmittedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docintake",
			Subsystem: "batch",
			Name:      "submitted_total",
			Help:      "Total submitted batches.",
		},
		[]string{"service"},
	)
	batchFilesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docintake",
			Subsystem: "batch",
			Name:      "files_total",
			Help:      "Total processed batch files by terminal status.",
		},
		[]string{"service", "status"},
	)
	batchStageFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docintake",
			Subsystem: "batch",
			Name:      "stage_failures_total",
			Help:      "Total per-file pipeline stage failures.",
		},
		[]string{"service", "stage"},
	)
	batchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docintake",
			Subsystem: "batch",
			Name:      "duration_seconds",
			Help:      "End-to-end batch duration in seconds.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		batchesSubmittedTotal,
		batchFilesTotal,
		batchStageFailures,
		batchDuration,
	)

	return &HTTPServerMetrics{
		registry:              registry,
		requestTotal:          requestTotal,
		requestDuration:       requestDuration,
		requestInFlight:       requestInFlight,
		batchesSubmittedTotal: batchesSubmittedTotal,
		batchFilesTotal:       batchFilesTotal,
		batchStageFailures:    batchStageFailures,
		batchDuration:         batchDuration,
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

// normalizePath collapses resource IDs so the path label stays bounded.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		if strings.HasSuffix(path, "/reprocess") {
			return "/v1/documents/{document_id}/reprocess"
		}
		return "/v1/documents/{document_id}"
	case strings.HasPrefix(path, "/v1/batches/"):
		switch {
		case strings.HasSuffix(path, "/results"):
			return "/v1/batches/{batch_id}/results"
		case strings.HasSuffix(path, "/report"):
			return "/v1/batches/{batch_id}/report"
		default:
			return "/v1/batches/{batch_id}"
		}
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordBatchSubmitted(service string) {
	m.batchesSubmittedTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordBatchFile(service, status string) {
	if status == "" {
		status = "unknown"
	}
	m.batchFilesTotal.WithLabelValues(service, status).Inc()
}

func (m *HTTPServerMetrics) RecordBatchStageFailure(service, stage string) {
	if stage == "" {
		stage = "unknown"
	}
	m.batchStageFailures.WithLabelValues(service, stage).Inc()
}

func (m *HTTPServerMetrics) ObserveBatchDuration(service string, duration time.Duration) {
	if duration < 0 {
		return
	}
	m.batchDuration.WithLabelValues(service).Observe(duration.Seconds())
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
