package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Bridge metrics
	InvocationsTotal   *prometheus.CounterVec
	WorkerDuration     prometheus.Histogram
	RequestBytes       prometheus.Histogram
	ResponseBytes      prometheus.Histogram
	CleanupErrorsTotal *prometheus.CounterVec
	ActiveBridges      prometheus.Gauge

	// Compiler metrics
	ProtocRunsTotal   *prometheus.CounterVec
	ProtocRunDuration prometheus.Histogram
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		InvocationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protobridge_invocations_total",
				Help: "Total number of bridged plugin invocations",
			},
			[]string{"status"},
		),
		WorkerDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "protobridge_worker_duration_seconds",
				Help:    "Time from worker start to response written",
				Buckets: prometheus.DefBuckets,
			},
		),
		RequestBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "protobridge_request_bytes",
				Help:    "Size of plugin requests read from the request pipe",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
		),
		ResponseBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "protobridge_response_bytes",
				Help:    "Size of plugin responses written to the response pipe",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
		),
		CleanupErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protobridge_cleanup_errors_total",
				Help: "Total number of temporary resources that could not be removed",
			},
			[]string{"reason"},
		),
		ActiveBridges: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "protobridge_active_bridges",
				Help: "Number of prepared bridges not yet cleaned up",
			},
		),
		ProtocRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protobridge_protoc_runs_total",
				Help: "Total number of compiler runs",
			},
			[]string{"status"},
		),
		ProtocRunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "protobridge_protoc_run_duration_seconds",
				Help:    "Compiler run duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
			},
		),
	}

	if registry != nil {
		registry.MustRegister(
			m.InvocationsTotal,
			m.WorkerDuration,
			m.RequestBytes,
			m.ResponseBytes,
			m.CleanupErrorsTotal,
			m.ActiveBridges,
			m.ProtocRunsTotal,
			m.ProtocRunDuration,
		)
	}

	return m
}

// RecordInvocation records the outcome of one bridge worker
func (m *Metrics) RecordInvocation(status string, duration time.Duration, requestBytes, responseBytes int) {
	if m == nil {
		return
	}
	m.InvocationsTotal.WithLabelValues(status).Inc()
	m.WorkerDuration.Observe(duration.Seconds())
	m.RequestBytes.Observe(float64(requestBytes))
	m.ResponseBytes.Observe(float64(responseBytes))
}

// RecordCleanupError records a resource that could not be removed
func (m *Metrics) RecordCleanupError(reason string) {
	if m == nil {
		return
	}
	m.CleanupErrorsTotal.WithLabelValues(reason).Inc()
}

// BridgeOpened increments the active bridge gauge
func (m *Metrics) BridgeOpened() {
	if m == nil {
		return
	}
	m.ActiveBridges.Inc()
}

// BridgeClosed decrements the active bridge gauge
func (m *Metrics) BridgeClosed() {
	if m == nil {
		return
	}
	m.ActiveBridges.Dec()
}

// RecordProtocRun records one compiler execution
func (m *Metrics) RecordProtocRun(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ProtocRunsTotal.WithLabelValues(status).Inc()
	m.ProtocRunDuration.Observe(duration.Seconds())
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
// Short-lived CLI runs use this instead of serving /metrics.
func WriteTextfile(path string, gatherer prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, gatherer); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
