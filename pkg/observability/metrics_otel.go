package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/platinummonkey/protobridge"

// OTelMetrics holds OpenTelemetry metric instruments. They mirror the
// Prometheus collectors in Metrics and are exported through the meter
// provider installed by InitOTel.
type OTelMetrics struct {
	// Bridge metrics
	invocationsTotal metric.Int64Counter
	workerDuration   metric.Float64Histogram
	requestSize      metric.Int64Histogram
	responseSize     metric.Int64Histogram
	cleanupErrors    metric.Int64Counter
	activeBridges    metric.Int64UpDownCounter

	// Compiler metrics
	protocRunsTotal   metric.Int64Counter
	protocRunDuration metric.Float64Histogram
}

// NewOTelMetrics creates the instruments on provider. A nil provider means
// the global one, which is a no-op until InitOTel replaces it.
func NewOTelMetrics(provider metric.MeterProvider) (*OTelMetrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(meterName)

	m := &OTelMetrics{}
	var err error

	m.invocationsTotal, err = meter.Int64Counter(
		"protobridge.invocations",
		metric.WithDescription("Total number of bridged plugin invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create invocations counter: %w", err)
	}

	m.workerDuration, err = meter.Float64Histogram(
		"protobridge.worker.duration",
		metric.WithDescription("Time from worker start to response written"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker duration histogram: %w", err)
	}

	m.requestSize, err = meter.Int64Histogram(
		"protobridge.request.size",
		metric.WithDescription("Size of plugin requests read from the request pipe"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request size histogram: %w", err)
	}

	m.responseSize, err = meter.Int64Histogram(
		"protobridge.response.size",
		metric.WithDescription("Size of plugin responses written to the response pipe"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create response size histogram: %w", err)
	}

	m.cleanupErrors, err = meter.Int64Counter(
		"protobridge.cleanup.errors",
		metric.WithDescription("Temporary resources that could not be removed"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cleanup errors counter: %w", err)
	}

	m.activeBridges, err = meter.Int64UpDownCounter(
		"protobridge.bridges.active",
		metric.WithDescription("Prepared bridges not yet cleaned up"),
		metric.WithUnit("{bridge}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create active bridges counter: %w", err)
	}

	m.protocRunsTotal, err = meter.Int64Counter(
		"protobridge.protoc.runs",
		metric.WithDescription("Total number of compiler runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create protoc runs counter: %w", err)
	}

	m.protocRunDuration, err = meter.Float64Histogram(
		"protobridge.protoc.duration",
		metric.WithDescription("Compiler run duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create protoc duration histogram: %w", err)
	}

	return m, nil
}

// RecordInvocation records the outcome of one bridge worker
func (m *OTelMetrics) RecordInvocation(ctx context.Context, status string, duration time.Duration, requestBytes, responseBytes int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.invocationsTotal.Add(ctx, 1, attrs)
	m.workerDuration.Record(ctx, duration.Seconds(), attrs)
	m.requestSize.Record(ctx, int64(requestBytes), attrs)
	m.responseSize.Record(ctx, int64(responseBytes), attrs)
}

// RecordCleanupError records a resource that could not be removed
func (m *OTelMetrics) RecordCleanupError(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.cleanupErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// BridgeOpened counts a prepared bridge
func (m *OTelMetrics) BridgeOpened(ctx context.Context) {
	if m == nil {
		return
	}
	m.activeBridges.Add(ctx, 1)
}

// BridgeClosed releases a prepared bridge
func (m *OTelMetrics) BridgeClosed(ctx context.Context) {
	if m == nil {
		return
	}
	m.activeBridges.Add(ctx, -1)
}

// RecordProtocRun records one compiler execution
func (m *OTelMetrics) RecordProtocRun(ctx context.Context, status string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.protocRunsTotal.Add(ctx, 1, attrs)
	m.protocRunDuration.Record(ctx, duration.Seconds(), attrs)
}
