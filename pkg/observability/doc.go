// Package observability provides logrus logging, Prometheus metrics, and OpenTelemetry tracing.
//
// # Logging
//
//	log := observability.NewLogger(observability.InfoLevel, observability.TextFormat, os.Stderr)
//	log.WithField("invocation_id", id).Info("bridge prepared")
//
// Logs always default to stderr: a plugin's stdout is reserved for the
// compiler's response bytes.
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.RecordInvocation("success", elapsed, reqLen, respLen)
//
// The CLI is short-lived, so instead of serving /metrics it dumps the registry
// with WriteTextfile for the node_exporter textfile collector.
//
// A nil *Metrics is valid and records nothing.
//
// # OpenTelemetry Metrics
//
//	otelMetrics, err := observability.NewOTelMetrics(nil)
//	otelMetrics.RecordInvocation(ctx, "success", elapsed, reqLen, respLen)
//
// The instruments mirror Metrics and go to the meter provider InitOTel
// installs. A nil *OTelMetrics is valid too.
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, cfg, log)
//	defer observability.ShutdownOTel(ctx, providers, log)
//
// Bridge workers start spans on the global tracer, which is a no-op until
// InitOTel installs a real provider.
package observability
