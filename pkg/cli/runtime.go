package cli

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/protobridge/pkg/config"
	"github.com/platinummonkey/protobridge/pkg/fifobridge"
	"github.com/platinummonkey/protobridge/pkg/observability"
)

// runtime is the ambient state shared by commands: configuration, logger,
// metrics and tracing.
type runtime struct {
	cfg      *config.Config
	log      *logrus.Logger
	registry *prometheus.Registry
	metrics  *observability.Metrics
	otel     *observability.OTelProviders

	otelMetrics *observability.OTelMetrics
}

func setupRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	log := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat, nil)
	registry := prometheus.NewRegistry()

	rt := &runtime{
		cfg:      cfg,
		log:      log,
		registry: registry,
		metrics:  observability.NewMetrics(registry),
	}

	rt.otel, err = observability.InitOTel(ctx, cfg.OTel(), log)
	if err != nil {
		// Tracing is optional for a CLI run.
		log.WithError(err).Warn("Failed to initialize OpenTelemetry, continuing without tracing")
	}

	// Instruments bind to the global meter provider, a no-op unless
	// InitOTel installed one.
	rt.otelMetrics, err = observability.NewOTelMetrics(nil)
	if err != nil {
		log.WithError(err).Warn("Failed to create OpenTelemetry metrics")
	}

	return rt, nil
}

// bridgeOptions returns bridge options wired to the runtime's logger and
// metrics.
func (rt *runtime) bridgeOptions() fifobridge.Options {
	opts := fifobridge.OptionsFromConfig(rt.cfg.Bridge)
	opts.Logger = rt.log
	opts.Metrics = rt.metrics
	opts.OTelMetrics = rt.otelMetrics
	return opts
}

func (rt *runtime) cleanupConfig(keepTemp bool) fifobridge.CleanupConfig {
	return fifobridge.CleanupConfig{KeepTemp: keepTemp || rt.cfg.Bridge.KeepTemp}
}

// close flushes metrics and tracing.
func (rt *runtime) close() {
	if path := rt.cfg.Observability.MetricsFile; path != "" {
		if err := observability.WriteTextfile(path, rt.registry); err != nil {
			rt.log.WithError(err).Warn("Failed to write metrics")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := observability.ShutdownOTel(ctx, rt.otel, rt.log); err != nil {
		rt.log.WithError(err).Warn("Failed to shut down OpenTelemetry")
	}
}
