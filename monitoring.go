package hydrx

import (
	"log/slog"

	"github.com/hengadev/hydrx/internal/monitoring"
)

// ObservabilityHook receives hydration events. See WithHook.
type ObservabilityHook = monitoring.ObservabilityHook

// MetricsCollector receives counters and timings. See WithMetrics.
type MetricsCollector = monitoring.MetricsCollector

type (
	NoOpObservabilityHook    = monitoring.NoOpObservabilityHook
	LoggingObservabilityHook = monitoring.LoggingObservabilityHook
	MetricsObservabilityHook = monitoring.MetricsObservabilityHook
	InMemoryMetricsCollector = monitoring.InMemoryMetricsCollector
)

// Metric names recorded by the metrics hook.
const (
	MetricCalls    = monitoring.MetricCalls
	MetricErrors   = monitoring.MetricErrors
	MetricSkipped  = monitoring.MetricSkipped
	MetricDuration = monitoring.MetricDuration
)

func NewLoggingObservabilityHook(logger *slog.Logger) *LoggingObservabilityHook {
	return monitoring.NewLoggingObservabilityHook(logger)
}

func NewMetricsObservabilityHook(collector MetricsCollector) *MetricsObservabilityHook {
	return monitoring.NewMetricsObservabilityHook(collector)
}

func NewInMemoryMetricsCollector() *InMemoryMetricsCollector {
	return monitoring.NewInMemoryMetricsCollector()
}

func combineHooks(hooks []ObservabilityHook) ObservabilityHook {
	switch len(hooks) {
	case 0:
		return &NoOpObservabilityHook{}
	case 1:
		return hooks[0]
	default:
		return monitoring.CompositeHook(append([]ObservabilityHook(nil), hooks...))
	}
}
