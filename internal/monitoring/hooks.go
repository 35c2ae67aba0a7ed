package monitoring

import (
	"context"
	"log/slog"
	"time"
)

// ObservabilityHook defines hooks for monitoring hydration calls
type ObservabilityHook interface {
	// Called before a hydration call starts
	OnHydrateStart(ctx context.Context, operation string, metadata map[string]any)

	// Called after a hydration call completes (success or failure)
	OnHydrateComplete(ctx context.Context, operation string, duration time.Duration, err error, metadata map[string]any)

	// Called for every member a lookup asked to skip
	OnMemberSkipped(ctx context.Context, operation string, key string, metadata map[string]any)

	// Called when a hydration call fails
	OnError(ctx context.Context, operation string, err error, metadata map[string]any)
}

// NoOpObservabilityHook is a no-op implementation of ObservabilityHook
type NoOpObservabilityHook struct{}

func (n *NoOpObservabilityHook) OnHydrateStart(ctx context.Context, operation string, metadata map[string]any) {
}
func (n *NoOpObservabilityHook) OnHydrateComplete(ctx context.Context, operation string, duration time.Duration, err error, metadata map[string]any) {
}
func (n *NoOpObservabilityHook) OnMemberSkipped(ctx context.Context, operation string, key string, metadata map[string]any) {
}
func (n *NoOpObservabilityHook) OnError(ctx context.Context, operation string, err error, metadata map[string]any) {
}

// LoggingObservabilityHook writes hydration events to a slog.Logger
type LoggingObservabilityHook struct {
	logger *slog.Logger
}

// NewLoggingObservabilityHook creates a logging hook; a nil logger means slog.Default().
func NewLoggingObservabilityHook(logger *slog.Logger) *LoggingObservabilityHook {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObservabilityHook{logger: logger}
}

func (l *LoggingObservabilityHook) OnHydrateStart(ctx context.Context, operation string, metadata map[string]any) {
	l.logger.DebugContext(ctx, "hydration started", append([]any{"operation", operation}, attrs(metadata)...)...)
}

func (l *LoggingObservabilityHook) OnHydrateComplete(ctx context.Context, operation string, duration time.Duration, err error, metadata map[string]any) {
	args := append([]any{"operation", operation, "duration", duration}, attrs(metadata)...)
	if err != nil {
		l.logger.WarnContext(ctx, "hydration failed", append(args, "error", err)...)
		return
	}
	l.logger.InfoContext(ctx, "hydration completed", args...)
}

func (l *LoggingObservabilityHook) OnMemberSkipped(ctx context.Context, operation string, key string, metadata map[string]any) {
	l.logger.DebugContext(ctx, "member skipped", append([]any{"operation", operation, "key", key}, attrs(metadata)...)...)
}

func (l *LoggingObservabilityHook) OnError(ctx context.Context, operation string, err error, metadata map[string]any) {
	l.logger.ErrorContext(ctx, "hydration error", append([]any{"operation", operation, "error", err}, attrs(metadata)...)...)
}

// MetricsObservabilityHook records hydration events into a MetricsCollector
type MetricsObservabilityHook struct {
	collector MetricsCollector
}

// Metric names
const (
	MetricCalls    = "hydrx.calls"
	MetricErrors   = "hydrx.errors"
	MetricSkipped  = "hydrx.members.skipped"
	MetricDuration = "hydrx.duration"
)

func NewMetricsObservabilityHook(collector MetricsCollector) *MetricsObservabilityHook {
	if collector == nil {
		collector = &NoOpMetricsCollector{}
	}
	return &MetricsObservabilityHook{collector: collector}
}

func (m *MetricsObservabilityHook) OnHydrateStart(ctx context.Context, operation string, metadata map[string]any) {
	m.collector.IncrementCounter(MetricCalls, tags(operation, metadata))
}

func (m *MetricsObservabilityHook) OnHydrateComplete(ctx context.Context, operation string, duration time.Duration, err error, metadata map[string]any) {
	m.collector.RecordTiming(MetricDuration, duration, tags(operation, metadata))
}

func (m *MetricsObservabilityHook) OnMemberSkipped(ctx context.Context, operation string, key string, metadata map[string]any) {
	t := tags(operation, metadata)
	t["key"] = key
	m.collector.IncrementCounter(MetricSkipped, t)
}

func (m *MetricsObservabilityHook) OnError(ctx context.Context, operation string, err error, metadata map[string]any) {
	m.collector.IncrementCounter(MetricErrors, tags(operation, metadata))
}

// CompositeHook fans every event out to several hooks in order
type CompositeHook []ObservabilityHook

func (c CompositeHook) OnHydrateStart(ctx context.Context, operation string, metadata map[string]any) {
	for _, h := range c {
		h.OnHydrateStart(ctx, operation, metadata)
	}
}

func (c CompositeHook) OnHydrateComplete(ctx context.Context, operation string, duration time.Duration, err error, metadata map[string]any) {
	for _, h := range c {
		h.OnHydrateComplete(ctx, operation, duration, err, metadata)
	}
}

func (c CompositeHook) OnMemberSkipped(ctx context.Context, operation string, key string, metadata map[string]any) {
	for _, h := range c {
		h.OnMemberSkipped(ctx, operation, key, metadata)
	}
}

func (c CompositeHook) OnError(ctx context.Context, operation string, err error, metadata map[string]any) {
	for _, h := range c {
		h.OnError(ctx, operation, err, metadata)
	}
}

func attrs(metadata map[string]any) []any {
	out := make([]any, 0, len(metadata)*2)
	for k, v := range metadata {
		out = append(out, k, v)
	}
	return out
}

// tags keeps only low-cardinality metadata
func tags(operation string, metadata map[string]any) map[string]string {
	t := map[string]string{"operation": operation}
	if v, ok := metadata["target_type"].(string); ok {
		t["target_type"] = v
	}
	return t
}
