package metrics

import (
	"context"
	"time"
)

// NoOpMetricRecorder is an implementation of MetricRecorder that does nothing.
// It is used when metrics are disabled or during testing.
type NoOpMetricRecorder struct{}

// NewNoOpMetricRecorder creates a new instance of NoOpMetricRecorder.
func NewNoOpMetricRecorder() MetricRecorder {
	return &NoOpMetricRecorder{}
}

// RecordResolution does nothing.
func (r *NoOpMetricRecorder) RecordResolution(ctx context.Context, datasource string, err error) {}

// RecordAcquire does nothing.
func (r *NoOpMetricRecorder) RecordAcquire(ctx context.Context, datasource string, duration time.Duration, err error) {
}

// RecordRelease does nothing.
func (r *NoOpMetricRecorder) RecordRelease(ctx context.Context, datasource string, err error) {}

var _ MetricRecorder = (*NoOpMetricRecorder)(nil)

// NoOpTracer is an implementation of Tracer that does nothing.
type NoOpTracer struct{}

// NewNoOpTracer creates a new instance of NoOpTracer.
func NewNoOpTracer() Tracer {
	return &NoOpTracer{}
}

// StartAcquireSpan returns the context unchanged and a no-op finisher.
func (t *NoOpTracer) StartAcquireSpan(ctx context.Context, datasource string) (context.Context, func()) {
	return ctx, func() {}
}

// RecordError does nothing.
func (t *NoOpTracer) RecordError(ctx context.Context, module string, err error) {}

var _ Tracer = (*NoOpTracer)(nil)
