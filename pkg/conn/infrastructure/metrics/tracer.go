package metrics

import (
	"context"

	metrics "github.com/tigerroll/mooring/pkg/conn/core/metrics"
	logger "github.com/tigerroll/mooring/pkg/support/util/logger"
)

// LoggingTracer is an implementation of metrics.Tracer that reports spans to the log.
type LoggingTracer struct{}

// NewLoggingTracer creates a new instance of LoggingTracer.
func NewLoggingTracer() metrics.Tracer {
	return &LoggingTracer{}
}

// StartAcquireSpan starts a new span for a connection acquisition.
func (t *LoggingTracer) StartAcquireSpan(ctx context.Context, datasource string) (context.Context, func()) {
	logger.Debugf("Tracer: StartAcquireSpan called for datasource '%s'", datasource)
	return ctx, func() {
		logger.Debugf("Tracer: FinishAcquireSpan called for datasource '%s'", datasource)
	}
}

// RecordError records an error in the current span.
func (t *LoggingTracer) RecordError(ctx context.Context, module string, err error) {
	logger.Debugf("Tracer: RecordError called in module %s: %v", module, err)
}

var _ metrics.Tracer = (*LoggingTracer)(nil)
