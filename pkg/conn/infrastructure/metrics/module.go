package metrics

import (
	"go.uber.org/fx"

	metrics "github.com/tigerroll/mooring/pkg/conn/core/metrics"
)

// Module is an Fx module that provides PrometheusRecorder and LoggingTracer.
var Module = fx.Options(
	// Provide PrometheusRecorder as a core.MetricRecorder interface.
	fx.Provide(fx.Annotate(
		NewPrometheusRecorder,
		fx.As(new(metrics.MetricRecorder)),
	)),
	// Provide LoggingTracer as a core.Tracer interface.
	fx.Provide(fx.Annotate(
		NewLoggingTracer,
		fx.As(new(metrics.Tracer)),
	)),
)
