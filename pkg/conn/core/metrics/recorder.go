package metrics

import (
	"context"
	"time"
)

// MetricRecorder is an abstract interface for recording metrics related to
// connection provisioning.
//
// This interface provides a standardized way to record acquisition, release and
// resolution events, which facilitates integration with different metrics
// backends (e.g., Prometheus).
type MetricRecorder interface {
	// RecordResolution records the outcome of resolving a connection source.
	//
	// ctx: The context for the operation.
	// datasource: The lookup name of the source, or "injected" for the injection path.
	// err: The resolution error, nil on success.
	RecordResolution(ctx context.Context, datasource string, err error)

	// RecordAcquire records one connection acquisition and its duration.
	//
	// ctx: The context for the operation.
	// datasource: The lookup name of the source, or "injected".
	// duration: Wall time the acquisition took.
	// err: The acquisition error, nil on success.
	RecordAcquire(ctx context.Context, datasource string, duration time.Duration, err error)

	// RecordRelease records one connection release.
	//
	// ctx: The context for the operation.
	// datasource: The lookup name of the source, or "injected".
	// err: The release error, nil on success.
	RecordRelease(ctx context.Context, datasource string, err error)
}

// Tracer is an abstraction for integrating with distributed tracing systems.
// The returned function finishes the span.
type Tracer interface {
	// StartAcquireSpan starts a span covering one connection acquisition.
	StartAcquireSpan(ctx context.Context, datasource string) (context.Context, func())

	// RecordError records an error in the current span.
	RecordError(ctx context.Context, module string, err error)
}
