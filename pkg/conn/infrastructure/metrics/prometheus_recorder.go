package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	metrics "github.com/tigerroll/mooring/pkg/conn/core/metrics"
	logger "github.com/tigerroll/mooring/pkg/support/util/logger"
)

// PrometheusRecorder is a Prometheus implementation of the metrics.MetricRecorder interface.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	resolutionCounter      *prometheus.CounterVec
	acquireDurationSeconds *prometheus.HistogramVec
	acquireCounter         *prometheus.CounterVec
	releaseCounter         *prometheus.CounterVec
}

// NewPrometheusRecorder creates a new instance of PrometheusRecorder.
func NewPrometheusRecorder() metrics.MetricRecorder {
	registry := prometheus.NewRegistry()

	// Register Go standard metrics and process/OS metrics.
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		resolutionCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "conn_provider_resolution_total",
			Help: "Total number of datasource resolutions by outcome.",
		}, []string{"datasource", "outcome"}),
		acquireDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "conn_acquire_duration_seconds",
			Help:    "Duration of connection acquisitions.",
			Buckets: prometheus.DefBuckets,
		}, []string{"datasource", "outcome"}),
		acquireCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "conn_acquire_total",
			Help: "Total number of connection acquisitions by outcome.",
		}, []string{"datasource", "outcome"}),
		releaseCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "conn_release_total",
			Help: "Total number of connection releases by outcome.",
		}, []string{"datasource", "outcome"}),
	}

	// Register all metrics with the registry.
	registry.MustRegister(r.resolutionCounter)
	registry.MustRegister(r.acquireDurationSeconds)
	registry.MustRegister(r.acquireCounter)
	registry.MustRegister(r.releaseCounter)

	return r
}

// GetRegistry returns the Prometheus registry.
func (r *PrometheusRecorder) GetRegistry() *prometheus.Registry {
	return r.registry
}

func outcomeLabel(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// RecordResolution records the outcome of a datasource resolution.
func (r *PrometheusRecorder) RecordResolution(ctx context.Context, datasource string, err error) {
	r.resolutionCounter.WithLabelValues(datasource, outcomeLabel(err)).Inc()
	logger.Debugf("Metrics: Resolution of datasource '%s' recorded (%s).", datasource, outcomeLabel(err))
}

// RecordAcquire records the outcome and duration of a connection acquisition.
func (r *PrometheusRecorder) RecordAcquire(ctx context.Context, datasource string, duration time.Duration, err error) {
	outcome := outcomeLabel(err)
	r.acquireCounter.WithLabelValues(datasource, outcome).Inc()
	r.acquireDurationSeconds.WithLabelValues(datasource, outcome).Observe(duration.Seconds())
}

// RecordRelease records the outcome of a connection release.
func (r *PrometheusRecorder) RecordRelease(ctx context.Context, datasource string, err error) {
	r.releaseCounter.WithLabelValues(datasource, outcomeLabel(err)).Inc()
}

var _ metrics.MetricRecorder = (*PrometheusRecorder)(nil)
