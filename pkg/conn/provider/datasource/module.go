package datasource

import (
	"context"

	"go.uber.org/fx"

	"github.com/tigerroll/mooring/pkg/conn/core/config"
	"github.com/tigerroll/mooring/pkg/conn/core/metrics"
	"github.com/tigerroll/mooring/pkg/conn/provider"
)

// ProviderParams defines the dependencies for NewConfiguredProvider.
type ProviderParams struct {
	fx.In
	Lifecycle fx.Lifecycle
	Cfg       *config.Config
	Lookup    provider.LookupService   `optional:"true"`
	Recorder  metrics.MetricRecorder   `optional:"true"`
	Tracer    metrics.Tracer           `optional:"true"`
}

// NewConfiguredProvider provides a DatasourceProvider wired to the lookup
// service and metrics, configured from the application config at startup and
// stopped at shutdown.
func NewConfiguredProvider(p ProviderParams) *DatasourceProvider {
	dp := NewDatasourceProvider()
	if p.Lookup != nil {
		dp.SetLookupService(p.Lookup)
	}
	dp.SetMetricRecorder(p.Recorder)
	dp.SetTracer(p.Tracer)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return dp.Configure(p.Cfg.ProviderOptions())
		},
		OnStop: func(ctx context.Context) error {
			dp.Stop()
			return nil
		},
	})
	return dp
}

// Module is an Fx module that provides the configured datasource provider and
// exposes it under the ConnectionProvider abstraction.
var Module = fx.Options(
	fx.Provide(NewConfiguredProvider),
	fx.Provide(func(p *DatasourceProvider) provider.ConnectionProvider { return p }),
)
