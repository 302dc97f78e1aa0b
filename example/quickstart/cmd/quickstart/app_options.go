package main

import (
	"context"

	"go.uber.org/fx"

	config "github.com/tigerroll/mooring/pkg/conn/core/config"
	inframetrics "github.com/tigerroll/mooring/pkg/conn/infrastructure/metrics"
	lookup "github.com/tigerroll/mooring/pkg/conn/lookup"
	provider "github.com/tigerroll/mooring/pkg/conn/provider"
	datasource "github.com/tigerroll/mooring/pkg/conn/provider/datasource"
	snapshot "github.com/tigerroll/mooring/pkg/conn/snapshot"
	snapshotlocal "github.com/tigerroll/mooring/pkg/conn/snapshot/local"
	source "github.com/tigerroll/mooring/pkg/conn/source"
	sqlpool "github.com/tigerroll/mooring/pkg/conn/source/sqlpool"
	logger "github.com/tigerroll/mooring/pkg/support/util/logger"
)

// runQuickstart acquires a connection through the configured provider, pings
// the database, saves a provider snapshot and shuts the application down.
func runQuickstart(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	p *datasource.DatasourceProvider,
	store snapshot.Store,
	codec provider.CollaboratorCodec,
	appCtx context.Context,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer func() {
					if r := recover(); r != nil {
						logger.Errorf("Panic recovered in quickstart: %v", r)
					}
					if err := shutdowner.Shutdown(); err != nil {
						logger.Errorf("Failed to shutdown application: %v", err)
					}
				}()

				conn, err := p.GetConnection(appCtx)
				if err != nil {
					logger.Errorf("Failed to acquire connection: %v", err)
					return
				}
				if err := conn.PingContext(appCtx); err != nil {
					logger.Errorf("Ping failed: %v", err)
				} else {
					logger.Infof("Connection acquired and pinged successfully.")
				}
				if err := p.CloseConnection(appCtx, conn); err != nil {
					logger.Errorf("Failed to release connection: %v", err)
				}

				if err := datasource.SaveState(appCtx, p, store, "quickstart", codec); err != nil {
					logger.Errorf("Failed to save provider snapshot: %v", err)
					return
				}
				logger.Infof("Provider snapshot 'quickstart' saved.")
			}()
			return nil
		},
	})
}

// GetApplicationOptions builds the uber-fx options and returns them as a slice.
func GetApplicationOptions(appCtx context.Context, envFilePath string, embeddedConfig config.EmbeddedConfig) []fx.Option {
	var options []fx.Option

	options = append(options, fx.Supply(
		embeddedConfig,
		fx.Annotate(envFilePath, fx.ResultTags(`name:"envFilePath"`)),
		fx.Annotate(appCtx, fx.As(new(context.Context)), fx.ResultTags(`name:"appCtx"`)),
	))
	options = append(options, logger.Module)
	options = append(options, config.Module)
	options = append(options, inframetrics.Module)
	options = append(options, lookup.Module)
	options = append(options, sqlpool.Module)
	options = append(options, source.Module)
	options = append(options, snapshotlocal.Module)
	options = append(options, snapshot.Module)
	options = append(options, datasource.Module)
	options = append(options, fx.Invoke(fx.Annotate(runQuickstart, fx.ParamTags("", "", "", "", "", `name:"appCtx"`))))

	return options
}
