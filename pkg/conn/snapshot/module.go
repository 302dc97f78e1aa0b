package snapshot

import (
	"context"

	"go.uber.org/fx"

	config "github.com/tigerroll/mooring/pkg/conn/core/config"
	exception "github.com/tigerroll/mooring/pkg/support/util/exception"
)

const moduleName = "snapshot"

// Factory builds a Store from the snapshot configuration. Implementations
// register themselves with RegisterFactory from their package init.
type Factory func(ctx context.Context, cfg config.SnapshotConfig) (Store, error)

var factories = make(map[string]Factory)

// RegisterFactory registers a store factory under the given store type.
func RegisterFactory(storeType string, f Factory) {
	factories[storeType] = f
}

// NewStoreFromConfig builds the Store selected by cfg.Store.
func NewStoreFromConfig(ctx context.Context, cfg config.SnapshotConfig) (Store, error) {
	f, ok := factories[cfg.Store]
	if !ok {
		return nil, exception.NewProviderErrorf(moduleName, exception.KindConfiguration, "unsupported snapshot store type: %s", cfg.Store)
	}
	return f(ctx, cfg)
}

// StoreParams bundles the dependencies for building a Store.
type StoreParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Cfg       *config.Config
}

// NewStore builds the configured Store and ties its lifetime to the application.
func NewStore(params StoreParams) (Store, error) {
	store, err := NewStoreFromConfig(context.Background(), params.Cfg.Mooring.Snapshot)
	if err != nil {
		return nil, err
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		params.Lifecycle.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return closer.Close()
			},
		})
	}
	return store, nil
}

// Module is the Fx module for the snapshot store.
var Module = fx.Options(
	fx.Provide(NewStore),
)
