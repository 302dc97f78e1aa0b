package local

import (
	"context"

	"go.uber.org/fx"

	config "github.com/tigerroll/mooring/pkg/conn/core/config"
	snapshot "github.com/tigerroll/mooring/pkg/conn/snapshot"
)

func init() {
	snapshot.RegisterFactory(StoreType, func(_ context.Context, cfg config.SnapshotConfig) (snapshot.Store, error) {
		return NewStore(cfg.BaseDir, cfg.Prefix)
	})
}

// Module registers the local store factory. Importing this package is enough
// to make the "local" store type available.
var Module = fx.Options()
