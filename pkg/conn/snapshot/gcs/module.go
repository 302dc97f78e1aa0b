package gcs

import (
	"context"

	"go.uber.org/fx"

	config "github.com/tigerroll/mooring/pkg/conn/core/config"
	snapshot "github.com/tigerroll/mooring/pkg/conn/snapshot"
)

func init() {
	snapshot.RegisterFactory(StoreType, func(ctx context.Context, cfg config.SnapshotConfig) (snapshot.Store, error) {
		return NewStore(ctx, cfg.Bucket, cfg.Prefix)
	})
}

// Module registers the GCS store factory. Importing this package is enough
// to make the "gcs" store type available.
var Module = fx.Options()
