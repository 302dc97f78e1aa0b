package datasource

import (
	"context"

	"github.com/tigerroll/mooring/pkg/conn/provider"
	"github.com/tigerroll/mooring/pkg/conn/snapshot"
	"github.com/tigerroll/mooring/pkg/support/util/logger"
)

// SaveState captures the provider's state and persists it in the store under
// the given name.
func SaveState(ctx context.Context, p *DatasourceProvider, store snapshot.Store, name string, collab provider.CollaboratorCodec) error {
	state, err := p.CaptureState(collab)
	if err != nil {
		return err
	}
	if err := store.Save(ctx, name, state); err != nil {
		return err
	}
	logger.Debugf("Saved provider %s state under snapshot '%s' (%d bytes).", p.ID(), name, len(state))
	return nil
}

// LoadState loads the capture persisted under name and restores it into the
// provider, re-running resolution when the captured state was available.
func LoadState(ctx context.Context, p *DatasourceProvider, store snapshot.Store, name string, collab provider.CollaboratorCodec) error {
	state, err := store.Load(ctx, name)
	if err != nil {
		return err
	}
	if err := p.RestoreState(state, collab); err != nil {
		return err
	}
	logger.Debugf("Restored provider %s state from snapshot '%s'.", p.ID(), name)
	return nil
}
