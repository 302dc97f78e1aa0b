package lookup

import (
	"context"

	"go.uber.org/fx"

	"github.com/tigerroll/mooring/pkg/conn/provider"
	"github.com/tigerroll/mooring/pkg/support/util/logger"
)

// NewRegistryWithLifecycle provides a Registry whose bindings are closed when
// the application stops.
func NewRegistryWithLifecycle(lc fx.Lifecycle) *Registry {
	registry := NewRegistry()
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Infof("Closing lookup registry bindings.")
			return registry.Close()
		},
	})
	return registry
}

// Module is an Fx module that provides the lookup registry, exposes it as the
// provider's LookupService, and provides the registry-backed collaborator codec.
var Module = fx.Options(
	fx.Provide(NewRegistryWithLifecycle),
	fx.Provide(func(r *Registry) provider.LookupService { return r }),
	fx.Provide(fx.Annotate(
		NewRegistryCodec,
		fx.As(new(provider.CollaboratorCodec)),
	)),
)
