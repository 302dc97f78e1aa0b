package sqlpool

import (
	"go.uber.org/fx"

	"github.com/tigerroll/mooring/pkg/conn/core/config"
	"github.com/tigerroll/mooring/pkg/conn/provider"
	"github.com/tigerroll/mooring/pkg/conn/source"
)

// init registers this source kind with the factory registry.
func init() {
	source.RegisterFactory(Kind, func(cfg config.SourceConfig) (provider.PooledSource, error) {
		return New(cfg)
	})
}

// Module is an Fx module that makes the sqlpool source kind available.
// Importing it is enough to register the factory.
var Module = fx.Options()
