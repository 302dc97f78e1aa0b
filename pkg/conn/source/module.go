package source

import (
	"context"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/fx"

	"github.com/tigerroll/mooring/pkg/conn/core/config"
	"github.com/tigerroll/mooring/pkg/conn/lookup"
	"github.com/tigerroll/mooring/pkg/support/util/exception"
	"github.com/tigerroll/mooring/pkg/support/util/logger"
)

const moduleName = "source"

// DecodeSourceConfig decodes a raw configuration entry into a SourceConfig.
func DecodeSourceConfig(name string, raw interface{}) (config.SourceConfig, error) {
	var cfg config.SourceConfig
	if err := mapstructure.Decode(raw, &cfg); err != nil {
		return cfg, exception.NewProviderErrorf(moduleName, exception.KindConfiguration,
			"failed to decode source config for '%s'", name, err)
	}
	return cfg, nil
}

// BindParams defines the dependencies for BindConfiguredSources.
type BindParams struct {
	fx.In
	Lifecycle fx.Lifecycle
	Cfg       *config.Config
	Registry  *lookup.Registry
}

// BindConfiguredSources builds every source declared in the configuration and
// binds it into the lookup registry at startup, making it resolvable by name.
// The registry closes the sources at shutdown.
func BindConfiguredSources(p BindParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			for name, raw := range p.Cfg.Mooring.Sources {
				srcCfg, err := DecodeSourceConfig(name, raw)
				if err != nil {
					return err
				}
				src, err := New(srcCfg)
				if err != nil {
					return exception.NewProviderErrorf(moduleName, exception.KindConfiguration,
						"failed to build source '%s'", name, err)
				}
				p.Registry.Bind(name, src)
				logger.Infof("Bound source '%s' (%s/%s) into the lookup registry.", name, srcCfg.Kind, srcCfg.Driver)
			}
			return nil
		},
	})
}

// Module is an Fx module that binds configured sources into the registry.
var Module = fx.Options(
	fx.Invoke(BindConfiguredSources),
)
