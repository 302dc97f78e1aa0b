package migration

import (
	"go.uber.org/fx"

	config "github.com/tigerroll/mooring/pkg/conn/core/config"
	provider "github.com/tigerroll/mooring/pkg/conn/provider"
	source "github.com/tigerroll/mooring/pkg/conn/source"
)

// MigratorParams defines the dependencies for NewConfiguredMigrator.
type MigratorParams struct {
	fx.In

	Provider provider.ConnectionProvider
	Cfg      *config.Config
}

// NewConfiguredMigrator builds a Migrator against the configured provider.
// The driver name is taken from the source the provider resolves to; when the
// configuration does not name one, "postgres" is assumed.
func NewConfiguredMigrator(p MigratorParams) Migrator {
	driver := "postgres"
	if raw, ok := p.Cfg.Mooring.Sources[p.Cfg.Mooring.Provider.Datasource]; ok {
		if cfg, err := source.DecodeSourceConfig(p.Cfg.Mooring.Provider.Datasource, raw); err == nil && cfg.Driver != "" {
			driver = cfg.Driver
		}
	}
	return NewMigrator(p.Provider, driver)
}

// Module provides the Migrator bound to the configured connection provider.
var Module = fx.Options(
	fx.Provide(NewConfiguredMigrator),
)
