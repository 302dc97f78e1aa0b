// Package postgres contributes the PostgreSQL dialector to the gormpool source.
package postgres

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tigerroll/mooring/pkg/conn/core/config"
	"github.com/tigerroll/mooring/pkg/conn/source"
	"github.com/tigerroll/mooring/pkg/conn/source/gormpool"
)

// init registers the PostgreSQL dialector factory with the gormpool source.
func init() {
	gormpool.RegisterDialector("postgres", func(cfg config.SourceConfig, user, password string) (gorm.Dialector, error) {
		dsn, err := source.BuildDSN("postgres", cfg, user, password)
		if err != nil {
			return nil, err
		}
		return postgres.Open(dsn), nil
	})
}
