// Package sqlite contributes the SQLite dialector to the gormpool source.
package sqlite

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tigerroll/mooring/pkg/conn/core/config"
	"github.com/tigerroll/mooring/pkg/conn/source"
	"github.com/tigerroll/mooring/pkg/conn/source/gormpool"
)

// init registers the SQLite dialector factory with the gormpool source.
func init() {
	gormpool.RegisterDialector("sqlite", func(cfg config.SourceConfig, user, password string) (gorm.Dialector, error) {
		dsn, err := source.BuildDSN("sqlite", cfg, user, password)
		if err != nil {
			return nil, err
		}
		return sqlite.Open(dsn), nil
	})
}
