// Package mysql contributes the MySQL dialector to the gormpool source.
package mysql

import (
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/tigerroll/mooring/pkg/conn/core/config"
	"github.com/tigerroll/mooring/pkg/conn/source"
	"github.com/tigerroll/mooring/pkg/conn/source/gormpool"
)

// init registers the MySQL dialector factory with the gormpool source.
func init() {
	gormpool.RegisterDialector("mysql", func(cfg config.SourceConfig, user, password string) (gorm.Dialector, error) {
		dsn, err := source.BuildDSN("mysql", cfg, user, password)
		if err != nil {
			return nil, err
		}
		return mysql.Open(dsn), nil
	})
}
