// Package source provides the shared plumbing of pooled-source
// implementations: per-driver DSN construction, pool settings, and the factory
// registry application wiring builds sources through.
package source

import (
	"fmt"
	"sync"

	"github.com/tigerroll/mooring/pkg/conn/core/config"
)

// DSNBuilder produces a driver-specific DSN from a source configuration and a
// credential pair. The credentials override the ones baked into the config so
// credentialed acquisition can open a dedicated pool.
type DSNBuilder func(cfg config.SourceConfig, user, password string) string

var (
	dsnRegistry = make(map[string]DSNBuilder)
	dsnMutex    sync.RWMutex
)

// RegisterDSNBuilder registers a DSNBuilder for the given driver name.
func RegisterDSNBuilder(driver string, builder DSNBuilder) {
	dsnMutex.Lock()
	defer dsnMutex.Unlock()
	dsnRegistry[driver] = builder
}

// BuildDSN constructs the DSN for the given driver, configuration and
// credential pair.
func BuildDSN(driver string, cfg config.SourceConfig, user, password string) (string, error) {
	dsnMutex.RLock()
	builder, ok := dsnRegistry[driver]
	dsnMutex.RUnlock()
	if !ok {
		return "", fmt.Errorf("no DSN builder registered for driver: %s", driver)
	}
	return builder(cfg, user, password), nil
}

func init() {
	RegisterDSNBuilder("postgres", func(c config.SourceConfig, user, password string) string {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, user, password, c.Database, c.Sslmode)
	})

	RegisterDSNBuilder("mysql", func(c config.SourceConfig, user, password string) string {
		// user:password@tcp(host:port)/dbname?charset=utf8mb4&parseTime=True&loc=Local
		var authPart string
		if user != "" {
			authPart = user
			if password != "" {
				authPart = fmt.Sprintf("%s:%s", user, password)
			}
			authPart += "@"
		}
		return fmt.Sprintf("%stcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			authPart, c.Host, c.Port, c.Database)
	})

	RegisterDSNBuilder("sqlite", func(c config.SourceConfig, user, password string) string {
		// SQLite expects the file path directly; credentials do not apply.
		return c.Database
	})
}
