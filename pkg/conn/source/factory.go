package source

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/tigerroll/mooring/pkg/conn/core/config"
	"github.com/tigerroll/mooring/pkg/conn/provider"
)

// Factory builds a PooledSource from a source configuration.
type Factory func(cfg config.SourceConfig) (provider.PooledSource, error)

var (
	factoryRegistry = make(map[string]Factory)
	factoryMutex    sync.RWMutex
)

// RegisterFactory registers a Factory for the given source kind.
func RegisterFactory(kind string, factory Factory) {
	factoryMutex.Lock()
	defer factoryMutex.Unlock()
	factoryRegistry[kind] = factory
}

// New builds a PooledSource from the configuration, dispatching on cfg.Kind.
func New(cfg config.SourceConfig) (provider.PooledSource, error) {
	factoryMutex.RLock()
	factory, ok := factoryRegistry[cfg.Kind]
	factoryMutex.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no source factory registered for kind: %s", cfg.Kind)
	}
	return factory(cfg)
}

// ApplyPoolSettings applies the configured pool limits to the *sql.DB.
func ApplyPoolSettings(db *sql.DB, pool config.PoolConfig) {
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	if pool.ConnMaxLifetimeMinutes > 0 {
		db.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetimeMinutes) * time.Minute)
	}
}

// CredentialKey derives the map key of a per-credential sub-pool. The NUL
// separator cannot occur in either value, so distinct pairs never collide.
func CredentialKey(user, password string) string {
	return user + "\x00" + password
}
