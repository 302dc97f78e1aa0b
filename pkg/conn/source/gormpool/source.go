// Package gormpool provides a GORM-backed PooledSource. Driver-specific
// dialectors are contributed by the gormpool/mysql, gormpool/postgres and
// gormpool/sqlite subpackages.
package gormpool

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"gorm.io/gorm"

	"github.com/tigerroll/mooring/pkg/conn/core/config"
	"github.com/tigerroll/mooring/pkg/conn/provider"
	"github.com/tigerroll/mooring/pkg/conn/source"
	"github.com/tigerroll/mooring/pkg/support/util/exception"
	"github.com/tigerroll/mooring/pkg/support/util/logger"
)

const (
	// Kind is the factory key of this source implementation.
	Kind = "gormpool"

	moduleName = "source"
)

// DialectorFactory generates a gorm.Dialector from a source configuration and
// a credential pair.
type DialectorFactory func(cfg config.SourceConfig, user, password string) (gorm.Dialector, error)

var (
	dialectorRegistry = make(map[string]DialectorFactory)
	dialectorMutex    sync.RWMutex
)

// RegisterDialector registers a DialectorFactory for the given driver name.
func RegisterDialector(driver string, factory DialectorFactory) {
	dialectorMutex.Lock()
	defer dialectorMutex.Unlock()
	if _, exists := dialectorRegistry[driver]; exists {
		logger.Warnf("Dialector for driver '%s' already registered. Overwriting.", driver)
	}
	dialectorRegistry[driver] = factory
}

// GetDialectorFactory retrieves the DialectorFactory for the specified driver.
func GetDialectorFactory(driver string) (DialectorFactory, error) {
	dialectorMutex.RLock()
	defer dialectorMutex.RUnlock()
	factory, ok := dialectorRegistry[driver]
	if !ok {
		return nil, fmt.Errorf("no dialector registered for driver: %s", driver)
	}
	return factory, nil
}

// pool couples a gorm handle with its underlying sql.DB.
type pool struct {
	db    *gorm.DB
	sqlDB *sql.DB
}

// Source implements provider.PooledSource on top of GORM. Credential-specific
// sub-pools are opened through the same dialector factory with the credential
// pair substituted.
type Source struct {
	mu        sync.Mutex
	cfg       config.SourceConfig
	base      pool
	credPools map[string]pool
}

// New opens a Source from the configuration.
func New(cfg config.SourceConfig) (*Source, error) {
	base, err := open(cfg, cfg.User, cfg.Password)
	if err != nil {
		return nil, err
	}
	return &Source{
		cfg:       cfg,
		base:      base,
		credPools: make(map[string]pool),
	}, nil
}

// open builds a dialector for the credential pair and opens a GORM pool.
func open(cfg config.SourceConfig, user, password string) (pool, error) {
	factory, err := GetDialectorFactory(cfg.Driver)
	if err != nil {
		return pool{}, exception.NewProviderError(moduleName, "failed to get dialector factory", exception.KindConfiguration, err)
	}
	dialector, err := factory(cfg, user, password)
	if err != nil {
		return pool{}, exception.NewProviderError(moduleName, "failed to create dialector", exception.KindConfiguration, err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(string(config.LogLevelSilent)),
	})
	if err != nil {
		return pool{}, exception.NewProviderError(moduleName, "failed to open GORM connection", exception.KindConfiguration, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return pool{}, exception.NewProviderError(moduleName, "failed to get underlying sql.DB", exception.KindConfiguration, err)
	}
	source.ApplyPoolSettings(sqlDB, cfg.Pool)
	return pool{db: db, sqlDB: sqlDB}, nil
}

// Acquire checks a connection out of the base pool.
func (s *Source) Acquire(ctx context.Context) (*sql.Conn, error) {
	return s.base.sqlDB.Conn(ctx)
}

// AcquireWithCredentials checks a connection out of the sub-pool opened for
// the given credential pair, opening it on first use.
func (s *Source) AcquireWithCredentials(ctx context.Context, user, password string) (*sql.Conn, error) {
	key := source.CredentialKey(user, password)

	s.mu.Lock()
	p, ok := s.credPools[key]
	if !ok {
		var err error
		p, err = open(s.cfg, user, password)
		if err != nil {
			s.mu.Unlock()
			return nil, exception.NewProviderError(moduleName, "failed to open credentialed pool", exception.KindAcquisition, err)
		}
		s.credPools[key] = p
		logger.Debugf("Opened credentialed GORM sub-pool for user '%s' (%s).", user, s.cfg.Driver)
	}
	s.mu.Unlock()

	return p.sqlDB.Conn(ctx)
}

// Release returns the connection to its pool.
func (s *Source) Release(conn *sql.Conn) error {
	return conn.Close()
}

// GetSQLDB returns the base pool's underlying sql.DB.
func (s *Source) GetSQLDB() (*sql.DB, error) {
	if s.base.sqlDB == nil {
		return nil, exception.NewProviderErrorf(moduleName, exception.KindIllegalState, "underlying sql.DB is nil")
	}
	return s.base.sqlDB, nil
}

// GetGormDB returns the base pool's gorm handle for callers that need
// ORM-level access.
func (s *Source) GetGormDB() *gorm.DB {
	return s.base.db
}

// Close closes the base pool and every credential sub-pool, aggregating
// failures.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result *multierror.Error
	if s.base.sqlDB != nil {
		if err := s.base.sqlDB.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	for key, p := range s.credPools {
		if err := p.sqlDB.Close(); err != nil {
			result = multierror.Append(result, err)
		}
		delete(s.credPools, key)
	}
	return result.ErrorOrNil()
}

var _ provider.PooledSource = (*Source)(nil)
