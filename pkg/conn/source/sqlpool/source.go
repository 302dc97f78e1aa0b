// Package sqlpool provides a database/sql-backed PooledSource. Go fixes
// credentials at pool-open time, so credentialed acquisition maps to one
// lazily opened sub-pool per credential pair.
package sqlpool

import (
	"context"
	"database/sql"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/tigerroll/mooring/pkg/conn/core/config"
	"github.com/tigerroll/mooring/pkg/conn/provider"
	"github.com/tigerroll/mooring/pkg/conn/source"
	"github.com/tigerroll/mooring/pkg/support/util/exception"
	"github.com/tigerroll/mooring/pkg/support/util/logger"
)

const (
	// Kind is the factory key of this source implementation.
	Kind = "sqlpool"

	moduleName = "source"
)

// Source implements provider.PooledSource on top of database/sql. The base
// pool uses the credentials baked into the configuration; credential-specific
// sub-pools are opened on first use and cached.
type Source struct {
	mu        sync.Mutex
	cfg       config.SourceConfig
	base      *sql.DB
	credPools map[string]*sql.DB
	static    bool // base pool was handed in; no DSN to derive sub-pools from
}

// sqlDriverName maps the configured driver name to the name the database/sql
// driver registers itself under. The drivers are registered by the imports in
// errors.go.
func sqlDriverName(driver string) string {
	if driver == "sqlite" {
		return "sqlite3"
	}
	return driver
}

// New opens a Source from the configuration. The pool is opened lazily by
// database/sql; no server round trip happens here.
func New(cfg config.SourceConfig) (*Source, error) {
	dsn, err := source.BuildDSN(cfg.Driver, cfg, cfg.User, cfg.Password)
	if err != nil {
		return nil, exception.NewProviderError(moduleName, "failed to build DSN", exception.KindConfiguration, err)
	}
	db, err := sql.Open(sqlDriverName(cfg.Driver), dsn)
	if err != nil {
		return nil, exception.NewProviderError(moduleName, "failed to open connection pool", exception.KindConfiguration, err)
	}
	source.ApplyPoolSettings(db, cfg.Pool)

	return &Source{
		cfg:       cfg,
		base:      db,
		credPools: make(map[string]*sql.DB),
	}, nil
}

// NewFromDB wraps an already opened *sql.DB as a Source. Credentialed
// acquisition is unavailable for a wrapped pool because there is no DSN to
// derive credential-specific sub-pools from.
func NewFromDB(db *sql.DB) *Source {
	return &Source{
		base:      db,
		credPools: make(map[string]*sql.DB),
		static:    true,
	}
}

// Acquire checks a connection out of the base pool.
func (s *Source) Acquire(ctx context.Context) (*sql.Conn, error) {
	return s.base.Conn(ctx)
}

// AcquireWithCredentials checks a connection out of the sub-pool opened for
// the given credential pair, opening it on first use.
func (s *Source) AcquireWithCredentials(ctx context.Context, user, password string) (*sql.Conn, error) {
	pool, err := s.credPool(user, password)
	if err != nil {
		return nil, err
	}
	return pool.Conn(ctx)
}

// credPool returns the cached sub-pool for the credential pair, opening and
// caching it when absent.
func (s *Source) credPool(user, password string) (*sql.DB, error) {
	key := source.CredentialKey(user, password)

	s.mu.Lock()
	defer s.mu.Unlock()

	if pool, ok := s.credPools[key]; ok {
		return pool, nil
	}
	if s.static {
		return nil, exception.NewProviderErrorf(moduleName, exception.KindAcquisition,
			"credentialed acquisition is not supported on a wrapped pool")
	}

	dsn, err := source.BuildDSN(s.cfg.Driver, s.cfg, user, password)
	if err != nil {
		return nil, exception.NewProviderError(moduleName, "failed to build credentialed DSN", exception.KindAcquisition, err)
	}
	pool, err := sql.Open(sqlDriverName(s.cfg.Driver), dsn)
	if err != nil {
		return nil, exception.NewProviderError(moduleName, "failed to open credentialed pool", exception.KindAcquisition, err)
	}
	source.ApplyPoolSettings(pool, s.cfg.Pool)
	s.credPools[key] = pool
	logger.Debugf("Opened credentialed sub-pool for user '%s' (%s).", user, s.cfg.Driver)
	return pool, nil
}

// Release returns the connection to its pool.
func (s *Source) Release(conn *sql.Conn) error {
	return conn.Close()
}

// GetSQLDB returns the base pool.
func (s *Source) GetSQLDB() (*sql.DB, error) {
	if s.base == nil {
		return nil, exception.NewProviderErrorf(moduleName, exception.KindIllegalState, "underlying sql.DB is nil")
	}
	return s.base, nil
}

// Close closes the base pool and every credential sub-pool, aggregating
// failures.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result *multierror.Error
	if s.base != nil {
		if err := s.base.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	for key, pool := range s.credPools {
		if err := pool.Close(); err != nil {
			result = multierror.Append(result, err)
		}
		delete(s.credPools, key)
	}
	return result.ErrorOrNil()
}

var _ provider.PooledSource = (*Source)(nil)
