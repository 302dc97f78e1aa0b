// Package provider defines the contracts of the mooring connection-provider layer:
// the provider abstraction consumed by session-level code, the pooled-source
// abstraction it delegates to, and the lookup service used for name-based resolution.
package provider

import (
	"context"
	"database/sql"
)

// PooledSource is an external object capable of producing and reclaiming
// connections, with its own internal pooling. Pooling, eviction and
// health-checking are its job; the provider treats it as opaque.
//
// Connections are *sql.Conn handles checked out of the underlying pool and
// owned by the caller until released.
type PooledSource interface {
	// Acquire checks a connection out of the pool without credentials.
	Acquire(ctx context.Context) (*sql.Conn, error)

	// AcquireWithCredentials checks a connection out of a pool opened for the
	// given credential pair. Both values are always passed together, empty
	// strings included.
	AcquireWithCredentials(ctx context.Context, user, password string) (*sql.Conn, error)

	// Release returns a connection to the pool.
	Release(conn *sql.Conn) error

	// GetSQLDB returns the underlying *sql.DB of the default pool. This exposes
	// a low-level dependency but is necessary for migration tools and raw access.
	GetSQLDB() (*sql.DB, error)

	// Close closes every pool held by the source.
	Close() error
}

// LookupService is an external naming facility mapping string names to objects,
// used to resolve a configured name into a PooledSource. The provider holds it
// as a shared, read-only collaborator and never mutates it.
type LookupService interface {
	// Locate resolves name into the bound object. A nil result with a nil error
	// is treated by the provider as a failed resolution.
	Locate(name string) (interface{}, error)
}

// UnwrapKind enumerates the capabilities a provider can present itself as.
// Capability introspection uses this closed set instead of open-ended
// reflective type checks.
type UnwrapKind int

const (
	// UnwrapConnectionProvider requests the provider abstraction itself.
	UnwrapConnectionProvider UnwrapKind = iota
	// UnwrapDatasourceProvider requests the concrete datasource-backed provider.
	UnwrapDatasourceProvider
	// UnwrapPooledSource requests the underlying resolved source.
	UnwrapPooledSource
)

// String returns the canonical name of the unwrap kind.
func (k UnwrapKind) String() string {
	switch k {
	case UnwrapConnectionProvider:
		return "connection_provider"
	case UnwrapDatasourceProvider:
		return "datasource_provider"
	case UnwrapPooledSource:
		return "pooled_source"
	default:
		return "unknown"
	}
}

// ConnectionProvider sits between session code and an externally supplied
// pooled-connection source, managing resolution and lifecycle.
//
// All methods are safe for concurrent use. Stop racing with GetConnection
// results in either a successful acquisition or a clean illegal-state error,
// never a crash on a released resource.
type ConnectionProvider interface {
	// Configure reads the options mapping, determines the resolution path,
	// attempts resolution and marks the provider available on success.
	// It fails with a configuration error when neither an injected source nor a
	// resolvable name/service pair can establish the source.
	Configure(options map[string]interface{}) error

	// GetConnection acquires a connection from the resolved source. It fails
	// with an illegal-state error when the provider is stopped or unconfigured;
	// source failures propagate as acquisition errors.
	GetConnection(ctx context.Context) (*sql.Conn, error)

	// CloseConnection releases the connection back to the underlying source.
	// Source failures propagate as release errors. No other state changes.
	CloseConnection(ctx context.Context, conn *sql.Conn) error

	// Stop releases the resolved source and marks the provider unavailable.
	// Calling it twice is harmless; the provider must be reconfigured before reuse.
	Stop()

	// SupportsAggressiveRelease declares whether connections may be closed and
	// reacquired aggressively without correctness loss.
	SupportsAggressiveRelease() bool

	// IsUnwrappableAs reports whether Unwrap would succeed for the given kind.
	IsUnwrappableAs(kind UnwrapKind) bool

	// Unwrap presents the provider as the requested capability, or fails with
	// an unsupported-unwrap error.
	Unwrap(kind UnwrapKind) (interface{}, error)
}

// CollaboratorCodec captures and restores opaque collaborator handles (the
// lookup service, an injected source) during provider state serialization.
// Handles cannot be serialized portably, so implementations typically encode a
// reference token that the restoring environment can resolve again.
type CollaboratorCodec interface {
	// Capture encodes a collaborator handle into a portable token.
	Capture(v interface{}) ([]byte, error)

	// Restore decodes a token back into a live collaborator handle.
	Restore(token []byte) (interface{}, error)
}
