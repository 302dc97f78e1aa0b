package datasource_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/mooring/pkg/conn/core/config"
	"github.com/tigerroll/mooring/pkg/conn/provider"
	"github.com/tigerroll/mooring/pkg/conn/provider/datasource"
	"github.com/tigerroll/mooring/pkg/support/util/exception"
)

// stubSource implements provider.PooledSource over a sqlmock-backed *sql.DB so
// acquired connections are real *sql.Conn handles.
type stubSource struct {
	mu           sync.Mutex
	db           *sql.DB
	acquireCalls int
	credCalls    int
	lastUser     string
	lastPass     string
	releaseCalls int
	acquireErr   error
	releaseErr   error
	closed       bool
}

func newStubSource(t *testing.T) *stubSource {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &stubSource{db: db}
}

func (s *stubSource) Acquire(ctx context.Context) (*sql.Conn, error) {
	s.mu.Lock()
	s.acquireCalls++
	err := s.acquireErr
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.db.Conn(ctx)
}

func (s *stubSource) AcquireWithCredentials(ctx context.Context, user, password string) (*sql.Conn, error) {
	s.mu.Lock()
	s.credCalls++
	s.lastUser, s.lastPass = user, password
	err := s.acquireErr
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.db.Conn(ctx)
}

func (s *stubSource) Release(conn *sql.Conn) error {
	s.mu.Lock()
	s.releaseCalls++
	err := s.releaseErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return conn.Close()
}

func (s *stubSource) GetSQLDB() (*sql.DB, error) {
	return s.db, nil
}

func (s *stubSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// stubLookup implements provider.LookupService over a plain map.
type stubLookup struct {
	bindings map[string]interface{}
	err      error
}

func (l *stubLookup) Locate(name string) (interface{}, error) {
	if l.err != nil {
		return nil, l.err
	}
	v, ok := l.bindings[name]
	if !ok {
		return nil, errors.New("name not found: " + name)
	}
	return v, nil
}

func TestConfigureWithInjectedSource(t *testing.T) {
	src := newStubSource(t)
	p := datasource.NewDatasourceProvider()
	// An injected source must win without the lookup service being consulted.
	p.SetLookupService(&stubLookup{err: errors.New("lookup must not be called")})

	err := p.Configure(map[string]interface{}{
		config.KeyDatasource: provider.PooledSource(src),
	})
	require.NoError(t, err)

	conn, err := p.GetConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, src.acquireCalls)
	assert.Equal(t, 0, src.credCalls)

	require.NoError(t, p.CloseConnection(context.Background(), conn))
	assert.Equal(t, 1, src.releaseCalls)
}

func TestConfigureWithSetSource(t *testing.T) {
	src := newStubSource(t)
	p := datasource.NewDatasourceProvider()
	p.SetSource(src)

	require.NoError(t, p.Configure(map[string]interface{}{}))

	conn, err := p.GetConnection(context.Background())
	require.NoError(t, err)
	require.NoError(t, p.CloseConnection(context.Background(), conn))
}

func TestConfigureWithLookupName(t *testing.T) {
	src := newStubSource(t)
	p := datasource.NewDatasourceProvider()
	p.SetLookupService(&stubLookup{bindings: map[string]interface{}{"main": src}})

	err := p.Configure(map[string]interface{}{
		config.KeyDatasource: "main",
	})
	require.NoError(t, err)

	conn, err := p.GetConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, src.acquireCalls)
	require.NoError(t, p.CloseConnection(context.Background(), conn))
}

func TestConfigureWithoutSourceFails(t *testing.T) {
	p := datasource.NewDatasourceProvider()

	err := p.Configure(map[string]interface{}{})
	require.Error(t, err)
	assert.True(t, exception.IsConfiguration(err))

	// The failed configuration leaves the provider unavailable.
	_, err = p.GetConnection(context.Background())
	assert.True(t, exception.IsIllegalState(err))
}

func TestConfigureNamedWithoutLookupServiceFails(t *testing.T) {
	p := datasource.NewDatasourceProvider()

	err := p.Configure(map[string]interface{}{
		config.KeyDatasource: "main",
	})
	require.Error(t, err)
	assert.True(t, exception.IsConfiguration(err))
}

func TestConfigureLookupFailurePropagates(t *testing.T) {
	p := datasource.NewDatasourceProvider()
	p.SetLookupService(&stubLookup{err: errors.New("directory down")})

	err := p.Configure(map[string]interface{}{
		config.KeyDatasource: "main",
	})
	require.Error(t, err)
	assert.True(t, exception.IsConfiguration(err))
	assert.Contains(t, err.Error(), "directory down")
}

func TestConfigureLookupWrongTypeFails(t *testing.T) {
	p := datasource.NewDatasourceProvider()
	p.SetLookupService(&stubLookup{bindings: map[string]interface{}{"main": "not a source"}})

	err := p.Configure(map[string]interface{}{
		config.KeyDatasource: "main",
	})
	require.Error(t, err)
	assert.True(t, exception.IsConfiguration(err))
}

func TestConfigureRejectsNonStringCredentials(t *testing.T) {
	src := newStubSource(t)
	p := datasource.NewDatasourceProvider()
	p.SetSource(src)

	err := p.Configure(map[string]interface{}{
		config.KeyUser: 42,
	})
	require.Error(t, err)
	assert.True(t, exception.IsConfiguration(err))
}

func TestCredentialedAcquisition(t *testing.T) {
	tests := []struct {
		name     string
		options  map[string]interface{}
		wantCred bool
		wantUser string
		wantPass string
	}{
		{
			name:     "no credentials uses plain acquire",
			options:  map[string]interface{}{},
			wantCred: false,
		},
		{
			name:     "user only passes empty password",
			options:  map[string]interface{}{config.KeyUser: "alice"},
			wantCred: true,
			wantUser: "alice",
			wantPass: "",
		},
		{
			name:     "password only passes empty user",
			options:  map[string]interface{}{config.KeyPassword: "s3cret"},
			wantCred: true,
			wantUser: "",
			wantPass: "s3cret",
		},
		{
			name: "both credentials passed together",
			options: map[string]interface{}{
				config.KeyUser:     "alice",
				config.KeyPassword: "s3cret",
			},
			wantCred: true,
			wantUser: "alice",
			wantPass: "s3cret",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newStubSource(t)
			p := datasource.NewDatasourceProvider()
			p.SetSource(src)
			require.NoError(t, p.Configure(tt.options))

			conn, err := p.GetConnection(context.Background())
			require.NoError(t, err)
			defer conn.Close()

			if tt.wantCred {
				assert.Equal(t, 0, src.acquireCalls)
				assert.Equal(t, 1, src.credCalls)
				assert.Equal(t, tt.wantUser, src.lastUser)
				assert.Equal(t, tt.wantPass, src.lastPass)
			} else {
				assert.Equal(t, 1, src.acquireCalls)
				assert.Equal(t, 0, src.credCalls)
			}
		})
	}
}

func TestGetConnectionWrapsAcquisitionFailure(t *testing.T) {
	src := newStubSource(t)
	src.acquireErr = errors.New("pool exhausted")
	p := datasource.NewDatasourceProvider()
	p.SetSource(src)
	require.NoError(t, p.Configure(map[string]interface{}{}))

	_, err := p.GetConnection(context.Background())
	require.Error(t, err)
	assert.True(t, exception.IsAcquisition(err))
	assert.Contains(t, err.Error(), "pool exhausted")
}

func TestCloseConnectionWrapsReleaseFailure(t *testing.T) {
	src := newStubSource(t)
	p := datasource.NewDatasourceProvider()
	p.SetSource(src)
	require.NoError(t, p.Configure(map[string]interface{}{}))

	conn, err := p.GetConnection(context.Background())
	require.NoError(t, err)

	src.releaseErr = errors.New("pool gone")
	err = p.CloseConnection(context.Background(), conn)
	require.Error(t, err)
	assert.True(t, exception.IsRelease(err))
	conn.Close()
}

func TestGetConnectionAfterStop(t *testing.T) {
	src := newStubSource(t)
	p := datasource.NewDatasourceProvider()
	p.SetSource(src)
	require.NoError(t, p.Configure(map[string]interface{}{}))

	p.Stop()

	_, err := p.GetConnection(context.Background())
	require.Error(t, err)
	assert.True(t, exception.IsIllegalState(err))
	assert.Contains(t, err.Error(), "provider is closed")
}

func TestStopIsIdempotentAndDoesNotCloseSource(t *testing.T) {
	src := newStubSource(t)
	p := datasource.NewDatasourceProvider()
	p.SetSource(src)
	require.NoError(t, p.Configure(map[string]interface{}{}))

	p.Stop()
	p.Stop()

	// The source is externally owned and must survive the provider.
	assert.False(t, src.closed)
	assert.Nil(t, p.Source())
}

func TestCloseConnectionAfterStopClosesHandle(t *testing.T) {
	src := newStubSource(t)
	p := datasource.NewDatasourceProvider()
	p.SetSource(src)
	require.NoError(t, p.Configure(map[string]interface{}{}))

	conn, err := p.GetConnection(context.Background())
	require.NoError(t, err)

	p.Stop()

	// The source reference is gone; the handle is closed directly.
	require.NoError(t, p.CloseConnection(context.Background(), conn))
	assert.Equal(t, 0, src.releaseCalls)
}

func TestGetConnectionConcurrentWithStop(t *testing.T) {
	src := newStubSource(t)
	p := datasource.NewDatasourceProvider()
	p.SetSource(src)
	require.NoError(t, p.Configure(map[string]interface{}{}))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn, err := p.GetConnection(context.Background())
			if err != nil {
				assert.True(t, exception.IsIllegalState(err))
				return
			}
			assert.NoError(t, p.CloseConnection(context.Background(), conn))
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.Stop()
	}()
	wg.Wait()
}

func TestSupportsAggressiveRelease(t *testing.T) {
	p := datasource.NewDatasourceProvider()
	assert.True(t, p.SupportsAggressiveRelease())
}

func TestUnwrap(t *testing.T) {
	src := newStubSource(t)
	p := datasource.NewDatasourceProvider()
	p.SetSource(src)
	require.NoError(t, p.Configure(map[string]interface{}{}))

	assert.True(t, p.IsUnwrappableAs(provider.UnwrapConnectionProvider))
	assert.True(t, p.IsUnwrappableAs(provider.UnwrapDatasourceProvider))
	assert.True(t, p.IsUnwrappableAs(provider.UnwrapPooledSource))
	assert.False(t, p.IsUnwrappableAs(provider.UnwrapKind(99)))

	asProvider, err := p.Unwrap(provider.UnwrapConnectionProvider)
	require.NoError(t, err)
	assert.Same(t, p, asProvider)

	asConcrete, err := p.Unwrap(provider.UnwrapDatasourceProvider)
	require.NoError(t, err)
	assert.Same(t, p, asConcrete)

	asSource, err := p.Unwrap(provider.UnwrapPooledSource)
	require.NoError(t, err)
	assert.Same(t, src, asSource)

	_, err = p.Unwrap(provider.UnwrapKind(99))
	require.Error(t, err)
	assert.True(t, exception.IsUnsupportedUnwrap(err))
}
