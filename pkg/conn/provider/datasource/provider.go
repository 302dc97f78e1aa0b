// Package datasource implements the connection provider backed by an external
// pooled source. The source to use may be specified by either injection via
// SetSource, declaring a live PooledSource under the "datasource" option, or
// declaring the lookup name under which the source can be located.
package datasource

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tigerroll/mooring/pkg/conn/core/config"
	"github.com/tigerroll/mooring/pkg/conn/core/metrics"
	"github.com/tigerroll/mooring/pkg/conn/provider"
	"github.com/tigerroll/mooring/pkg/support/util/exception"
	"github.com/tigerroll/mooring/pkg/support/util/logger"
)

const moduleName = "provider"

// resolutionMode discriminates how the source was (or will be) established.
type resolutionMode int

const (
	// modeUnresolved means no resolution path has been determined yet.
	modeUnresolved resolutionMode = iota
	// modeInjected means a live source handle was supplied externally.
	modeInjected
	// modeNamed means the source is resolved by name through the lookup service.
	modeNamed
)

// DatasourceProvider manages connections obtained from an underlying
// PooledSource. A single mutex guards availability, the resolved source and
// credential state, so all public operations are safe under concurrent calls
// from the session layer.
type DatasourceProvider struct {
	mu sync.Mutex

	id            string
	source        provider.PooledSource
	lookupName    string
	mode          resolutionMode
	user          string
	pass          string
	userSet       bool
	passSet       bool
	useCredential bool
	lookupService provider.LookupService
	available     bool

	recorder metrics.MetricRecorder
	tracer   metrics.Tracer
}

// NewDatasourceProvider creates an unconfigured provider. Metrics default to
// the no-op recorder until a real one is set.
func NewDatasourceProvider() *DatasourceProvider {
	return &DatasourceProvider{
		id:       uuid.New().String(),
		recorder: metrics.NewNoOpMetricRecorder(),
		tracer:   metrics.NewNoOpTracer(),
	}
}

// ID returns the unique identifier of this provider instance, used in logs.
func (p *DatasourceProvider) ID() string {
	return p.id
}

// Source returns the currently resolved source, nil when unresolved or stopped.
func (p *DatasourceProvider) Source() provider.PooledSource {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.source
}

// SetSource injects the source directly, bypassing name-based lookup.
func (p *DatasourceProvider) SetSource(source provider.PooledSource) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.source = source
	p.mode = modeInjected
}

// SetLookupService injects the directory service used for name-based
// resolution. The reference is shared and never mutated by the provider.
func (p *DatasourceProvider) SetLookupService(ls provider.LookupService) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lookupService = ls
}

// SetMetricRecorder replaces the metric recorder.
func (p *DatasourceProvider) SetMetricRecorder(recorder metrics.MetricRecorder) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if recorder != nil {
		p.recorder = recorder
	}
}

// SetTracer replaces the tracer.
func (p *DatasourceProvider) SetTracer(tracer metrics.Tracer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if tracer != nil {
		p.tracer = tracer
	}
}

// Configure reads the options mapping, determines the resolution path,
// attempts resolution and marks the provider available on success. On failure
// the provider remains unavailable and the configuration error is returned.
func (p *DatasourceProvider) Configure(options map[string]interface{}) error {
	opts := config.Options(options)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.source == nil {
		if raw, ok := opts[config.KeyDatasource]; ok {
			switch v := raw.(type) {
			case provider.PooledSource:
				p.source = v
				p.mode = modeInjected
			case string:
				p.lookupName = v
				p.mode = modeNamed
			default:
				return exception.NewProviderErrorf(moduleName, exception.KindConfiguration,
					"'%s' option must be a PooledSource handle or a lookup name string, got %T", config.KeyDatasource, raw)
			}
		}
	}
	if v, ok := opts[config.KeyUser]; ok {
		s, ok := v.(string)
		if !ok {
			return exception.NewProviderErrorf(moduleName, exception.KindConfiguration,
				"'%s' option must be a string, got %T", config.KeyUser, v)
		}
		p.user = s
		p.userSet = true
	}
	if v, ok := opts[config.KeyPassword]; ok {
		s, ok := v.(string)
		if !ok {
			return exception.NewProviderErrorf(moduleName, exception.KindConfiguration,
				"'%s' option must be a string, got %T", config.KeyPassword, v)
		}
		p.pass = s
		p.passSet = true
	}

	if err := p.resolveLocked(); err != nil {
		p.recorder.RecordResolution(context.Background(), p.datasourceLabelLocked(), err)
		return err
	}
	p.available = true
	p.recorder.RecordResolution(context.Background(), p.datasourceLabelLocked(), nil)
	logger.Infof("Connection provider %s configured (datasource: %s).", p.id, p.datasourceLabelLocked())
	return nil
}

// resolveLocked establishes the source from the determined resolution path.
// The caller must hold p.mu. When the source is already set this only
// recomputes the credential flag.
func (p *DatasourceProvider) resolveLocked() error {
	if p.source == nil {
		if p.lookupName == "" {
			return exception.NewProviderErrorf(moduleName, exception.KindConfiguration,
				"source to use was not injected nor specified by the '%s' configuration option", config.KeyDatasource)
		}
		if p.lookupService == nil {
			return exception.NewProviderErrorf(moduleName, exception.KindConfiguration,
				"no lookup service available to locate datasource '%s'", p.lookupName)
		}
		located, err := p.lookupService.Locate(p.lookupName)
		if err != nil {
			return exception.NewProviderError(moduleName,
				"lookup of datasource '"+p.lookupName+"' failed", exception.KindConfiguration, err)
		}
		source, ok := located.(provider.PooledSource)
		if !ok || source == nil {
			return exception.NewProviderErrorf(moduleName, exception.KindConfiguration,
				"unable to determine appropriate source to use: lookup of '%s' returned %T", p.lookupName, located)
		}
		p.source = source
		p.mode = modeNamed
	}
	p.useCredential = p.userSet || p.passSet
	return nil
}

// datasourceLabelLocked returns the metrics label of the active resolution
// path. The caller must hold p.mu.
func (p *DatasourceProvider) datasourceLabelLocked() string {
	if p.lookupName != "" {
		return p.lookupName
	}
	return "injected"
}

// GetConnection acquires a connection from the resolved source. The lock is
// not held across the acquisition call itself, so a blocking pool does not
// serialize unrelated provider operations.
func (p *DatasourceProvider) GetConnection(ctx context.Context) (*sql.Conn, error) {
	p.mu.Lock()
	if !p.available {
		p.mu.Unlock()
		return nil, exception.NewProviderErrorf(moduleName, exception.KindIllegalState, "provider is closed")
	}
	source := p.source
	useCredential := p.useCredential
	user, pass := p.user, p.pass
	label := p.datasourceLabelLocked()
	p.mu.Unlock()

	ctx, finish := p.tracer.StartAcquireSpan(ctx, label)
	defer finish()

	start := time.Now()
	var conn *sql.Conn
	var err error
	if useCredential {
		conn, err = source.AcquireWithCredentials(ctx, user, pass)
	} else {
		conn, err = source.Acquire(ctx)
	}
	p.recorder.RecordAcquire(ctx, label, time.Since(start), err)
	if err != nil {
		p.tracer.RecordError(ctx, moduleName, err)
		return nil, exception.NewProviderError(moduleName, "failed to acquire connection", exception.KindAcquisition, err)
	}
	return conn, nil
}

// CloseConnection releases the connection back to the underlying source. When
// the source reference has already been dropped the connection is closed
// directly so the handle is never leaked.
func (p *DatasourceProvider) CloseConnection(ctx context.Context, conn *sql.Conn) error {
	p.mu.Lock()
	source := p.source
	label := p.datasourceLabelLocked()
	p.mu.Unlock()

	var err error
	if source != nil {
		err = source.Release(conn)
	} else {
		err = conn.Close()
	}
	p.recorder.RecordRelease(ctx, label, err)
	if err != nil {
		return exception.NewProviderError(moduleName, "failed to release connection", exception.KindRelease, err)
	}
	return nil
}

// Stop marks the provider unavailable and drops the source reference. The
// source itself is externally owned and is not closed here. Idempotent.
func (p *DatasourceProvider) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.available && p.source == nil {
		return
	}
	p.available = false
	p.source = nil
	logger.Infof("Connection provider %s stopped.", p.id)
}

// SupportsAggressiveRelease declares that connections may be closed and
// reacquired aggressively without correctness loss.
func (p *DatasourceProvider) SupportsAggressiveRelease() bool {
	return true
}

// IsUnwrappableAs reports whether Unwrap would succeed for the given kind.
func (p *DatasourceProvider) IsUnwrappableAs(kind provider.UnwrapKind) bool {
	switch kind {
	case provider.UnwrapConnectionProvider, provider.UnwrapDatasourceProvider, provider.UnwrapPooledSource:
		return true
	default:
		return false
	}
}

// Unwrap presents the provider as the requested capability: the provider
// abstraction, its concrete self, or the underlying source.
func (p *DatasourceProvider) Unwrap(kind provider.UnwrapKind) (interface{}, error) {
	switch kind {
	case provider.UnwrapConnectionProvider, provider.UnwrapDatasourceProvider:
		return p, nil
	case provider.UnwrapPooledSource:
		return p.Source(), nil
	default:
		return nil, exception.NewProviderErrorf(moduleName, exception.KindUnsupportedUnwrap, "unknown unwrap kind requested: %s", kind)
	}
}

var _ provider.ConnectionProvider = (*DatasourceProvider)(nil)
