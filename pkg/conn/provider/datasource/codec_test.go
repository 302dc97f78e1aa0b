package datasource_test

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/mooring/pkg/conn/core/config"
	"github.com/tigerroll/mooring/pkg/conn/provider/datasource"
	"github.com/tigerroll/mooring/pkg/support/util/exception"
)

// mapCodec captures collaborators as indices into an in-memory table,
// simulating reference tokens resolvable in the restoring environment.
type mapCodec struct {
	values []interface{}
}

func (c *mapCodec) Capture(v interface{}) ([]byte, error) {
	c.values = append(c.values, v)
	return []byte(strconv.Itoa(len(c.values) - 1)), nil
}

func (c *mapCodec) Restore(token []byte) (interface{}, error) {
	idx, err := strconv.Atoi(string(token))
	if err != nil || idx < 0 || idx >= len(c.values) {
		return nil, errors.New("unknown collaborator token")
	}
	return c.values[idx], nil
}

func TestStateRoundTripInjectedSource(t *testing.T) {
	src := newStubSource(t)
	codec := &mapCodec{}

	p := datasource.NewDatasourceProvider()
	p.SetSource(src)
	require.NoError(t, p.Configure(map[string]interface{}{
		config.KeyUser:     "alice",
		config.KeyPassword: "s3cret",
	}))

	state, err := p.CaptureState(codec)
	require.NoError(t, err)

	restored := datasource.NewDatasourceProvider()
	require.NoError(t, restored.RestoreState(state, codec))

	conn, err := restored.GetConnection(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	// Credential state survives the round trip.
	assert.Equal(t, 1, src.credCalls)
	assert.Equal(t, "alice", src.lastUser)
	assert.Equal(t, "s3cret", src.lastPass)
}

func TestStateRoundTripNamedSource(t *testing.T) {
	src := newStubSource(t)
	lookup := &stubLookup{bindings: map[string]interface{}{"main": src}}
	codec := &mapCodec{}

	p := datasource.NewDatasourceProvider()
	p.SetLookupService(lookup)
	require.NoError(t, p.Configure(map[string]interface{}{
		config.KeyDatasource: "main",
	}))

	state, err := p.CaptureState(codec)
	require.NoError(t, err)

	restored := datasource.NewDatasourceProvider()
	require.NoError(t, restored.RestoreState(state, codec))

	// The named source is re-resolved through the restored lookup service,
	// not deserialized.
	conn, err := restored.GetConnection(context.Background())
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, 1, src.acquireCalls)
}

func TestStateRoundTripUnavailableProvider(t *testing.T) {
	codec := &mapCodec{}

	p := datasource.NewDatasourceProvider()
	state, err := p.CaptureState(codec)
	require.NoError(t, err)

	restored := datasource.NewDatasourceProvider()
	require.NoError(t, restored.RestoreState(state, codec))

	// An unconfigured capture restores an unconfigured provider; no
	// resolution is attempted.
	_, err = restored.GetConnection(context.Background())
	require.Error(t, err)
	assert.True(t, exception.IsIllegalState(err))
}

func TestStateRoundTripEmptyCredentialDistinctFromUnset(t *testing.T) {
	src := newStubSource(t)
	codec := &mapCodec{}

	p := datasource.NewDatasourceProvider()
	p.SetSource(src)
	require.NoError(t, p.Configure(map[string]interface{}{
		config.KeyUser: "",
	}))

	state, err := p.CaptureState(codec)
	require.NoError(t, err)

	restored := datasource.NewDatasourceProvider()
	require.NoError(t, restored.RestoreState(state, codec))

	conn, err := restored.GetConnection(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	// An explicitly empty user is still a set credential.
	assert.Equal(t, 1, src.credCalls)
	assert.Equal(t, "", src.lastUser)
}

func TestRestoreMissingNamedBindingFails(t *testing.T) {
	src := newStubSource(t)
	lookup := &stubLookup{bindings: map[string]interface{}{"main": src}}
	codec := &mapCodec{}

	p := datasource.NewDatasourceProvider()
	p.SetLookupService(lookup)
	require.NoError(t, p.Configure(map[string]interface{}{
		config.KeyDatasource: "main",
	}))

	state, err := p.CaptureState(codec)
	require.NoError(t, err)

	// The restoring environment no longer has the binding.
	delete(lookup.bindings, "main")

	restored := datasource.NewDatasourceProvider()
	err = restored.RestoreState(state, codec)
	require.Error(t, err)
	assert.True(t, exception.IsConfiguration(err))
}

func TestRestoreRejectsCorruptState(t *testing.T) {
	codec := &mapCodec{}
	p := datasource.NewDatasourceProvider()

	err := p.RestoreState([]byte{}, codec)
	require.Error(t, err)
	assert.True(t, exception.IsConfiguration(err))

	err = p.RestoreState([]byte{1, 1}, codec)
	require.Error(t, err)
	assert.True(t, exception.IsConfiguration(err))
}

func TestRestoreRejectsUnknownVersion(t *testing.T) {
	codec := &mapCodec{}
	p := datasource.NewDatasourceProvider()

	err := p.RestoreState([]byte{0xFF, 0}, codec)
	require.Error(t, err)
	assert.True(t, exception.IsConfiguration(err))
	assert.Contains(t, err.Error(), "unsupported state version")
}

func TestRestoredProviderFollowsLifecycle(t *testing.T) {
	src := newStubSource(t)
	lookup := &stubLookup{bindings: map[string]interface{}{"main": src}}
	codec := &mapCodec{}

	p := datasource.NewDatasourceProvider()
	p.SetLookupService(lookup)
	require.NoError(t, p.Configure(map[string]interface{}{
		config.KeyDatasource: "main",
	}))

	state, err := p.CaptureState(codec)
	require.NoError(t, err)

	restored := datasource.NewDatasourceProvider()
	require.NoError(t, restored.RestoreState(state, codec))

	conn, err := restored.GetConnection(context.Background())
	require.NoError(t, err)
	require.NoError(t, restored.CloseConnection(context.Background(), conn))

	// A restored provider stops like any other.
	restored.Stop()
	_, err = restored.GetConnection(context.Background())
	require.Error(t, err)
	assert.True(t, exception.IsIllegalState(err))
}

func TestCaptureFieldOrderIsStable(t *testing.T) {
	src := newStubSource(t)
	codec := &mapCodec{}

	p := datasource.NewDatasourceProvider()
	p.SetSource(src)
	require.NoError(t, p.Configure(map[string]interface{}{
		config.KeyUser: "alice",
	}))

	first, err := p.CaptureState(codec)
	require.NoError(t, err)

	// version, available=1, userSet=1, "alice", passSet=0, lookup=0,
	// named=0, source present=1, token.
	assert.Equal(t, byte(1), first[0])
	assert.Equal(t, byte(1), first[1])
	assert.Equal(t, byte(1), first[2])
	assert.Equal(t, byte(5), first[3])
	assert.Equal(t, "alice", string(first[4:9]))
	assert.Equal(t, byte(0), first[9])
	assert.Equal(t, byte(0), first[10])
	assert.Equal(t, byte(0), first[11])
	assert.Equal(t, byte(1), first[12])
}
