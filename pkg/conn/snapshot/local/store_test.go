package local_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/mooring/pkg/conn/snapshot/local"
	"github.com/tigerroll/mooring/pkg/support/util/exception"
)

func TestSaveLoadDelete(t *testing.T) {
	store, err := local.NewStore(t.TempDir(), "")
	require.NoError(t, err)
	ctx := context.Background()

	state := []byte{1, 2, 3, 4}
	require.NoError(t, store.Save(ctx, "primary", state))

	loaded, err := store.Load(ctx, "primary")
	require.NoError(t, err)
	assert.Equal(t, state, loaded)

	require.NoError(t, store.Delete(ctx, "primary"))
	_, err = store.Load(ctx, "primary")
	assert.Error(t, err)
}

func TestSaveOverwrites(t *testing.T) {
	store, err := local.NewStore(t.TempDir(), "")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "primary", []byte("old")))
	require.NoError(t, store.Save(ctx, "primary", []byte("new")))

	loaded, err := store.Load(ctx, "primary")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), loaded)
}

func TestDeleteMissingIsHarmless(t *testing.T) {
	store, err := local.NewStore(t.TempDir(), "")
	require.NoError(t, err)

	assert.NoError(t, store.Delete(context.Background(), "missing"))
}

func TestListWithPrefix(t *testing.T) {
	dir := t.TempDir()
	store, err := local.NewStore(dir, "conn-")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "zeta", []byte("z")))
	require.NoError(t, store.Save(ctx, "alpha", []byte("a")))

	// A store with another prefix does not see these captures.
	other, err := local.NewStore(dir, "other-")
	require.NoError(t, err)
	require.NoError(t, other.Save(ctx, "hidden", []byte("h")))

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)
}

func TestRejectsInvalidNames(t *testing.T) {
	store, err := local.NewStore(t.TempDir(), "")
	require.NoError(t, err)
	ctx := context.Background()

	for _, name := range []string{"", "../escape", "a/b", `a\b`} {
		err := store.Save(ctx, name, []byte("x"))
		require.Error(t, err, "name %q", name)
		assert.True(t, exception.IsConfiguration(err))
	}
}

func TestNewStoreCreatesBaseDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "snapshots")
	store, err := local.NewStore(dir, "")
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), "primary", []byte("x")))
}

func TestNewStoreRejectsEmptyBaseDir(t *testing.T) {
	_, err := local.NewStore("", "")
	require.Error(t, err)
	assert.True(t, exception.IsConfiguration(err))
}

func TestNewStoreRejectsFileAsBaseDir(t *testing.T) {
	dir := t.TempDir()
	store, err := local.NewStore(dir, "")
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), "primary", []byte("x")))

	_, err = local.NewStore(filepath.Join(dir, "primary.state"), "")
	require.Error(t, err)
	assert.True(t, exception.IsConfiguration(err))
}
