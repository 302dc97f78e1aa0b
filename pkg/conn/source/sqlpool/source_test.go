package sqlpool_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/mooring/pkg/conn/source/sqlpool"
	"github.com/tigerroll/mooring/pkg/support/util/exception"
)

func newMockSource(t *testing.T) *sqlpool.Source {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlpool.NewFromDB(db)
}

func TestAcquireAndRelease(t *testing.T) {
	src := newMockSource(t)

	conn, err := src.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, src.Release(conn))
}

func TestWrappedPoolRejectsCredentialedAcquisition(t *testing.T) {
	src := newMockSource(t)

	_, err := src.AcquireWithCredentials(context.Background(), "alice", "s3cret")
	require.Error(t, err)
	assert.True(t, exception.IsAcquisition(err))
}

func TestGetSQLDB(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	src := sqlpool.NewFromDB(db)
	got, err := src.GetSQLDB()
	require.NoError(t, err)
	assert.Same(t, db, got)
}

func TestCloseIsSafeOnWrappedPool(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)

	src := sqlpool.NewFromDB(db)
	require.NoError(t, src.Close())
}
