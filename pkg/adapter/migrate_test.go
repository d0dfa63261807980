package adapter

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestMigrateFS(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	version, err := MigrateFS(ctx, db, "sqlite", os.DirFS("testdata"), "migrations")
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM comments").Scan(&n))
	assert.Zero(t, n)

	// re-running is a no-op
	version, err = MigrateFS(ctx, db, "sqlite", os.DirFS("testdata"), "migrations")
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
}

func TestMigrateFS_Errors(t *testing.T) {
	_, err := MigrateFS(context.Background(), nil, "sqlite", os.DirFS("testdata"), "migrations")
	assert.EqualError(t, err, "database not opened")

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = MigrateFS(context.Background(), db, "not-a-dialect", os.DirFS("testdata"), "migrations")
	assert.ErrorContains(t, err, "failed to set dialect")
}
