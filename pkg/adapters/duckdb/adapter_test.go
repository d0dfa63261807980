package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/querylint/pkg/adapter"
	"github.com/leapstack-labs/querylint/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter_Connect(t *testing.T) {
	tests := []struct {
		name      string
		setupPath func(t *testing.T) string
		verify    func(t *testing.T, path string)
	}{
		{
			name: "in-memory",
			setupPath: func(_ *testing.T) string {
				return ":memory:"
			},
		},
		{
			name: "file-based",
			setupPath: func(t *testing.T) string {
				tmpDir := t.TempDir()
				return filepath.Join(tmpDir, "test.duckdb")
			},
			verify: func(t *testing.T, path string) {
				_, err := os.Stat(path)
				assert.False(t, os.IsNotExist(err), "database file was not created")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			adp := New(nil)

			dbPath := tt.setupPath(t)
			require.NoError(t, adp.Connect(ctx, adapter.Config{Path: dbPath}))
			defer func() { _ = adp.Close() }()

			if tt.verify != nil {
				tt.verify(t, dbPath)
			}
		})
	}
}

func TestAdapter_NotConnected(t *testing.T) {
	tests := []struct {
		name      string
		operation func(ctx context.Context, adp *Adapter) error
	}{
		{
			name: "exec without connect",
			operation: func(ctx context.Context, adp *Adapter) error {
				return adp.Exec(ctx, "SELECT 1")
			},
		},
		{
			name: "columns without connect",
			operation: func(ctx context.Context, adp *Adapter) error {
				_, err := adp.ColumnNames(ctx, "users")
				return err
			},
		},
		{
			name: "indexes without connect",
			operation: func(ctx context.Context, adp *Adapter) error {
				_, err := adp.Indexes(ctx, "users")
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			adp := New(nil)

			err := tt.operation(ctx, adp)
			assert.Error(t, err, "expected error when operating without connection")
		})
	}
}

func TestAdapter_Introspection(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)
	require.NoError(t, adp.Connect(ctx, adapter.Config{Path: ":memory:"}))
	defer func() { _ = adp.Close() }()

	require.NoError(t, adp.Exec(ctx, `
		CREATE TABLE registrations (
			course_id VARCHAR,
			user_id VARCHAR,
			created_at TIMESTAMP,
			PRIMARY KEY (course_id, user_id)
		)
	`))
	require.NoError(t, adp.Exec(ctx, `CREATE INDEX idx_reg_user ON registrations (user_id, created_at)`))

	cols, err := adp.ColumnNames(ctx, "registrations")
	require.NoError(t, err)
	assert.Equal(t, []string{"course_id", "user_id", "created_at"}, cols)

	pk, err := adp.PrimaryKeys(ctx, "main.registrations")
	require.NoError(t, err)
	assert.Equal(t, []string{"course_id", "user_id"}, pk)

	idx, err := adp.Indexes(ctx, "registrations")
	require.NoError(t, err)
	require.Len(t, idx, 1)
	assert.Equal(t, "idx_reg_user", idx[0].Name)
	assert.Equal(t, []string{"user_id", "created_at"}, idx[0].Columns)

	_, err = adp.ColumnNames(ctx, "ghost")
	assert.True(t, schema.IsUnavailable(err))
	assert.ErrorIs(t, err, schema.ErrTableNotFound)
}

func TestIndexColumns(t *testing.T) {
	tests := []struct {
		def  string
		want []string
	}{
		{def: "CREATE INDEX idx ON t(a);", want: []string{"a"}},
		{def: `CREATE UNIQUE INDEX "idx" ON "t" ("a", b DESC);`, want: []string{"a", "b"}},
		{def: "CREATE INDEX idx ON t(lower(name), id)", want: []string{"lower(name)", "id"}},
		{def: "", want: nil},
		{def: "CREATE INDEX broken ON t", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.def, func(t *testing.T) {
			assert.Equal(t, tt.want, indexColumns(tt.def))
		})
	}
}

func TestSetupStatements(t *testing.T) {
	p, err := ParseParams(map[string]any{
		"extensions": []any{"json"},
		"settings":   map[string]any{"threads": 2, "memory_limit": "1GB"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"INSTALL json",
		"LOAD json",
		"SET memory_limit = '1GB'",
		"SET threads = '2'",
	}, setupStatements(p))

	_, err = ParseParams(map[string]any{"secrets": []any{}})
	assert.Error(t, err)
}

func TestMigrateUnsupported(t *testing.T) {
	adp := New(nil)
	require.NoError(t, adp.Connect(context.Background(), adapter.Config{Path: ":memory:"}))
	defer func() { _ = adp.Close() }()

	_, err := adapter.Migrate(context.Background(), adp, t.TempDir())
	assert.ErrorContains(t, err, "not supported")
}
