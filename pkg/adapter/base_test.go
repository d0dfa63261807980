package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/querylint/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseSQLAdapter_Close(t *testing.T) {
	tests := []struct {
		name      string
		setupDB   bool
		expectErr bool
	}{
		{
			name:      "close with nil DB",
			setupDB:   false,
			expectErr: false,
		},
		{
			name:      "close with open DB",
			setupDB:   true,
			expectErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &BaseSQLAdapter{}

			if tt.setupDB {
				db, mock, err := sqlmock.New()
				require.NoError(t, err)
				mock.ExpectClose()
				base.DB = db
			}

			err := base.Close()
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBaseSQLAdapter_Exec(t *testing.T) {
	tests := []struct {
		name      string
		setupDB   bool
		setupMock func(mock sqlmock.Sqlmock)
		sql       string
		expectErr bool
		errMsg    string
	}{
		{
			name:      "exec without connection",
			setupDB:   false,
			sql:       "SELECT 1",
			expectErr: true,
			errMsg:    "database connection not established",
		},
		{
			name:    "exec success",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE users").WillReturnResult(sqlmock.NewResult(0, 0))
			},
			sql:       "CREATE TABLE users (id INT)",
			expectErr: false,
		},
		{
			name:    "exec with error",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INVALID SQL").WillReturnError(assert.AnError)
			},
			sql:       "INVALID SQL",
			expectErr: true,
			errMsg:    "failed to execute SQL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			base := &BaseSQLAdapter{}

			if tt.setupDB {
				db, mock, err := sqlmock.New()
				require.NoError(t, err)
				defer func() { _ = db.Close() }()

				if tt.setupMock != nil {
					tt.setupMock(mock)
				}
				base.DB = db
			}

			err := base.Exec(ctx, tt.sql)
			if tt.expectErr {
				require.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBaseSQLAdapter_QueryStrings(t *testing.T) {
	missing := errors.New("no such table: ghosts")

	tests := []struct {
		name        string
		setupDB     bool
		setupMock   func(mock sqlmock.Sqlmock)
		required    bool
		want        []string
		unavailable bool
		notFound    bool
	}{
		{
			name:        "query without connection",
			setupDB:     false,
			unavailable: true,
		},
		{
			name:    "columns in order",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"column_name"}).AddRow("id").AddRow("name")
				mock.ExpectQuery("SELECT column_name").WithArgs("users").WillReturnRows(rows)
			},
			required: true,
			want:     []string{"id", "name"},
		},
		{
			name:    "empty required result",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT column_name").WithArgs("users").
					WillReturnRows(sqlmock.NewRows([]string{"column_name"}))
			},
			required:    true,
			unavailable: true,
			notFound:    true,
		},
		{
			name:    "empty optional result",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT column_name").WithArgs("users").
					WillReturnRows(sqlmock.NewRows([]string{"column_name"}))
			},
		},
		{
			name:    "driver reports missing table",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT column_name").WithArgs("users").WillReturnError(missing)
			},
			unavailable: true,
			notFound:    true,
		},
		{
			name:    "other driver error",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT column_name").WithArgs("users").WillReturnError(assert.AnError)
			},
			unavailable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			base := &BaseSQLAdapter{IsMissing: func(err error) bool { return errors.Is(err, missing) }}

			if tt.setupDB {
				db, mock, err := sqlmock.New()
				require.NoError(t, err)
				defer func() { _ = db.Close() }()

				if tt.setupMock != nil {
					tt.setupMock(mock)
				}
				base.DB = db
			}

			got, err := base.QueryStrings(ctx, "users", tt.required, "SELECT column_name FROM columns WHERE table_name = ?", "users")
			if tt.unavailable {
				require.Error(t, err)
				assert.True(t, schema.IsUnavailable(err))
				assert.Equal(t, tt.notFound, errors.Is(err, schema.ErrTableNotFound))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBaseSQLAdapter_QueryIndexes(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows([]string{"index_name", "column_name", "is_unique"}).
		AddRow("idx_isu_user", "jia_user_id", false).
		AddRow("idx_isu_user", "created_at", false).
		AddRow("uniq_uuid", "jia_isu_uuid", true)
	mock.ExpectQuery("SELECT index_name").WillReturnRows(rows)

	base := &BaseSQLAdapter{DB: db}
	got, err := base.QueryIndexes(context.Background(), "isu", "SELECT index_name, column_name, is_unique FROM stats")
	require.NoError(t, err)
	assert.Equal(t, []schema.Index{
		{Name: "idx_isu_user", Columns: []string{"jia_user_id", "created_at"}},
		{Name: "uniq_uuid", Columns: []string{"jia_isu_uuid"}, Unique: true},
	}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParseQualifiedName(t *testing.T) {
	s, n := ParseQualifiedName("app.users", "public")
	assert.Equal(t, "app", s)
	assert.Equal(t, "users", n)

	s, n = ParseQualifiedName("users", "public")
	assert.Equal(t, "public", s)
	assert.Equal(t, "users", n)
}

func TestBaseSQLAdapter_IsConnected(t *testing.T) {
	tests := []struct {
		name     string
		setupDB  bool
		expected bool
	}{
		{
			name:     "not connected",
			setupDB:  false,
			expected: false,
		},
		{
			name:     "connected",
			setupDB:  true,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &BaseSQLAdapter{}

			if tt.setupDB {
				db, _, err := sqlmock.New()
				require.NoError(t, err)
				defer func() { _ = db.Close() }()
				base.DB = db
			}

			assert.Equal(t, tt.expected, base.IsConnected())
		})
	}
}
