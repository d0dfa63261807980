package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/querylint/pkg/schema"
)

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close, Exec and introspection helpers.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    Config
	Logger *slog.Logger

	// IsMissing reports driver errors that mean the table or database does
	// not exist. Such errors become *schema.UnavailableError.
	IsMissing func(error) bool
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		return b.DB.Close()
	}
	return nil
}

// Exec executes a SQL statement that doesn't return rows.
func (b *BaseSQLAdapter) Exec(ctx context.Context, sqlStr string) error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	_, err := b.DB.ExecContext(ctx, sqlStr)
	if err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Conn returns the database handle.
func (b *BaseSQLAdapter) Conn() *sql.DB {
	return b.DB
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// Enabled reports whether introspection queries can run.
func (b *BaseSQLAdapter) Enabled() bool {
	return b.DB != nil
}

// ParseQualifiedName splits a table reference into schema and name.
// Uses defaultSchema if not specified.
func ParseQualifiedName(table, defaultSchema string) (schemaName, name string) {
	if parts := strings.Split(table, "."); len(parts) == 2 {
		return parts[0], parts[1]
	}
	return defaultSchema, table
}

// unavailable converts lookup failures into the schema error taxonomy.
func (b *BaseSQLAdapter) unavailable(table string, err error) error {
	if b.IsMissing != nil && b.IsMissing(err) {
		return schema.Unavailable(table, fmt.Errorf("%w: %w", schema.ErrTableNotFound, err))
	}
	return schema.Unavailable(table, err)
}

// QueryStrings runs a query returning one text column per row.
// An empty result is reported as schema.ErrTableNotFound when required is set.
func (b *BaseSQLAdapter) QueryStrings(ctx context.Context, table string, required bool, query string, args ...any) ([]string, error) {
	if b.DB == nil {
		return nil, schema.Unavailable(table, schema.ErrDisabled)
	}
	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, b.unavailable(table, err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan metadata for %s: %w", table, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, b.unavailable(table, err)
	}
	if required && len(out) == 0 {
		return nil, schema.Unavailable(table, schema.ErrTableNotFound)
	}
	return out, nil
}

// QueryIndexes runs a query returning (index_name, column_name, unique)
// rows ordered by index name and column position, and groups them.
func (b *BaseSQLAdapter) QueryIndexes(ctx context.Context, table string, query string, args ...any) ([]schema.Index, error) {
	if b.DB == nil {
		return nil, schema.Unavailable(table, schema.ErrDisabled)
	}
	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, b.unavailable(table, err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.Index
	for rows.Next() {
		var name, column string
		var unique bool
		if err := rows.Scan(&name, &column, &unique); err != nil {
			return nil, fmt.Errorf("failed to scan index metadata for %s: %w", table, err)
		}
		if n := len(out); n > 0 && out[n-1].Name == name {
			out[n-1].Columns = append(out[n-1].Columns, column)
			continue
		}
		out = append(out, schema.Index{Name: name, Columns: []string{column}, Unique: unique})
	}
	if err := rows.Err(); err != nil {
		return nil, b.unavailable(table, err)
	}
	return out, nil
}
