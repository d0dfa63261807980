// Package duckdb provides a DuckDB database adapter for querylint.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/leapstack-labs/querylint/pkg/adapter"
	"github.com/leapstack-labs/querylint/pkg/schema"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger, IsMissing: isMissing},
	}
}

// Dialect returns "": goose has no DuckDB dialect, so migrations are
// unavailable for this adapter.
func (a *Adapter) Dialect() string {
	return ""
}

// Connect establishes a connection to DuckDB.
// Use ":memory:" as the path for an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	params, err := ParseParams(cfg.Params)
	if err != nil {
		return err
	}

	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	a.Logger.Debug("opening duckdb database", slog.String("path", path))

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	for _, stmt := range setupStatements(params) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to apply %q: %w", stmt, err)
		}
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// setupStatements renders extension loading and settings in a stable order.
func setupStatements(p *Params) []string {
	var stmts []string
	for _, ext := range p.Extensions {
		stmts = append(stmts, "INSTALL "+ext, "LOAD "+ext)
	}
	keys := make([]string, 0, len(p.Settings))
	for k := range p.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		stmts = append(stmts, fmt.Sprintf("SET %s = '%s'", k, strings.ReplaceAll(p.Settings[k], "'", "''")))
	}
	return stmts
}

func isMissing(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Catalog Error") && strings.Contains(msg, "does not exist")
}

func (a *Adapter) split(table string) (string, string) {
	def := a.Cfg.Schema
	if def == "" {
		def = "main"
	}
	return adapter.ParseQualifiedName(table, def)
}

// ColumnNames returns the table's columns in definition order.
func (a *Adapter) ColumnNames(ctx context.Context, table string) ([]string, error) {
	schemaName, name := a.split(table)
	return a.QueryStrings(ctx, table, true, `
		SELECT column_name
		FROM duckdb_columns()
		WHERE schema_name = ? AND table_name = ?
		ORDER BY column_index`, schemaName, name)
}

// PrimaryKeys returns the PRIMARY KEY constraint columns in key order.
func (a *Adapter) PrimaryKeys(ctx context.Context, table string) ([]string, error) {
	schemaName, name := a.split(table)
	return a.QueryStrings(ctx, table, false, `
		SELECT unnest(constraint_column_names)
		FROM duckdb_constraints()
		WHERE schema_name = ? AND table_name = ? AND constraint_type = 'PRIMARY KEY'`, schemaName, name)
}

// Indexes returns the explicitly created indexes. DuckDB only exposes their
// columns through the CREATE INDEX text.
func (a *Adapter) Indexes(ctx context.Context, table string) ([]schema.Index, error) {
	if a.DB == nil {
		return nil, schema.Unavailable(table, schema.ErrDisabled)
	}
	schemaName, name := a.split(table)
	rows, err := a.DB.QueryContext(ctx, `
		SELECT index_name, sql, is_unique
		FROM duckdb_indexes()
		WHERE schema_name = ? AND table_name = ?
		ORDER BY index_name`, schemaName, name)
	if err != nil {
		return nil, schema.Unavailable(table, err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.Index
	for rows.Next() {
		var idx schema.Index
		var def sql.NullString
		if err := rows.Scan(&idx.Name, &def, &idx.Unique); err != nil {
			return nil, fmt.Errorf("failed to scan index metadata for %s: %w", table, err)
		}
		idx.Columns = indexColumns(def.String)
		if len(idx.Columns) > 0 {
			out = append(out, idx)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, schema.Unavailable(table, err)
	}
	return out, nil
}

// indexColumns extracts the column list of a CREATE INDEX statement.
// Expression keys are kept as written.
func indexColumns(def string) []string {
	open := strings.LastIndex(def, "(")
	if on := strings.Index(strings.ToUpper(def), " ON "); on >= 0 {
		if i := strings.Index(def[on:], "("); i >= 0 {
			open = on + i
		}
	}
	if open < 0 {
		return nil
	}
	closing := strings.LastIndex(def, ")")
	if closing <= open {
		return nil
	}

	var cols []string
	depth, start := 0, open+1
	for i := open + 1; i <= closing; i++ {
		switch def[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
				continue
			}
			fallthrough
		case ',':
			if depth == 0 {
				if col := cleanColumn(def[start:i]); col != "" {
					cols = append(cols, col)
				}
				start = i + 1
			}
		}
	}
	return cols
}

func cleanColumn(s string) string {
	s = strings.TrimSpace(s)
	upper := strings.ToUpper(s)
	for _, suffix := range []string{" ASC", " DESC"} {
		if strings.HasSuffix(upper, suffix) {
			s = strings.TrimSpace(s[:len(s)-len(suffix)])
			break
		}
	}
	return strings.Trim(s, `"`)
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
