// Package sqlite provides a SQLite database adapter for querylint, backed by
// the pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/leapstack-labs/querylint/pkg/adapter"
	"github.com/leapstack-labs/querylint/pkg/schema"

	_ "modernc.org/sqlite" // sqlite driver
)

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger, IsMissing: isMissing},
	}
}

// Dialect returns the goose dialect name.
func (a *Adapter) Dialect() string {
	return "sqlite"
}

// Connect opens the database file. An empty path or ":memory:" opens a
// private in-memory database held by a single connection.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	params, err := ParseParams(cfg.Params)
	if err != nil {
		return err
	}

	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	a.Logger.Debug("opening sqlite database", slog.String("path", path))

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	for _, stmt := range pragmaStatements(params) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to apply %q: %w", stmt, err)
		}
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// pragmaStatements renders params as PRAGMA statements in a stable order.
func pragmaStatements(p *Params) []string {
	var stmts []string
	if p.BusyTimeout > 0 {
		stmts = append(stmts, fmt.Sprintf("PRAGMA busy_timeout = %d", p.BusyTimeout.Milliseconds()))
	}
	keys := make([]string, 0, len(p.Pragmas))
	for k := range p.Pragmas {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		stmts = append(stmts, fmt.Sprintf("PRAGMA %s = %s", k, p.Pragmas[k]))
	}
	return stmts
}

func isMissing(err error) bool {
	return strings.Contains(err.Error(), "no such table")
}

// tableName drops a schema qualifier; attached databases are not supported.
func tableName(table string) string {
	_, name := adapter.ParseQualifiedName(table, "main")
	return name
}

// ColumnNames returns the table's columns in definition order.
func (a *Adapter) ColumnNames(ctx context.Context, table string) ([]string, error) {
	return a.QueryStrings(ctx, table, true,
		`SELECT name FROM pragma_table_info(?) ORDER BY cid`, tableName(table))
}

// PrimaryKeys returns the primary key columns in key order.
func (a *Adapter) PrimaryKeys(ctx context.Context, table string) ([]string, error) {
	return a.QueryStrings(ctx, table, false,
		`SELECT name FROM pragma_table_info(?) WHERE pk > 0 ORDER BY pk`, tableName(table))
}

// Indexes returns explicit and UNIQUE-constraint indexes.
func (a *Adapter) Indexes(ctx context.Context, table string) ([]schema.Index, error) {
	return a.QueryIndexes(ctx, table, `
		SELECT il.name, ii.name, il."unique"
		FROM pragma_index_list(?) AS il, pragma_index_info(il.name) AS ii
		WHERE il.origin <> 'pk'
		ORDER BY il.name, ii.seqno`, tableName(table))
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
