// Package postgres provides a PostgreSQL database adapter for querylint.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/leapstack-labs/querylint/pkg/adapter"
	"github.com/leapstack-labs/querylint/pkg/schema"
)

// SQLSTATE codes for missing objects.
const (
	undefinedTable    = "42P01"
	invalidCatalog    = "3D000"
	invalidSchemaName = "3F000"
)

// Adapter implements the adapter.Adapter interface for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new PostgreSQL adapter instance.
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
	return "postgres"
}

// Connect establishes a connection to PostgreSQL.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	params, err := ParseParams(cfg.Params)
	if err != nil {
		return err
	}

	connCfg, err := pgx.ParseConfig(buildPostgresDSN(cfg, params))
	if err != nil {
		return fmt.Errorf("invalid postgres configuration: %w", err)
	}

	a.Logger.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db := stdlib.OpenDB(*connCfg)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildPostgresDSN constructs a PostgreSQL connection string.
func buildPostgresDSN(cfg adapter.Config, params *Params) string {
	// Build key=value format: host=localhost port=5432 user=postgres ...
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if mode, ok := cfg.Options["sslmode"]; ok {
		sslmode = mode
	}

	parts := []string{
		fmt.Sprintf("host=%s", host),
		fmt.Sprintf("port=%d", port),
		fmt.Sprintf("dbname=%s", cfg.Database),
		fmt.Sprintf("sslmode=%s", sslmode),
	}
	if cfg.Username != "" {
		parts = append(parts, fmt.Sprintf("user=%s", cfg.Username))
	}
	if cfg.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", quoteValue(cfg.Password)))
	}
	if params.ApplicationName != "" {
		parts = append(parts, fmt.Sprintf("application_name=%s", quoteValue(params.ApplicationName)))
	}
	if params.ConnectTimeout > 0 {
		parts = append(parts, fmt.Sprintf("connect_timeout=%d", params.ConnectTimeout))
	}
	if params.SearchPath != "" {
		parts = append(parts, fmt.Sprintf("search_path=%s", quoteValue(params.SearchPath)))
	}

	keys := make([]string, 0, len(cfg.Options))
	for k := range cfg.Options {
		if k != "sslmode" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, quoteValue(cfg.Options[k])))
	}
	return strings.Join(parts, " ")
}

// quoteValue quotes a keyword/value connection string value when needed.
func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// isMissing reports undefined table, database and schema errors.
func isMissing(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case undefinedTable, invalidCatalog, invalidSchemaName:
			return true
		}
	}
	return false
}

func (a *Adapter) split(table string) (string, string) {
	def := a.Cfg.Schema
	if def == "" {
		def = "public"
	}
	return adapter.ParseQualifiedName(table, def)
}

// ColumnNames returns the table's columns in ordinal order.
func (a *Adapter) ColumnNames(ctx context.Context, table string) ([]string, error) {
	schemaName, name := a.split(table)
	return a.QueryStrings(ctx, table, true, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`, schemaName, name)
}

// PrimaryKeys returns the primary key columns in key order.
func (a *Adapter) PrimaryKeys(ctx context.Context, table string) ([]string, error) {
	schemaName, name := a.split(table)
	return a.QueryStrings(ctx, table, false, `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON kcu.constraint_name = tc.constraint_name
			AND kcu.table_schema = tc.table_schema
			AND kcu.table_name = tc.table_name
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = $1 AND tc.table_name = $2
		ORDER BY kcu.ordinal_position`, schemaName, name)
}

// Indexes returns the non-primary indexes with their key columns in order.
func (a *Adapter) Indexes(ctx context.Context, table string) ([]schema.Index, error) {
	schemaName, name := a.split(table)
	return a.QueryIndexes(ctx, table, `
		SELECT i.relname, att.attname, ix.indisunique
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord) ON true
		JOIN pg_attribute att ON att.attrelid = t.oid AND att.attnum = k.attnum
		WHERE n.nspname = $1 AND t.relname = $2 AND NOT ix.indisprimary
		ORDER BY i.relname, k.ord`, schemaName, name)
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
