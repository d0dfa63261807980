// Package mysql provides a MySQL database adapter for querylint.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	driver "github.com/go-sql-driver/mysql"
	"github.com/leapstack-labs/querylint/pkg/adapter"
	"github.com/leapstack-labs/querylint/pkg/schema"
)

// MySQL server error numbers for missing objects.
const (
	errNoSuchTable = 1146
	errBadDB       = 1049
)

// Adapter implements the adapter.Adapter interface for MySQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new MySQL adapter instance.
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
	return "mysql"
}

// Connect establishes a connection to MySQL.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	params, err := ParseParams(cfg.Params)
	if err != nil {
		return err
	}
	dsn := buildMySQLDSN(cfg, params)

	a.Logger.Debug("connecting to mysql", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open mysql connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping mysql: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildMySQLDSN constructs a go-sql-driver DSN: user:pass@tcp(host:port)/db.
func buildMySQLDSN(cfg adapter.Config, params *Params) string {
	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port == 0 {
		port = 3306
	}

	c := driver.NewConfig()
	c.User = cfg.Username
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	c.DBName = cfg.Database
	c.Timeout = params.Timeout
	c.TLSConfig = params.TLS
	if len(cfg.Options) > 0 {
		c.Params = make(map[string]string, len(cfg.Options))
		for k, v := range cfg.Options {
			c.Params[k] = v
		}
	}
	if params.Charset != "" {
		if c.Params == nil {
			c.Params = make(map[string]string)
		}
		c.Params["charset"] = params.Charset
	}
	return c.FormatDSN()
}

// isMissing reports unknown table and unknown database server errors.
func isMissing(err error) bool {
	var me *driver.MySQLError
	if errors.As(err, &me) {
		return me.Number == errNoSuchTable || me.Number == errBadDB
	}
	return false
}

func (a *Adapter) split(table string) (string, string) {
	return adapter.ParseQualifiedName(table, a.Cfg.Database)
}

// ColumnNames returns the table's columns in ordinal order.
func (a *Adapter) ColumnNames(ctx context.Context, table string) ([]string, error) {
	db, name := a.split(table)
	return a.QueryStrings(ctx, table, true, `
		SELECT COLUMN_NAME
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`, db, name)
}

// PrimaryKeys returns the PRIMARY constraint columns in key order.
func (a *Adapter) PrimaryKeys(ctx context.Context, table string) ([]string, error) {
	db, name := a.split(table)
	return a.QueryStrings(ctx, table, false, `
		SELECT COLUMN_NAME
		FROM information_schema.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND CONSTRAINT_NAME = 'PRIMARY'
		ORDER BY ORDINAL_POSITION`, db, name)
}

// Indexes returns the secondary indexes.
func (a *Adapter) Indexes(ctx context.Context, table string) ([]schema.Index, error) {
	db, name := a.split(table)
	return a.QueryIndexes(ctx, table, `
		SELECT INDEX_NAME, COLUMN_NAME, NON_UNIQUE = 0
		FROM information_schema.STATISTICS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND INDEX_NAME <> 'PRIMARY'
		ORDER BY INDEX_NAME, SEQ_IN_INDEX`, db, name)
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
