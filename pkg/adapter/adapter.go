// Package adapter provides the database adapter contract used for live
// schema introspection.
//
// Concrete adapters live in pkg/adapters/ subdirectories and register
// themselves from init(). An adapter is a schema.Introspector backed by a
// database/sql connection.
package adapter

import (
	"context"
	"database/sql"

	"github.com/leapstack-labs/querylint/pkg/schema"
)

// Adapter defines the interface that all database adapters must implement.
type Adapter interface {
	schema.Introspector

	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string) error

	// Conn returns the underlying connection, or nil before Connect.
	Conn() *sql.DB

	// Dialect returns the migration dialect name understood by goose.
	Dialect() string
}
