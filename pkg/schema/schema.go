// Package schema describes the table metadata the performance rules consult.
//
// An Introspector answers column, primary key and index questions about a
// table. Live database introspectors live in pkg/adapters; this package holds
// the contract plus a disabled implementation, a YAML-backed static one and a
// per-run cache.
package schema

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Index is a secondary index. Columns are in index order.
type Index struct {
	Name    string   `yaml:"name" json:"name"`
	Columns []string `yaml:"columns" json:"columns"`
	Unique  bool     `yaml:"unique" json:"unique"`
}

// LeadsWith reports whether column is the first column of the index.
func (i Index) LeadsWith(column string) bool {
	return len(i.Columns) > 0 && strings.EqualFold(i.Columns[0], column)
}

// Introspector looks up table metadata. Implementations return an
// *UnavailableError when the table is unknown or no database is configured.
type Introspector interface {
	// Enabled reports whether lookups can succeed at all.
	Enabled() bool

	// ColumnNames returns the table's columns in definition order.
	ColumnNames(ctx context.Context, table string) ([]string, error)

	// PrimaryKeys returns the primary key columns in key order.
	PrimaryKeys(ctx context.Context, table string) ([]string, error)

	// Indexes returns the secondary indexes, excluding the primary key.
	Indexes(ctx context.Context, table string) ([]Index, error)
}

// ErrDisabled is wrapped by every error of a Disabled introspector.
var ErrDisabled = errors.New("schema introspection is not configured")

// ErrTableNotFound reports that the database has no such table.
var ErrTableNotFound = errors.New("table not found")

// UnavailableError reports that metadata for Table could not be read.
type UnavailableError struct {
	Table string
	Err   error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("schema unavailable for table %q: %v", e.Table, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Unavailable wraps err for table unless it already is an *UnavailableError.
func Unavailable(table string, err error) error {
	var ue *UnavailableError
	if errors.As(err, &ue) {
		return err
	}
	return &UnavailableError{Table: table, Err: err}
}

// IsUnavailable reports whether err carries an *UnavailableError.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

// Disabled is the Introspector used when no database is configured.
type Disabled struct{}

// Enabled returns false.
func (Disabled) Enabled() bool { return false }

// ColumnNames always fails with ErrDisabled.
func (Disabled) ColumnNames(_ context.Context, table string) ([]string, error) {
	return nil, &UnavailableError{Table: table, Err: ErrDisabled}
}

// PrimaryKeys always fails with ErrDisabled.
func (Disabled) PrimaryKeys(_ context.Context, table string) ([]string, error) {
	return nil, &UnavailableError{Table: table, Err: ErrDisabled}
}

// Indexes always fails with ErrDisabled.
func (Disabled) Indexes(_ context.Context, table string) ([]Index, error) {
	return nil, &UnavailableError{Table: table, Err: ErrDisabled}
}

// Table is the full metadata of one table.
type Table struct {
	Name       string   `yaml:"-" json:"name"`
	Columns    []string `yaml:"columns" json:"columns"`
	PrimaryKey []string `yaml:"primary_key" json:"primary_key"`
	Indexes    []Index  `yaml:"indexes" json:"indexes"`
}

// Describe reads every piece of metadata for table.
func Describe(ctx context.Context, in Introspector, table string) (*Table, error) {
	cols, err := in.ColumnNames(ctx, table)
	if err != nil {
		return nil, err
	}
	pk, err := in.PrimaryKeys(ctx, table)
	if err != nil {
		return nil, err
	}
	idx, err := in.Indexes(ctx, table)
	if err != nil {
		return nil, err
	}
	return &Table{Name: table, Columns: cols, PrimaryKey: pk, Indexes: idx}, nil
}
