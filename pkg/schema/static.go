package schema

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Static serves metadata from a fixed table set, usually loaded from a YAML
// schema file:
//
//	tables:
//	  users:
//	    columns: [id, name]
//	    primary_key: [id]
//	    indexes:
//	      - name: idx_name
//	        columns: [name]
//	        unique: true
type Static struct {
	tables map[string]*Table
}

type staticFile struct {
	Tables map[string]*Table `yaml:"tables"`
}

// NewStatic returns a Static introspector over tables. Lookups ignore case.
func NewStatic(tables ...*Table) *Static {
	s := &Static{tables: make(map[string]*Table, len(tables))}
	for _, t := range tables {
		s.tables[strings.ToLower(t.Name)] = t
	}
	return s
}

// LoadStatic reads a YAML schema file.
func LoadStatic(path string) (*Static, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return ParseStatic(data)
}

// ParseStatic parses YAML schema data.
func ParseStatic(data []byte) (*Static, error) {
	var f staticFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse schema file: %w", err)
	}
	tables := make([]*Table, 0, len(f.Tables))
	for name, t := range f.Tables {
		if t == nil {
			t = &Table{}
		}
		t.Name = name
		if len(t.Columns) == 0 {
			return nil, fmt.Errorf("table %q has no columns", name)
		}
		tables = append(tables, t)
	}
	return NewStatic(tables...), nil
}

// Enabled returns true.
func (s *Static) Enabled() bool { return true }

func (s *Static) lookup(table string) (*Table, error) {
	if i := strings.LastIndexByte(table, '.'); i >= 0 {
		if t, ok := s.tables[strings.ToLower(table)]; ok {
			return t, nil
		}
		table = table[i+1:]
	}
	t, ok := s.tables[strings.ToLower(table)]
	if !ok {
		return nil, &UnavailableError{Table: table, Err: ErrTableNotFound}
	}
	return t, nil
}

// ColumnNames returns the table's columns.
func (s *Static) ColumnNames(_ context.Context, table string) ([]string, error) {
	t, err := s.lookup(table)
	if err != nil {
		return nil, err
	}
	return t.Columns, nil
}

// PrimaryKeys returns the table's primary key columns.
func (s *Static) PrimaryKeys(_ context.Context, table string) ([]string, error) {
	t, err := s.lookup(table)
	if err != nil {
		return nil, err
	}
	return t.PrimaryKey, nil
}

// Indexes returns the table's indexes.
func (s *Static) Indexes(_ context.Context, table string) ([]Index, error) {
	t, err := s.lookup(table)
	if err != nil {
		return nil, err
	}
	return t.Indexes, nil
}
