// Package query provides a read-only view over one parsed SQL statement.
//
// A Model answers the questions the performance rules ask: which tables are
// read, what the WHERE and JOIN conditions compare, and whether the statement
// carries clauses that change result cardinality. Derived views are computed
// on first use and cached for the lifetime of the Model.
package query

import (
	"strings"
	"sync"

	"github.com/leapstack-labs/querylint/pkg/parser"
)

// Model wraps a statement and the normalized SQL its spans refer to.
type Model struct {
	stmt        parser.Statement
	sql         string
	placeholder string

	tableNames func() []string
	aliases    func() map[string]string
	where      func() []WhereCondition
	joins      func() []JoinCondition
	children   func() []*Model
}

// New returns a Model for stmt. sql must be the text stmt was parsed from.
func New(stmt parser.Statement, sql string) *Model {
	return newModel(stmt, sql, parser.DefaultPlaceholder)
}

// Parse normalizes raw SQL with placeholder, parses it and wraps the result.
func Parse(raw, placeholder string) (*Model, error) {
	stmt, normalized, err := parser.ParseSource(raw, placeholder)
	if err != nil {
		return nil, err
	}
	return newModel(stmt, normalized, placeholder), nil
}

func newModel(stmt parser.Statement, sql, placeholder string) *Model {
	m := &Model{stmt: stmt, sql: sql, placeholder: placeholder}
	m.tableNames = sync.OnceValue(m.collectTableNames)
	m.aliases = sync.OnceValue(m.collectAliases)
	m.where = sync.OnceValue(m.collectWhere)
	m.joins = sync.OnceValue(m.collectJoins)
	m.children = sync.OnceValue(m.collectChildren)
	return m
}

// Statement returns the wrapped statement.
func (m *Model) Statement() parser.Statement { return m.stmt }

// SQL returns the normalized SQL text.
func (m *Model) SQL() string { return m.sql }

// Placeholder returns the sentinel that replaced ? markers.
func (m *Model) Placeholder() string { return m.placeholder }

// Text returns the normalized SQL text of node.
func (m *Model) Text(node parser.Node) string {
	if node == nil {
		return ""
	}
	return node.GetSpan().Text(m.sql)
}

// from returns the statement's FROM clause, if it has one.
func (m *Model) from() *parser.FromClause {
	switch s := m.stmt.(type) {
	case *parser.SelectStmt:
		return s.From
	case *parser.UpdateStmt:
		return s.From
	case *parser.DeleteStmt:
		return s.From
	}
	return nil
}

// TableNames returns the tables read or written by this statement in order
// of first appearance, without duplicates. Tables that only appear inside a
// FROM subquery belong to the subquery's own Model.
func (m *Model) TableNames() []string {
	return m.tableNames()
}

func (m *Model) collectTableNames() []string {
	var names []string
	seen := make(map[string]bool)
	add := func(t *parser.TableName) {
		if t == nil || seen[t.Qualified()] {
			return
		}
		seen[t.Qualified()] = true
		names = append(names, t.Qualified())
	}

	if ins, ok := m.stmt.(*parser.InsertStmt); ok {
		add(ins.Table)
	}
	for _, target := range m.from().AllTargets() {
		add(target.Table)
	}
	return names
}

// AllTableNames returns TableNames of this Model and of every nested FROM
// subquery, deduplicated.
func (m *Model) AllTableNames() []string {
	var names []string
	seen := make(map[string]bool)
	m.VisitAll(func(q *Model) {
		for _, name := range q.TableNames() {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	})
	return names
}

func (m *Model) collectAliases() map[string]string {
	aliases := make(map[string]string)
	for _, target := range m.from().AllTargets() {
		if target.Table == nil {
			continue
		}
		aliases[strings.ToLower(target.Table.Name)] = target.Table.Qualified()
		aliases[strings.ToLower(target.Table.Qualified())] = target.Table.Qualified()
		if target.Alias != "" {
			aliases[strings.ToLower(target.Alias)] = target.Table.Qualified()
		}
	}
	if ins, ok := m.stmt.(*parser.InsertStmt); ok && ins.Table != nil {
		aliases[strings.ToLower(ins.Table.Name)] = ins.Table.Qualified()
	}
	return aliases
}

// ResolveTable maps a column qualifier (table name or alias) to a table
// name. It returns "" when the qualifier names no table of this statement,
// for example the alias of a subquery.
func (m *Model) ResolveTable(qualifier string) string {
	return m.aliases()[strings.ToLower(qualifier)]
}

// ResolveColumn splits a column operand into table and column. Unqualified
// columns resolve to the only table of a single-table statement and to ""
// otherwise.
func (m *Model) ResolveColumn(operand string) (table, column string) {
	if i := strings.LastIndexByte(operand, '.'); i >= 0 {
		return m.ResolveTable(operand[:i]), operand[i+1:]
	}
	if tables := m.TableNames(); len(tables) == 1 {
		return tables[0], operand
	}
	return "", operand
}

// IsSelect reports whether the statement is a SELECT.
func (m *Model) IsSelect() bool {
	_, ok := m.stmt.(*parser.SelectStmt)
	return ok
}

// HasLimit reports whether the statement has a LIMIT clause.
func (m *Model) HasLimit() bool {
	switch s := m.stmt.(type) {
	case *parser.SelectStmt:
		return s.Limit != nil
	case *parser.UpdateStmt:
		return s.Limit != nil
	case *parser.DeleteStmt:
		return s.Limit != nil
	}
	return false
}

// HasGroupBy reports whether the statement has a GROUP BY clause.
func (m *Model) HasGroupBy() bool {
	sel, ok := m.stmt.(*parser.SelectStmt)
	return ok && len(sel.GroupBy) > 0
}

// HasAggregate reports whether the SELECT list calls COUNT, MAX, MIN, SUM or
// AVG outside of subqueries.
func (m *Model) HasAggregate() bool {
	found := false
	for _, f := range m.SelectFields() {
		parser.WalkShallow(f, func(n parser.Node) bool {
			if fn, ok := n.(*parser.FuncCall); ok && fn.IsAggregate() {
				found = true
			}
			return !found
		})
		if found {
			return true
		}
	}
	return false
}

// SelectFields returns the SELECT list, or nil for other statements.
func (m *Model) SelectFields() []*parser.SelectField {
	if sel, ok := m.stmt.(*parser.SelectStmt); ok {
		return sel.Fields
	}
	return nil
}

// StarFields returns the * and table.* entries of the SELECT list.
func (m *Model) StarFields() []*parser.StarExpr {
	var stars []*parser.StarExpr
	for _, f := range m.SelectFields() {
		if star, ok := f.Expr.(*parser.StarExpr); ok {
			stars = append(stars, star)
		}
	}
	return stars
}

// VisitAll calls fn on m and then, depth-first, on a Model for every nested
// statement in FROM targets and INSERT ... SELECT.
func (m *Model) VisitAll(fn func(*Model)) {
	fn(m)
	for _, child := range m.children() {
		child.VisitAll(fn)
	}
}

func (m *Model) collectChildren() []*Model {
	var children []*Model
	if ins, ok := m.stmt.(*parser.InsertStmt); ok && ins.Select != nil {
		children = append(children, newModel(ins.Select, m.sql, m.placeholder))
	}
	for _, target := range m.from().AllTargets() {
		if target.Subquery != nil {
			children = append(children, newModel(target.Subquery, m.sql, m.placeholder))
		}
	}
	return children
}
