package parser

import (
	"strings"

	"github.com/leapstack-labs/querylint/pkg/token"
)

// Node is implemented by every AST node.
type Node interface {
	GetSpan() Span
}

// Statement is a top-level SQL statement.
type Statement interface {
	Node
	statementNode()
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// NodeInfo carries the span of a node within the parsed SQL text.
type NodeInfo struct {
	Span Span
}

// GetSpan returns the node's source span.
func (n *NodeInfo) GetSpan() Span {
	return n.Span
}

// Text returns the node's source text within sql.
func (n *NodeInfo) Text(sql string) string {
	return n.Span.Text(sql)
}

// ---------- Statement Types ----------

// SelectStmt represents a SELECT statement.
type SelectStmt struct {
	NodeInfo
	Distinct  bool
	Fields    []*SelectField
	From      *FromClause
	Where     Expr
	GroupBy   []Expr
	Having    Expr
	OrderBy   []*OrderItem
	Limit     *LimitClause
	ForUpdate bool
}

// InsertStmt represents INSERT or REPLACE.
type InsertStmt struct {
	NodeInfo
	Replace bool
	Ignore  bool
	Table   *TableName
	Columns []*ColumnRef
	Rows    [][]Expr
	Select  *SelectStmt
	Set     []*Assignment

	// OnDuplicate spans the skipped ON DUPLICATE KEY UPDATE tail, if any.
	OnDuplicate *Span
}

// UpdateStmt represents UPDATE.
type UpdateStmt struct {
	NodeInfo
	From    *FromClause
	Set     []*Assignment
	Where   Expr
	OrderBy []*OrderItem
	Limit   *LimitClause
}

// DeleteStmt represents DELETE FROM.
type DeleteStmt struct {
	NodeInfo
	From    *FromClause
	Where   Expr
	OrderBy []*OrderItem
	Limit   *LimitClause
}

func (*SelectStmt) statementNode() {}
func (*InsertStmt) statementNode() {}
func (*UpdateStmt) statementNode() {}
func (*DeleteStmt) statementNode() {}

// ---------- Clauses ----------

// SelectField is one entry of the SELECT list.
type SelectField struct {
	NodeInfo
	Expr  Expr
	Alias string
}

// FromClause holds comma-separated targets followed by explicit joins.
type FromClause struct {
	NodeInfo
	Targets []*FromTarget
	Joins   []*Join
}

// AllTargets returns the comma-separated targets and join targets in order.
func (f *FromClause) AllTargets() []*FromTarget {
	if f == nil {
		return nil
	}
	targets := make([]*FromTarget, 0, len(f.Targets)+len(f.Joins))
	targets = append(targets, f.Targets...)
	for _, j := range f.Joins {
		targets = append(targets, j.Target)
	}
	return targets
}

// FromTarget is either a table or a parenthesized subquery.
// Exactly one of Table and Subquery is set.
type FromTarget struct {
	NodeInfo
	Table    *TableName
	Subquery *SelectStmt
	Alias    string
}

// TableName is a possibly schema-qualified table reference.
type TableName struct {
	NodeInfo
	Schema string
	Name   string
}

// Qualified returns schema.name, or name when unqualified.
func (t *TableName) Qualified() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// JoinType is the join keyword sequence, normalized to upper case.
type JoinType string

// Join types.
const (
	JoinPlain JoinType = "JOIN"
	JoinInner JoinType = "INNER JOIN"
	JoinLeft  JoinType = "LEFT JOIN"
	JoinRight JoinType = "RIGHT JOIN"
	JoinFull  JoinType = "FULL JOIN"
	JoinCross JoinType = "CROSS JOIN"
)

// Join is an explicit JOIN with its ON condition or USING columns.
type Join struct {
	NodeInfo
	Type   JoinType
	Target *FromTarget
	On     Expr
	Using  []string
}

// OrderItem is one ORDER BY key.
type OrderItem struct {
	NodeInfo
	Expr Expr
	Desc bool
}

// LimitClause is LIMIT count [OFFSET n] or LIMIT offset, count.
type LimitClause struct {
	NodeInfo
	Count  Expr
	Offset Expr
}

// Assignment is column = value in SET lists.
type Assignment struct {
	NodeInfo
	Column *ColumnRef
	Value  Expr
}

// ---------- Expressions ----------

// ColumnRef is a possibly table-qualified column reference.
type ColumnRef struct {
	NodeInfo
	Table  string
	Column string
}

// Name returns table.column or column.
func (c *ColumnRef) Name() string {
	if c.Table == "" {
		return c.Column
	}
	return c.Table + "." + c.Column
}

// StarExpr is * or table.*.
type StarExpr struct {
	NodeInfo
	Table string
}

// LiteralKind classifies literals.
type LiteralKind int

// Literal kinds.
const (
	LiteralNumber LiteralKind = iota
	LiteralString
	LiteralBool
	LiteralNull
	LiteralPlaceholder
)

// Literal is a constant value. Value is the raw source text.
type Literal struct {
	NodeInfo
	Kind  LiteralKind
	Value string
}

// BinaryExpr is a binary operation, including AND/OR, comparisons and LIKE.
type BinaryExpr struct {
	NodeInfo
	Left  Expr
	Op    token.TokenType
	Not   bool // NOT LIKE
	Right Expr
}

// UnaryExpr is NOT, unary minus or unary plus.
type UnaryExpr struct {
	NodeInfo
	Op   token.TokenType
	Expr Expr
}

// IsNullExpr is expr IS [NOT] NULL.
type IsNullExpr struct {
	NodeInfo
	Expr Expr
	Not  bool
}

// InExpr is expr [NOT] IN (list) or expr [NOT] IN (subquery).
type InExpr struct {
	NodeInfo
	Expr   Expr
	Not    bool
	Values []Expr
	Query  *SelectStmt
}

// BetweenExpr is expr [NOT] BETWEEN low AND high.
type BetweenExpr struct {
	NodeInfo
	Expr Expr
	Not  bool
	Low  Expr
	High Expr
}

// ExistsExpr is [NOT] EXISTS (subquery).
type ExistsExpr struct {
	NodeInfo
	Not   bool
	Query *SelectStmt
}

// SubqueryExpr is a scalar subquery.
type SubqueryExpr struct {
	NodeInfo
	Query *SelectStmt
}

// ParenExpr is a parenthesized expression or row value.
type ParenExpr struct {
	NodeInfo
	Exprs []Expr
}

// FuncCall is a function call. Star is set for COUNT(*).
type FuncCall struct {
	NodeInfo
	Name     string
	Distinct bool
	Star     bool
	Args     []Expr
}

var aggregateFuncs = map[string]bool{
	"COUNT": true,
	"MAX":   true,
	"MIN":   true,
	"SUM":   true,
	"AVG":   true,
}

// IsAggregate reports whether the call is COUNT, MAX, MIN, SUM or AVG.
func (f *FuncCall) IsAggregate() bool {
	return aggregateFuncs[strings.ToUpper(f.Name)]
}

// CaseExpr is CASE [operand] WHEN ... THEN ... [ELSE ...] END.
type CaseExpr struct {
	NodeInfo
	Operand Expr
	Whens   []*WhenClause
	Else    Expr
}

// WhenClause is one WHEN ... THEN ... arm.
type WhenClause struct {
	NodeInfo
	Cond   Expr
	Result Expr
}

func (*ColumnRef) exprNode()    {}
func (*StarExpr) exprNode()     {}
func (*Literal) exprNode()      {}
func (*BinaryExpr) exprNode()   {}
func (*UnaryExpr) exprNode()    {}
func (*IsNullExpr) exprNode()   {}
func (*InExpr) exprNode()       {}
func (*BetweenExpr) exprNode()  {}
func (*ExistsExpr) exprNode()   {}
func (*SubqueryExpr) exprNode() {}
func (*ParenExpr) exprNode()    {}
func (*FuncCall) exprNode()     {}
func (*CaseExpr) exprNode()     {}
