package query

import (
	"regexp"
	"strings"

	"github.com/leapstack-labs/querylint/pkg/parser"
	"github.com/leapstack-labs/querylint/pkg/token"
)

var (
	columnPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*(\.[A-Za-z_][A-Za-z0-9_$]*)?$`)
	numberPattern = regexp.MustCompile(`^-?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)
)

// WhereCondition is one comparison of a WHERE clause.
type WhereCondition struct {
	Operator string   // =, !=, <, >, <=, >=, <=>, LIKE, IN, BETWEEN, IS NULL ...
	Operands []string // normalized operand text, one or two entries
	Span     parser.Span

	// OperandSpans holds the span of each entry of Operands.
	OperandSpans []parser.Span

	placeholder string
}

// Text returns the condition's text in sql.
func (c WhereCondition) Text(sql string) string {
	return c.Span.Text(sql)
}

// ColumnOperand returns the operand that names a column. With two operands
// exactly one must look like a column; otherwise the result is "".
func (c WhereCondition) ColumnOperand() string {
	return c.pick(c.isColumn)
}

// ValueOperand returns the operand that is a literal or placeholder, under
// the same uniqueness rule as ColumnOperand.
func (c WhereCondition) ValueOperand() string {
	return c.pick(c.isValue)
}

// ColumnSpan returns the span of ColumnOperand.
func (c WhereCondition) ColumnSpan() (parser.Span, bool) {
	i := c.index(c.isColumn)
	if i < 0 || i >= len(c.OperandSpans) {
		return parser.Span{}, false
	}
	return c.OperandSpans[i], true
}

// ValueSpan returns the span of ValueOperand.
func (c WhereCondition) ValueSpan() (parser.Span, bool) {
	i := c.index(c.isValue)
	if i < 0 || i >= len(c.OperandSpans) {
		return parser.Span{}, false
	}
	return c.OperandSpans[i], true
}

func (c WhereCondition) pick(match func(string) bool) string {
	if i := c.index(match); i >= 0 {
		return c.Operands[i]
	}
	return ""
}

// index returns the position of the only operand accepted by match, or -1.
func (c WhereCondition) index(match func(string) bool) int {
	found := -1
	for i, op := range c.Operands {
		if !match(op) {
			continue
		}
		if found >= 0 {
			return -1
		}
		found = i
	}
	return found
}

func (c WhereCondition) isValue(s string) bool {
	if s == c.placeholder {
		return true
	}
	return IsValueOperand(s)
}

func (c WhereCondition) isColumn(s string) bool {
	return !c.isValue(s) && IsColumnOperand(s)
}

// IsValueOperand reports whether s looks like a number, a quoted string or a
// parenthesized value list.
func IsValueOperand(s string) bool {
	if s == "" {
		return false
	}
	switch s[0] {
	case '\'', '"':
		return len(s) >= 2 && s[len(s)-1] == s[0]
	case '(':
		return true
	}
	switch strings.ToUpper(s) {
	case "NULL", "TRUE", "FALSE":
		return true
	}
	return numberPattern.MatchString(s)
}

// IsColumnOperand reports whether s is a bare or table-qualified identifier.
func IsColumnOperand(s string) bool {
	switch strings.ToUpper(s) {
	case "NULL", "TRUE", "FALSE":
		return false
	}
	return columnPattern.MatchString(s)
}

// WhereConditions returns the comparisons of the WHERE clause. AND, OR and
// NOT are flattened away; comparisons inside subqueries are not included.
func (m *Model) WhereConditions() []WhereCondition {
	return m.where()
}

// WhereColumns returns the column operands of every WHERE condition.
func (m *Model) WhereColumns() []string {
	var cols []string
	for _, c := range m.WhereConditions() {
		if col := c.ColumnOperand(); col != "" {
			cols = append(cols, col)
		}
	}
	return cols
}

func (m *Model) whereExpr() parser.Expr {
	switch s := m.stmt.(type) {
	case *parser.SelectStmt:
		return s.Where
	case *parser.UpdateStmt:
		return s.Where
	case *parser.DeleteStmt:
		return s.Where
	}
	return nil
}

func (m *Model) collectWhere() []WhereCondition {
	var out []WhereCondition
	for _, e := range flatten(m.whereExpr()) {
		if c, ok := m.condition(e); ok {
			out = append(out, c)
		}
	}
	return out
}

// flatten returns the leaves of an AND/OR/NOT tree.
func flatten(e parser.Expr) []parser.Expr {
	switch n := e.(type) {
	case nil:
		return nil
	case *parser.BinaryExpr:
		if n.Op == token.AND || n.Op == token.OR {
			return append(flatten(n.Left), flatten(n.Right)...)
		}
	case *parser.UnaryExpr:
		if n.Op == token.NOT {
			return flatten(n.Expr)
		}
	case *parser.ParenExpr:
		if len(n.Exprs) == 1 {
			return flatten(n.Exprs[0])
		}
	}
	return []parser.Expr{e}
}

func (m *Model) condition(e parser.Expr) (WhereCondition, bool) {
	c := WhereCondition{Span: e.GetSpan(), placeholder: m.placeholder}
	switch n := e.(type) {
	case *parser.BinaryExpr:
		if !token.IsComparison(n.Op) && n.Op != token.LIKE {
			return c, false
		}
		c.Operator = n.Op.String()
		if n.Not {
			c.Operator = "NOT " + c.Operator
		}
		c.Operands = []string{m.operand(n.Left), m.operand(n.Right)}
		c.OperandSpans = []parser.Span{n.Left.GetSpan(), n.Right.GetSpan()}
	case *parser.IsNullExpr:
		c.Operator = "IS NULL"
		if n.Not {
			c.Operator = "IS NOT NULL"
		}
		c.Operands = []string{m.operand(n.Expr)}
		c.OperandSpans = []parser.Span{n.Expr.GetSpan()}
	case *parser.InExpr:
		c.Operator = "IN"
		if n.Not {
			c.Operator = "NOT IN"
		}
		list := parser.Span{Start: n.Expr.GetSpan().End, End: n.Span.End}
		rest := strings.TrimSpace(list.Text(m.sql))
		if i := strings.IndexByte(rest, '('); i >= 0 {
			rest = rest[i:]
		}
		c.Operands = []string{m.operand(n.Expr), rest}
		c.OperandSpans = []parser.Span{n.Expr.GetSpan(), list}
	case *parser.BetweenExpr:
		c.Operator = "BETWEEN"
		if n.Not {
			c.Operator = "NOT BETWEEN"
		}
		c.Operands = []string{m.operand(n.Expr)}
		c.OperandSpans = []parser.Span{n.Expr.GetSpan()}
	default:
		return c, false
	}
	return c, true
}

func (m *Model) operand(e parser.Expr) string {
	if col, ok := e.(*parser.ColumnRef); ok {
		return col.Name()
	}
	return strings.TrimSpace(m.Text(e))
}

// JoinOperand is one side of a JOIN condition. TableName is empty when the
// operand cannot be tied to a table of the statement.
type JoinOperand struct {
	TableName  string
	ColumnName string
	As         string // qualifier as written, table name or alias
}

// JoinCondition is one comparison of a JOIN ... ON clause, or one column of
// JOIN ... USING.
type JoinCondition struct {
	Operator string
	Operands []JoinOperand
	Span     parser.Span
}

// JoinConditions returns the conditions of every explicit join in order.
func (m *Model) JoinConditions() []JoinCondition {
	return m.joins()
}

func (m *Model) collectJoins() []JoinCondition {
	from := m.from()
	if from == nil {
		return nil
	}
	var out []JoinCondition
	prev := lastTable(from.Targets)
	for _, j := range from.Joins {
		for _, e := range flatten(j.On) {
			b, ok := e.(*parser.BinaryExpr)
			if !ok || !token.IsComparison(b.Op) {
				continue
			}
			out = append(out, JoinCondition{
				Operator: b.Op.String(),
				Operands: []JoinOperand{m.joinOperand(b.Left), m.joinOperand(b.Right)},
				Span:     b.Span,
			})
		}
		right := ""
		if j.Target.Table != nil {
			right = j.Target.Table.Qualified()
		}
		for _, col := range j.Using {
			out = append(out, JoinCondition{
				Operator: "=",
				Operands: []JoinOperand{
					{TableName: prev, ColumnName: col, As: prev},
					{TableName: right, ColumnName: col, As: right},
				},
				Span: j.Span,
			})
		}
		if right != "" {
			prev = right
		}
	}
	return out
}

func lastTable(targets []*parser.FromTarget) string {
	for i := len(targets) - 1; i >= 0; i-- {
		if targets[i].Table != nil {
			return targets[i].Table.Qualified()
		}
	}
	return ""
}

func (m *Model) joinOperand(e parser.Expr) JoinOperand {
	col, ok := e.(*parser.ColumnRef)
	if !ok {
		return JoinOperand{}
	}
	op := JoinOperand{ColumnName: col.Column, As: col.Table}
	if col.Table != "" {
		op.TableName = m.ResolveTable(col.Table)
	}
	return op
}
