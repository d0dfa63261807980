package parser

// Walk traverses node depth-first in source order, calling fn for each node.
// If fn returns false the node's children are skipped. Walk descends into
// subqueries; use WalkShallow to stay within one statement.
func Walk(node Node, fn func(Node) bool) {
	w := walker{fn: fn, deep: true}
	w.node(node)
}

// WalkShallow is like Walk but does not enter nested SELECT statements
// (FROM subqueries, IN/EXISTS/scalar subqueries).
func WalkShallow(node Node, fn func(Node) bool) {
	w := walker{fn: fn}
	w.node(node)
}

type walker struct {
	fn   func(Node) bool
	deep bool
}

func (w *walker) node(n Node) {
	if n == nil || isNilNode(n) {
		return
	}
	if !w.fn(n) {
		return
	}

	switch n := n.(type) {
	case *SelectStmt:
		for _, f := range n.Fields {
			w.node(f)
		}
		w.from(n.From)
		w.expr(n.Where)
		w.exprs(n.GroupBy)
		w.expr(n.Having)
		for _, o := range n.OrderBy {
			w.node(o)
		}
		if n.Limit != nil {
			w.node(n.Limit)
		}
	case *InsertStmt:
		if n.Table != nil {
			w.node(n.Table)
		}
		for _, c := range n.Columns {
			w.node(c)
		}
		for _, row := range n.Rows {
			w.exprs(row)
		}
		for _, a := range n.Set {
			w.node(a)
		}
		w.subquery(n.Select)
	case *UpdateStmt:
		w.from(n.From)
		for _, a := range n.Set {
			w.node(a)
		}
		w.expr(n.Where)
		for _, o := range n.OrderBy {
			w.node(o)
		}
		if n.Limit != nil {
			w.node(n.Limit)
		}
	case *DeleteStmt:
		w.from(n.From)
		w.expr(n.Where)
		for _, o := range n.OrderBy {
			w.node(o)
		}
		if n.Limit != nil {
			w.node(n.Limit)
		}

	case *SelectField:
		w.expr(n.Expr)
	case *FromClause:
		for _, t := range n.Targets {
			w.node(t)
		}
		for _, j := range n.Joins {
			w.node(j)
		}
	case *FromTarget:
		if n.Table != nil {
			w.node(n.Table)
		}
		w.subquery(n.Subquery)
	case *Join:
		w.node(n.Target)
		w.expr(n.On)
	case *OrderItem:
		w.expr(n.Expr)
	case *LimitClause:
		w.expr(n.Offset)
		w.expr(n.Count)
	case *Assignment:
		w.node(n.Column)
		w.expr(n.Value)
	case *TableName, *ColumnRef, *StarExpr, *Literal:
	case *BinaryExpr:
		w.expr(n.Left)
		w.expr(n.Right)
	case *UnaryExpr:
		w.expr(n.Expr)
	case *IsNullExpr:
		w.expr(n.Expr)
	case *InExpr:
		w.expr(n.Expr)
		w.exprs(n.Values)
		w.subquery(n.Query)
	case *BetweenExpr:
		w.expr(n.Expr)
		w.expr(n.Low)
		w.expr(n.High)
	case *ExistsExpr:
		w.subquery(n.Query)
	case *SubqueryExpr:
		w.subquery(n.Query)
	case *ParenExpr:
		w.exprs(n.Exprs)
	case *FuncCall:
		w.exprs(n.Args)
	case *CaseExpr:
		w.expr(n.Operand)
		for _, wc := range n.Whens {
			w.node(wc)
		}
		w.expr(n.Else)
	case *WhenClause:
		w.expr(n.Cond)
		w.expr(n.Result)
	}
}

func (w *walker) from(f *FromClause) {
	if f != nil {
		w.node(f)
	}
}

func (w *walker) expr(e Expr) {
	if e != nil {
		w.node(e)
	}
}

func (w *walker) exprs(list []Expr) {
	for _, e := range list {
		w.expr(e)
	}
}

func (w *walker) subquery(s *SelectStmt) {
	if s != nil && w.deep {
		w.node(s)
	}
}

// isNilNode catches typed nil pointers stored in the Node interface.
func isNilNode(n Node) bool {
	switch v := n.(type) {
	case *SelectStmt:
		return v == nil
	case *FromClause:
		return v == nil
	case *FromTarget:
		return v == nil
	case *Join:
		return v == nil
	case *LimitClause:
		return v == nil
	case *TableName:
		return v == nil
	case *ColumnRef:
		return v == nil
	}
	return false
}

// CollectFuncCalls returns every function call in node, including subqueries.
func CollectFuncCalls(node Node) []*FuncCall {
	var calls []*FuncCall
	Walk(node, func(n Node) bool {
		if fn, ok := n.(*FuncCall); ok {
			calls = append(calls, fn)
		}
		return true
	})
	return calls
}

// CollectColumnRefs returns the column references of node without entering subqueries.
func CollectColumnRefs(node Node) []*ColumnRef {
	var cols []*ColumnRef
	WalkShallow(node, func(n Node) bool {
		if c, ok := n.(*ColumnRef); ok {
			cols = append(cols, c)
		}
		return true
	})
	return cols
}
