package rules

import (
	"github.com/leapstack-labs/querylint/pkg/lint"
	"github.com/leapstack-labs/querylint/pkg/location"
	"github.com/leapstack-labs/querylint/pkg/query"
)

func init() {
	lint.Register(WhereIndex)
}

// WhereIndex flags WHERE clauses that no index or primary key can serve.
var WhereIndex = lint.RuleDef{
	ID:          "PF02",
	Name:        "performance.where_index",
	Group:       "performance",
	Description: "WHERE clause has no usable index.",
	Severity:    lint.SeverityWarning,
	Check:       checkWhereIndex,
	NeedsSchema: true,

	Rationale: `A WHERE clause none of whose columns leads an index or forms the primary key
makes the database scan the whole table on every call.`,

	BadExample: `-- isu has no index on jia_user_id
SELECT * FROM isu WHERE jia_user_id = ?`,

	GoodExample: `CREATE INDEX idx_isu_jia_user_id ON isu (jia_user_id);
SELECT * FROM isu WHERE jia_user_id = ?`,

	Fix: "Add an index whose first column is one of the WHERE columns.",
}

// whereColumn is a WHERE condition whose column belongs to a known table.
type whereColumn struct {
	cond   query.WhereCondition
	table  string
	column string
}

func checkWhereIndex(p *lint.Pass) []lint.Diagnostic {
	var diags []lint.Diagnostic
	p.Query.VisitAll(func(q *query.Model) {
		if d, ok := whereIndexFinding(p, q); ok {
			diags = append(diags, d)
		}
	})
	return diags
}

// whereIndexFinding reports the first uncovered condition of q when no
// condition at all is covered. Tables whose keys cannot be read are treated
// as unknown and skipped.
func whereIndexFinding(p *lint.Pass, q *query.Model) (lint.Diagnostic, bool) {
	var cols []whereColumn
	present := make(map[string][]string)
	for _, c := range q.WhereConditions() {
		operand := c.ColumnOperand()
		if operand == "" {
			continue
		}
		table, column := q.ResolveColumn(operand)
		if table == "" {
			continue
		}
		cols = append(cols, whereColumn{cond: c, table: table, column: column})
		present[table] = append(present[table], column)
	}
	if len(cols) == 0 {
		return lint.Diagnostic{}, false
	}

	known := make(map[string]keys)
	var uncovered []whereColumn
	for _, wc := range cols {
		k, ok := known[wc.table]
		if !ok {
			if k, ok = tableKeys(p, wc.table); !ok {
				continue
			}
			known[wc.table] = k
		}
		if k.covers(wc.column, present[wc.table]) {
			return lint.Diagnostic{}, false
		}
		uncovered = append(uncovered, wc)
	}
	if len(uncovered) == 0 {
		return lint.Diagnostic{}, false
	}

	first := uncovered[0]
	loc := p.LocateFrom(location.AxisOperation, first.cond.Span.Start.Offset, first.cond.Text(q.SQL()))
	if loc == nil {
		return lint.Diagnostic{}, false
	}
	d := p.Report(loc, "This WHERE clause has no usable index: %s.%s is neither indexed nor the primary key of %s",
		first.table, first.column, first.table)
	d.ImpactScore = lint.ImpactHigh.Int()
	return d, true
}
