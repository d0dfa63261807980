package rules

import (
	"github.com/leapstack-labs/querylint/pkg/lint"
	"github.com/leapstack-labs/querylint/pkg/location"
	"github.com/leapstack-labs/querylint/pkg/query"
)

func init() {
	lint.Register(JoinIndex)
}

// JoinIndex flags JOIN columns that no index or primary key can serve.
var JoinIndex = lint.RuleDef{
	ID:          "PF03",
	Name:        "performance.join_index",
	Group:       "performance",
	Description: "JOIN condition column has no usable index.",
	Severity:    lint.SeverityWarning,
	Check:       checkJoinIndex,
	NeedsSchema: true,

	Rationale: `Each side of a join condition is looked up once per row of the other side.
Without an index on the joined column the database falls back to nested full scans.`,

	BadExample: `-- comments.post_id is not indexed
SELECT p.id, c.body FROM posts p JOIN comments c ON c.post_id = p.id`,

	GoodExample: `CREATE INDEX idx_comments_post_id ON comments (post_id);`,

	Fix: "Add an index whose first column is the joined column.",
}

func checkJoinIndex(p *lint.Pass) []lint.Diagnostic {
	var diags []lint.Diagnostic
	p.Query.VisitAll(func(q *query.Model) {
		diags = append(diags, joinIndexFindings(p, q)...)
	})
	return diags
}

func joinIndexFindings(p *lint.Pass, q *query.Model) []lint.Diagnostic {
	conds := q.JoinConditions()
	present := make(map[string][]string)
	for _, c := range conds {
		for _, op := range c.Operands {
			if op.TableName != "" {
				present[op.TableName] = append(present[op.TableName], op.ColumnName)
			}
		}
	}

	var diags []lint.Diagnostic
	known := make(map[string]keys)
	failed := make(map[string]bool)
	for _, c := range conds {
		for _, op := range c.Operands {
			// Operands that cannot be tied to a table, such as columns of a
			// subquery, are not checked.
			if op.TableName == "" || failed[op.TableName] {
				continue
			}
			k, ok := known[op.TableName]
			if !ok {
				if k, ok = tableKeys(p, op.TableName); !ok {
					failed[op.TableName] = true
					continue
				}
				known[op.TableName] = k
			}
			if k.covers(op.ColumnName, present[op.TableName]) {
				continue
			}

			loc := p.LocateFrom(location.AxisExpression, c.Span.Start.Offset, operandText(op))
			if loc == nil {
				loc = p.LocateSpan(c.Span)
			}
			if loc == nil {
				continue
			}
			d := p.Report(loc, "This JOIN column has no usable index: %s.%s is neither indexed nor the primary key of %s",
				op.TableName, op.ColumnName, op.TableName)
			d.ImpactScore = lint.ImpactHigh.Int()
			diags = append(diags, d)
		}
	}
	return diags
}

// operandText is the operand as it appears in the normalized SQL.
func operandText(op query.JoinOperand) string {
	if op.As == "" {
		return op.ColumnName
	}
	return op.As + "." + op.ColumnName
}
