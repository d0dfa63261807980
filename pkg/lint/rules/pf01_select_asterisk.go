package rules

import (
	"strings"

	"github.com/leapstack-labs/querylint/pkg/lint"
	"github.com/leapstack-labs/querylint/pkg/location"
	"github.com/leapstack-labs/querylint/pkg/parser"
	"github.com/leapstack-labs/querylint/pkg/query"
	"github.com/leapstack-labs/querylint/pkg/rewrite"
)

func init() {
	lint.Register(SelectAsterisk)
}

// DefaultVerifyComment is written above a statement whose * was expanded.
const DefaultVerifyComment = "querylint: SELECT * was expanded, keep only the columns you use"

// SelectAsterisk flags SELECT * and table.* and expands them from the schema.
var SelectAsterisk = lint.RuleDef{
	ID:          "PF01",
	Name:        "performance.select_asterisk",
	Group:       "performance",
	Description: "Avoid SELECT *; list the columns the code reads.",
	Severity:    lint.SeverityWarning,
	Check:       checkSelectAsterisk,
	ConfigKeys:  []string{"comment"},

	Rationale: `SELECT * transfers every column, including large TEXT and BLOB values the
caller never reads, and prevents covering indexes from answering the query.`,

	BadExample: `db.xquery('SELECT * FROM users WHERE id = ?', id)`,

	GoodExample: `db.xquery('SELECT id, name, display_name FROM users WHERE id = ?', id)`,

	Fix: "Replace * with the table's columns, then delete the ones the code does not use.",
}

func checkSelectAsterisk(p *lint.Pass) []lint.Diagnostic {
	var diags []lint.Diagnostic
	commented := false

	p.Query.VisitAll(func(q *query.Model) {
		for _, star := range q.StarFields() {
			loc := p.LocateSpan(star.Span)
			if loc == nil {
				continue
			}
			d := p.Report(loc, "Avoid SELECT %s; list the needed columns", starText(star))
			d.ImpactScore = lint.ImpactMedium.Int()

			if fix, ok := expandStar(p, q, star, loc, !commented); ok {
				d.Fixes = []lint.Fix{fix}
				commented = true
			}
			diags = append(diags, d)
		}
	})
	return diags
}

func starText(star *parser.StarExpr) string {
	if star.Table == "" {
		return "*"
	}
	return star.Table + ".*"
}

// expandStar replaces the star with the column list of its table. The table
// must be unambiguous: the qualifier's table, or the statement's only table.
func expandStar(p *lint.Pass, q *query.Model, star *parser.StarExpr, loc *location.Location, withComment bool) (lint.Fix, bool) {
	table := ""
	switch {
	case star.Table != "":
		table = q.ResolveTable(star.Table)
	case len(q.TableNames()) == 1:
		table = q.TableNames()[0]
	}
	if table == "" || !p.SchemaEnabled() {
		return lint.Fix{}, false
	}
	columns, ok := p.ColumnNames(table)
	if !ok || len(columns) == 0 {
		return lint.Fix{}, false
	}

	list := columns
	if star.Table != "" {
		list = make([]string, len(columns))
		for i, c := range columns {
			list[i] = star.Table + "." + c
		}
	}

	fix := lint.Fix{
		Description: "Expand " + starText(star) + " to the columns of " + table,
		Edits:       []rewrite.Edit{rewrite.Replace(loc.Begin, loc.End, strings.Join(list, ", "))},
	}
	if withComment {
		fix.Edits = append(fix.Edits, verifyComment(p, loc.Begin))
	}
	return fix, true
}

// verifyComment inserts a comment line above the statement holding offset.
func verifyComment(p *lint.Pass, offset int) rewrite.Edit {
	text := p.Text()
	prefix, anchor := "#", offset
	if site := p.Site; site != nil {
		prefix = site.Comment()
		if !site.Statement.IsZero() && site.Statement.Begin <= offset {
			anchor = site.Statement.Begin
		}
	}
	start := location.LineStart(text, anchor)
	comment := lint.GetStringOption(p.Options, "comment", DefaultVerifyComment)
	return rewrite.InsertBefore(start, location.Indentation(text, anchor)+prefix+" "+comment+"\n")
}
