package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/querylint/pkg/callsite"
	"github.com/leapstack-labs/querylint/pkg/lint"
	"github.com/leapstack-labs/querylint/pkg/location"
	"github.com/leapstack-labs/querylint/pkg/query"
	"github.com/leapstack-labs/querylint/pkg/rewrite"
)

func init() {
	lint.Register(NPlusOne)
}

// NPlusOne defaults.
const (
	DefaultMapMethod = "map"
	DefaultReducer   = "each_with_object"
)

// NPlusOne flags queries issued once per iteration of a loop and, when the
// query is a single-row lookup by unique key, batches it.
var NPlusOne = lint.RuleDef{
	ID:          "PF05",
	Name:        "performance.n_plus_one",
	Group:       "performance",
	Description: "Query runs inside a loop (N+1 query).",
	Severity:    lint.SeverityWarning,
	Check:       checkNPlusOne,
	ConfigKeys:  []string{"map_method", "reducer"},

	Rationale: `A query inside a loop runs once per element: one outer query plus N lookups.
A single batched query with IN (...) does the same work in one round trip.`,

	BadExample: `courses.map do |course|
  teacher = db.xquery('SELECT * FROM users WHERE id = ?', course[:teacher_id]).first
end`,

	GoodExample: `courses.map do |course|
  @users_by_id ||= db.xquery('SELECT * FROM users WHERE id IN (?)', courses.map { |course| course[:teacher_id] }).each_with_object({}) { |v, hash| hash[v[:id]] = v }
  teacher = @users_by_id[course[:teacher_id]]
end`,

	Fix: `Fetch all rows at once with IN (?) and index them by key. Automatic fixes
require a single-row lookup by primary key or single-column unique index.`,
}

func checkNPlusOne(p *lint.Pass) []lint.Diagnostic {
	site := p.Site
	if site == nil || site.NPlusOne == nil || !site.NPlusOne.InLoop || site.NPlusOne.Memoized {
		return nil
	}

	loc := siteLocation(p)
	if loc == nil {
		return nil
	}
	d := p.Report(loc, "This query is called inside a loop; it may be an N+1 query")
	d.ImpactScore = lint.ImpactCritical.Int()

	b, err := batchable(p)
	if err != nil {
		p.Log().Debug("N+1 fix not applicable", "reason", err)
		return []lint.Diagnostic{d}
	}
	fix, err := b.fix(p)
	if err != nil {
		p.Warn("N+1 fix discarded", err)
		return []lint.Diagnostic{d}
	}
	d.Fixes = []lint.Fix{fix}
	return []lint.Diagnostic{d}
}

// siteLocation is the host statement of the call, or the SQL itself when the
// host did not report one.
func siteLocation(p *lint.Pass) *location.Location {
	text := p.Text()
	if st := p.Site.Statement; !st.IsZero() && st.Valid(len(text)) && st.Begin < st.End {
		return &location.Location{Begin: st.Begin, End: st.End, Body: st.Text(text)}
	}
	return p.LocateSpan(p.Query.Statement().GetSpan())
}

// batch holds everything the N+1 rewrite needs.
type batch struct {
	table  string
	column string

	condition *location.Location // "id = ?"
	operand   *location.Location // "id"

	np *callsite.NPlusOne
}

var errNotBatchable = errors.New("not batchable")

func notBatchable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errNotBatchable, fmt.Sprintf(format, args...))
}

// batchable checks that rewriting the call into one IN (?) query keeps its
// meaning: a single-row lookup by a unique key, bound from a field of the
// loop variable, read with .first or .last and assigned to a local variable.
func batchable(p *lint.Pass) (*batch, error) {
	q := p.Query
	switch {
	case p.Mapper == nil:
		return nil, notBatchable("SQL source is unknown")
	case !q.IsSelect():
		return nil, notBatchable("not a SELECT")
	case len(q.TableNames()) != 1:
		return nil, notBatchable("reads %d tables", len(q.TableNames()))
	case q.HasLimit():
		return nil, notBatchable("has LIMIT")
	case q.HasGroupBy():
		return nil, notBatchable("has GROUP BY")
	case q.HasAggregate():
		return nil, notBatchable("has an aggregate function")
	}

	conds := q.WhereConditions()
	if len(conds) != 1 {
		return nil, notBatchable("has %d WHERE conditions", len(conds))
	}
	cond := conds[0]
	if cond.Operator != "=" || cond.ColumnOperand() == "" || !boundByPlaceholder(p, cond) {
		return nil, notBatchable("WHERE is not column = ?")
	}
	table, column := q.ResolveColumn(cond.ColumnOperand())
	if table == "" {
		return nil, notBatchable("WHERE column %q does not resolve to a table", cond.ColumnOperand())
	}

	if !p.SchemaEnabled() {
		return nil, notBatchable("schema is disabled")
	}
	k, ok := tableKeys(p, table)
	if !ok {
		return nil, notBatchable("keys of %s are unknown", table)
	}
	if !k.isUniqueKey(column) {
		return nil, notBatchable("%s.%s is not a unique key", table, column)
	}

	np := p.Site.NPlusOne
	switch {
	case np.Loop == nil || np.Loop.Variable == "" || np.Loop.Collection.Begin >= np.Loop.Collection.End:
		return nil, notBatchable("loop collection is unknown")
	case !np.Argument.IsFieldAccess(np.Loop.Variable):
		return nil, notBatchable("argument is not a field of %s", np.Loop.Variable)
	case np.Selector == nil || (np.Selector.Name != "first" && np.Selector.Name != "last"):
		return nil, notBatchable("result is not read with .first or .last")
	case np.Assignment == nil || np.Assignment.Kind != callsite.AssignLocal || np.Assignment.Target == "":
		return nil, notBatchable("result is not assigned to a local variable")
	}

	colSpan, ok := cond.ColumnSpan()
	if !ok {
		return nil, notBatchable("WHERE column has no span")
	}
	b := &batch{
		table:     table,
		column:    column,
		condition: p.LocateSpan(cond.Span),
		operand:   p.LocateSpan(colSpan),
		np:        np,
	}
	if b.condition == nil || b.operand == nil {
		return nil, notBatchable("WHERE condition cannot be located")
	}
	return b, nil
}

// boundByPlaceholder reports whether the value side of cond is a ? marker in
// the original SQL, not a literal that happens to equal the placeholder.
func boundByPlaceholder(p *lint.Pass, cond query.WhereCondition) bool {
	span, ok := cond.ValueSpan()
	return ok && strings.TrimSpace(span.Text(p.Mapper.SQL())) == "?"
}

// memo is the instance variable caching the batch result.
func (b *batch) memo() string {
	return "@" + bareName(b.table) + "_by_" + b.column
}

// fix builds the four edits:
//  1. column = ?      -> column IN (?)
//  2. row[:key]       -> coll.map { |row| row[:key] }
//  3. .first          -> .each_with_object({}) { |v, hash| hash[v[:col]] = v }
//     followed by the per-row lookup line "x = @memo[row[:key]]"
//  4. "x = "          -> "@memo ||= "
func (b *batch) fix(p *lint.Pass) (lint.Fix, error) {
	text := p.Text()
	np := b.np
	arg := np.Argument.Range.Text(text)
	coll := np.Loop.Collection.Text(text)
	if arg == "" || coll == "" {
		return lint.Fix{}, errors.New("argument or loop collection is out of range")
	}

	mapMethod := lint.GetStringOption(p.Options, "map_method", DefaultMapMethod)
	reducer, err := reduce(lint.GetStringOption(p.Options, "reducer", DefaultReducer), np.Argument, b.column)
	if err != nil {
		return lint.Fix{}, err
	}

	indent := location.Indentation(text, np.Assignment.Begin)
	lookup := "\n" + indent + np.Assignment.Target + " = " + b.memo() + "[" + arg + "]"

	edits := []rewrite.Edit{
		rewrite.Replace(b.condition.Begin, b.condition.End, b.operand.Body+" IN (?)"),
		rewrite.Replace(np.Argument.Range.Begin, np.Argument.Range.End,
			fmt.Sprintf("%s.%s { |%s| %s }", coll, mapMethod, np.Loop.Variable, arg)),
		rewrite.Replace(np.Selector.Range.Begin, np.Selector.Range.End, reducer+lookup),
		rewrite.Replace(np.Assignment.Begin, np.Assignment.ValueBegin, b.memo()+" ||= "),
	}
	if err := rewrite.Validate(len(text), edits); err != nil {
		return lint.Fix{}, err
	}
	return lint.Fix{
		Description: fmt.Sprintf("Batch the lookup into %s with IN (?)", b.memo()),
		Edits:       edits,
	}, nil
}

// reduce renders the call that turns the batch result into a map from key
// to row, reading the key in the argument's access style.
func reduce(reducer string, arg *callsite.Argument, column string) (string, error) {
	key := arg.Read("v", column)
	switch strings.TrimPrefix(reducer, ".") {
	case "each_with_object":
		return ".each_with_object({}) { |v, hash| hash[" + key + "] = v }", nil
	case "to_h":
		return ".to_h { |v| [" + key + ", v] }", nil
	}
	return "", fmt.Errorf("unknown reducer %q, want each_with_object or to_h", reducer)
}
