package rules_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/querylint/pkg/callsite"
	"github.com/leapstack-labs/querylint/pkg/lint"
	_ "github.com/leapstack-labs/querylint/pkg/lint/rules" // register rules
	"github.com/leapstack-labs/querylint/pkg/location"
	"github.com/leapstack-labs/querylint/pkg/parser"
	"github.com/leapstack-labs/querylint/pkg/query"
	"github.com/leapstack-labs/querylint/pkg/rewrite"
	"github.com/leapstack-labs/querylint/pkg/schema"
)

const schemaYAML = `
tables:
  users:
    columns: [id, account_name, display_name]
    primary_key: [id]
    indexes:
      - {name: idx_display_name, columns: [display_name]}
  courses:
    columns: [id, teacher_id, name]
    primary_key: [id]
    indexes:
      - {name: idx_teacher_id, columns: [teacher_id, name]}
  isu:
    columns: [id, jia_isu_uuid, name, jia_user_id]
    primary_key: [id]
    indexes:
      - {name: uniq_jia_isu_uuid, columns: [jia_isu_uuid], unique: true}
  registrations:
    columns: [course_id, user_id, created_at]
    primary_key: [course_id, user_id]
  posts:
    columns: [id, user_id, body]
    primary_key: [id]
  comments:
    columns: [id, post_id, body]
    primary_key: [id]
`

func testSchema(t *testing.T) *schema.Static {
	t.Helper()
	s, err := schema.ParseStatic([]byte(schemaYAML))
	require.NoError(t, err)
	return s
}

// literalSite returns a call site whose only fragment is the first
// occurrence of sql in text.
func literalSite(t *testing.T, text, sql string) *callsite.CallSite {
	t.Helper()
	begin := strings.Index(text, sql)
	require.GreaterOrEqual(t, begin, 0, "sql not found in text")
	return &callsite.CallSite{
		Line:      location.LineOf(text, begin),
		Shape:     "literal",
		Fragments: []callsite.Range{{Begin: begin, End: begin + len(sql)}},
	}
}

type runOptions struct {
	schema schema.Introspector
	config *lint.Config
}

// run analyzes one call site with a single rule.
func run(t *testing.T, ruleID, text string, site *callsite.CallSite, opts runOptions) lint.Result {
	t.Helper()
	rule, ok := lint.GetRuleByID(ruleID)
	require.True(t, ok, "rule %s not registered", ruleID)

	src, err := site.Source(text)
	require.NoError(t, err)
	m, err := location.NewMapper(src)
	require.NoError(t, err)
	require.NoError(t, m.UseNormalized(parser.Normalize(m.SQL())))

	q, err := query.Parse(m.SQL(), parser.DefaultPlaceholder)
	require.NoError(t, err)

	a := lint.NewAnalyzerWithRules(opts.config, nil, []lint.Rule{rule})
	return a.Analyze(context.Background(), lint.Target{Query: q, Mapper: m, Schema: opts.schema, Site: site})
}

// applyFix applies the only fix of d to text.
func applyFix(t *testing.T, text string, d lint.Diagnostic) string {
	t.Helper()
	require.Len(t, d.Fixes, 1)
	out, err := rewrite.Apply(text, d.Fixes[0].Edits)
	require.NoError(t, err)
	return out
}

// loopCall describes a call inside a block loop, located by substrings of
// text.
type loopCall struct {
	text       string
	sql        string
	collection string
	variable   string
	arg        string
	access     string
	keyKind    string
	key        string
	selector   string
	assignKind string
	target     string
	memoized   bool
}

func (c loopCall) site(t *testing.T) *callsite.CallSite {
	t.Helper()
	site := literalSite(t, c.text, c.sql)
	sqlEnd := site.Fragments[0].End

	argBegin := strings.Index(c.text[sqlEnd:], c.arg)
	require.GreaterOrEqual(t, argBegin, 0, "argument not found")
	argBegin += sqlEnd
	argEnd := argBegin + len(c.arg)

	collBegin := strings.Index(c.text, c.collection)
	require.GreaterOrEqual(t, collBegin, 0, "collection not found")

	assignBegin := strings.Index(c.text, c.target+" ")
	require.GreaterOrEqual(t, assignBegin, 0, "assignment not found")
	valueBegin := assignBegin + strings.Index(c.text[assignBegin:], "db.")

	kind := c.assignKind
	if kind == "" {
		kind = callsite.AssignLocal
	}
	np := &callsite.NPlusOne{
		InLoop:   true,
		Memoized: c.memoized,
		Loop: &callsite.Loop{
			Kind:       "map",
			Collection: callsite.Range{Begin: collBegin, End: collBegin + len(c.collection)},
			Variable:   c.variable,
		},
		Argument: &callsite.Argument{
			Range:    callsite.Range{Begin: argBegin, End: argEnd},
			Receiver: c.variable,
			Access:   c.access,
			Key:      c.key,
			KeyKind:  c.keyKind,
		},
		Assignment: &callsite.Assignment{Kind: kind, Target: c.target, Begin: assignBegin, ValueBegin: valueBegin},
	}

	stmtEnd := argEnd + 1
	if c.selector != "" {
		selBegin := argEnd + strings.Index(c.text[argEnd:], c.selector)
		np.Selector = &callsite.Selector{
			Range: callsite.Range{Begin: selBegin, End: selBegin + len(c.selector)},
			Name:  strings.TrimPrefix(c.selector, "."),
		}
		stmtEnd = selBegin + len(c.selector)
	}
	site.Statement = callsite.Range{Begin: assignBegin, End: stmtEnd}
	site.NPlusOne = np
	return site
}
