package lint_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/querylint/pkg/lint"
	"github.com/leapstack-labs/querylint/pkg/location"
	"github.com/leapstack-labs/querylint/pkg/parser"
	"github.com/leapstack-labs/querylint/pkg/query"
	"github.com/leapstack-labs/querylint/pkg/schema"
)

const hostText = "user = db.xquery('SELECT * FROM `users` WHERE id = ?', id).first\n"

func newTarget(t *testing.T, in schema.Introspector) lint.Target {
	t.Helper()
	sql := "SELECT * FROM `users` WHERE id = ?"
	begin := strings.Index(hostText, sql)
	end := begin + len(sql)
	m, err := location.NewMapper(location.Source{
		Text:      hostText,
		Shape:     location.ShapeLiteral,
		Fragments: []location.Fragment{{Begin: begin, End: end}},
	})
	require.NoError(t, err)
	require.NoError(t, m.UseNormalized(parser.Normalize(m.SQL())))

	q, err := query.Parse(m.SQL(), parser.DefaultPlaceholder)
	require.NoError(t, err)
	return lint.Target{Query: q, Mapper: m, Schema: in}
}

func starRule() lint.RuleDef {
	return lint.RuleDef{
		ID:       "T01",
		Name:     "test.star",
		Group:    "test",
		Severity: lint.SeverityWarning,
		Check: func(p *lint.Pass) []lint.Diagnostic {
			var diags []lint.Diagnostic
			for _, star := range p.Query.StarFields() {
				diags = append(diags, p.Report(p.LocateSpan(star.Span), "star in %s", p.Query.TableNames()[0]))
			}
			return diags
		},
	}
}

func schemaRule() lint.RuleDef {
	return lint.RuleDef{
		ID:          "T02",
		Group:       "test",
		Severity:    lint.SeverityInfo,
		NeedsSchema: true,
		Check: func(p *lint.Pass) []lint.Diagnostic {
			cols, ok := p.ColumnNames("users")
			if !ok {
				return nil
			}
			return []lint.Diagnostic{p.Report(nil, "%d columns", len(cols))}
		},
	}
}

func TestAnalyzer_Analyze(t *testing.T) {
	static := schema.NewStatic(&schema.Table{Name: "users", Columns: []string{"id", "name"}, PrimaryKey: []string{"id"}})
	rules := []lint.Rule{lint.WrapRuleDef(starRule()), lint.WrapRuleDef(schemaRule())}

	tests := []struct {
		name      string
		schema    schema.Introspector
		config    func(*lint.Config)
		wantRules []string
		wantSev   []lint.Severity
	}{
		{
			name:      "all rules with schema",
			schema:    static,
			wantRules: []string{"T01", "T02"},
			wantSev:   []lint.Severity{lint.SeverityWarning, lint.SeverityInfo},
		},
		{
			name:      "schema rules skipped when disabled",
			schema:    schema.Disabled{},
			wantRules: []string{"T01"},
			wantSev:   []lint.Severity{lint.SeverityWarning},
		},
		{
			name:      "nil schema is disabled",
			wantRules: []string{"T01"},
			wantSev:   []lint.Severity{lint.SeverityWarning},
		},
		{
			name:      "disabled rule",
			schema:    static,
			config:    func(c *lint.Config) { c.Disable("T01") },
			wantRules: []string{"T02"},
			wantSev:   []lint.Severity{lint.SeverityInfo},
		},
		{
			name:      "severity override",
			schema:    static,
			config:    func(c *lint.Config) { c.SetSeverity("T01", lint.SeverityError) },
			wantRules: []string{"T01", "T02"},
			wantSev:   []lint.Severity{lint.SeverityError, lint.SeverityInfo},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := lint.NewConfig()
			if tt.config != nil {
				tt.config(cfg)
			}
			a := lint.NewAnalyzerWithRules(cfg, nil, rules)
			res := a.Analyze(context.Background(), newTarget(t, tt.schema))

			var gotRules []string
			var gotSev []lint.Severity
			for _, d := range res.Diagnostics {
				gotRules = append(gotRules, d.RuleID)
				gotSev = append(gotSev, d.Severity)
			}
			assert.Equal(t, tt.wantRules, gotRules)
			assert.Equal(t, tt.wantSev, gotSev)
			assert.Empty(t, res.Warnings)
		})
	}
}

func TestAnalyzer_Locations(t *testing.T) {
	a := lint.NewAnalyzerWithRules(nil, nil, []lint.Rule{lint.WrapRuleDef(starRule())})
	res := a.Analyze(context.Background(), newTarget(t, nil))

	require.Len(t, res.Diagnostics, 1)
	d := res.Diagnostics[0]
	assert.Equal(t, "star in users", d.Message)
	require.NotNil(t, d.Location)
	assert.Equal(t, "*", d.Location.Body)
	assert.Equal(t, hostText[d.Location.Begin:d.Location.End], d.Location.Body)
	assert.Equal(t, lint.BuildDocURL("T01"), d.DocumentationURL)
	assert.False(t, d.AutoFixable())
}

type failingSchema struct{ *schema.Static }

func (failingSchema) ColumnNames(context.Context, string) ([]string, error) {
	return nil, schema.Unavailable("users", errors.New("connection refused"))
}

func TestAnalyzer_SchemaFailureBecomesWarning(t *testing.T) {
	a := lint.NewAnalyzerWithRules(nil, nil, []lint.Rule{lint.WrapRuleDef(schemaRule())})
	res := a.Analyze(context.Background(), newTarget(t, failingSchema{schema.NewStatic()}))

	assert.Empty(t, res.Diagnostics)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "T02", res.Warnings[0].RuleID)
	assert.True(t, schema.IsUnavailable(res.Warnings[0].Err))
	assert.Contains(t, res.Warnings[0].String(), "schema lookup failed for table users")
}

func TestAnalyzer_NoQuery(t *testing.T) {
	a := lint.NewAnalyzerWithRules(nil, nil, []lint.Rule{lint.WrapRuleDef(starRule())})
	res := a.Analyze(context.Background(), lint.Target{})
	assert.Empty(t, res.Diagnostics)
	assert.Empty(t, res.Warnings)
}
