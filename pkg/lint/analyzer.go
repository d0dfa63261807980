package lint

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/querylint/pkg/callsite"
	"github.com/leapstack-labs/querylint/pkg/location"
	"github.com/leapstack-labs/querylint/pkg/query"
	"github.com/leapstack-labs/querylint/pkg/schema"
)

// Target is one parsed call site.
type Target struct {
	Query  *query.Model
	Mapper *location.Mapper
	Schema schema.Introspector
	Site   *callsite.CallSite
}

// Result holds what the rules reported for one Target.
type Result struct {
	Diagnostics []Diagnostic
	Warnings    []Warning
}

// Analyzer runs the registered rules against call sites.
type Analyzer struct {
	config *Config
	logger *slog.Logger
	rules  []Rule
}

// NewAnalyzer creates an analyzer over every registered rule.
func NewAnalyzer(config *Config, logger *slog.Logger) *Analyzer {
	return NewAnalyzerWithRules(config, logger, AllRules())
}

// NewAnalyzerWithRules creates an analyzer over an explicit rule set.
func NewAnalyzerWithRules(config *Config, logger *slog.Logger, rules []Rule) *Analyzer {
	if config == nil {
		config = NewConfig()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Analyzer{config: config, logger: logger, rules: rules}
}

// Rules returns the rules that are not disabled.
func (a *Analyzer) Rules() []Rule {
	var enabled []Rule
	for _, rule := range a.rules {
		if !a.config.IsDisabled(rule.ID()) {
			enabled = append(enabled, rule)
		}
	}
	return enabled
}

// Analyze runs every enabled rule against t. Rules that need a schema are
// skipped when t.Schema is disabled.
func (a *Analyzer) Analyze(ctx context.Context, t Target) Result {
	var res Result
	if t.Query == nil {
		return res
	}
	if t.Schema == nil {
		t.Schema = schema.Disabled{}
	}

	for _, rule := range a.Rules() {
		if rule.NeedsSchema() && !t.Schema.Enabled() {
			continue
		}
		if t.Mapper != nil {
			t.Mapper.Reset()
		}

		severity := a.config.GetSeverity(rule.ID(), rule.DefaultSeverity())
		p := &Pass{
			Query:    t.Query,
			Mapper:   t.Mapper,
			Schema:   t.Schema,
			Site:     t.Site,
			Options:  a.config.GetRuleOptions(rule.ID()),
			Logger:   a.logger.With("rule", rule.ID()),
			ctx:      ctx,
			rule:     rule,
			severity: severity,
		}

		diags := rule.Check(p)
		for i := range diags {
			diags[i].Severity = a.config.GetSeverity(rule.ID(), diags[i].Severity)
		}
		res.Diagnostics = append(res.Diagnostics, diags...)
		res.Warnings = append(res.Warnings, p.Warnings()...)
	}
	return res
}
