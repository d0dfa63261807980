// Package lint runs performance rules against SQL call sites.
//
// # Rule Registration
//
// Rules register themselves from init() functions when their package is
// imported:
//
//	import _ "github.com/leapstack-labs/querylint/pkg/lint/rules"
//
// # Running Rules
//
// An Analyzer runs every enabled rule against one parsed call site and
// returns the diagnostics and the warnings of skipped checks:
//
//	analyzer := lint.NewAnalyzer(config, logger)
//	res := analyzer.Analyze(ctx, lint.Target{Query: q, Mapper: m, Schema: s, Site: site})
//
// Each rule receives a Pass. The Pass resolves SQL snippets to host file
// locations and wraps schema lookups so that a failed lookup becomes a
// Warning instead of an error.
//
// # Configuration
//
//	config := lint.NewConfig()
//	config.Disable("PF03")
//	config.SetSeverity("PF05", lint.SeverityError)
//	config.SetRuleOptions("PF04", map[string]any{"threshold": 6, "comparator": ">="})
//
// # Fixes
//
// A Diagnostic may carry Fixes. The edits of one Fix are computed against the
// original file offsets and are applied together with rewrite.Apply.
package lint
