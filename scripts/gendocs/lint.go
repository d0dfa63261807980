package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/querylint/pkg/lint"
	_ "github.com/leapstack-labs/querylint/pkg/lint/rules"
)

// groupDescriptions provides human-readable descriptions for rule groups.
var groupDescriptions = map[string]string{
	"performance": "Rules about queries that read more rows or columns than they need, or run more often than they must.",
}

var title = cases.Title(language.English)

// generateLintDocs writes the rule overview and one page per rule, matching
// the links built by lint.BuildDocURL.
func generateLintDocs(outDir string) error {
	log.Printf("Generating lint docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	rules := lint.AllRules()
	if err := generateLintIndex(outDir, rules); err != nil {
		return err
	}
	log.Printf("  Generated index.md")

	for _, r := range rules {
		name := strings.ToLower(r.ID()) + ".md"
		if err := generateRulePage(filepath.Join(outDir, name), lint.GetRuleInfo(r)); err != nil {
			return err
		}
		log.Printf("  Generated %s", name)
	}
	return nil
}

// generateLintIndex generates the rules overview page.
func generateLintIndex(outDir string, rules []lint.Rule) error {
	w := NewMarkdownWriter()

	w.Frontmatter("Rules", "Performance rules checked by querylint")
	w.GeneratedMarker()

	w.Header(1, "Rules")
	w.Paragraph(fmt.Sprintf("querylint checks embedded SQL against **%d rules**. Rules marked with a schema requirement run only when `schema_file` or `database` is configured.", len(rules)))

	w.Header(2, "Severity Levels")
	w.Table(
		[]string{"Severity", "Description"},
		[][]string{
			{InlineCode("error"), "Critical issue that should be fixed"},
			{InlineCode("warning"), "Potential issue that should be reviewed"},
			{InlineCode("info"), "Informational feedback"},
			{InlineCode("hint"), "Suggestion for improvement"},
		},
	)

	for _, group := range lint.Groups() {
		w.Header(2, title.String(group))
		if desc, ok := groupDescriptions[group]; ok {
			w.Paragraph(desc)
		}
		var rows [][]string
		for _, r := range lint.GetRulesByGroup(group) {
			info := lint.GetRuleInfo(r)
			schema := ""
			if info.NeedsSchema {
				schema = "yes"
			}
			link := fmt.Sprintf("[%s](%s.md)", info.ID, strings.ToLower(info.ID))
			rows = append(rows, []string{link, InlineCode(info.Name), InlineCode(info.DefaultSeverity.String()), schema})
		}
		w.Table([]string{"ID", "Name", "Severity", "Needs Schema"}, rows)
	}

	w.Header(2, "Configuration")
	w.Paragraph("Rules are selected and tuned in `querylint.yaml`:")
	w.CodeBlock("yaml", `lint:
  disabled_rules: [PF04]   # never run
  severity:
    PF02: error            # override severity
  rules:
    PF04:
      threshold: 6         # rule-specific option`)

	return os.WriteFile(filepath.Join(outDir, "index.md"), w.Bytes(), 0600)
}

// generateRulePage writes the page for a single rule.
func generateRulePage(filename string, info lint.RuleInfo) error {
	w := NewMarkdownWriter()

	w.Frontmatter(info.ID+" "+info.Name, info.Description)
	w.GeneratedMarker()

	w.Header(1, fmt.Sprintf("%s - %s", info.ID, info.Name))

	w.Line(fmt.Sprintf("**Group:** %s", title.String(info.Group)))
	w.Line(fmt.Sprintf("**Severity:** %s", InlineCode(info.DefaultSeverity.String())))
	if info.NeedsSchema {
		w.Line("**Needs schema:** yes")
	}
	w.Newline()

	w.Paragraph(cleanDescription(info.Description))

	if info.Rationale != "" {
		w.Header(2, "Why This Matters")
		w.Paragraph(info.Rationale)
	}
	if info.BadExample != "" {
		w.Header(2, "Bad")
		w.CodeBlock("sql", info.BadExample)
	}
	if info.GoodExample != "" {
		w.Header(2, "Good")
		w.CodeBlock("sql", info.GoodExample)
	}
	if info.Fix != "" {
		w.Header(2, "How to Fix")
		w.Paragraph(info.Fix)
	}
	if len(info.ConfigKeys) > 0 {
		w.Header(2, "Configuration")
		w.Paragraph(fmt.Sprintf("Set under %s: %s",
			InlineCode("lint.rules."+info.ID), InlineCode(strings.Join(info.ConfigKeys, ", "))))
	}

	return os.WriteFile(filename, w.Bytes(), 0600)
}
