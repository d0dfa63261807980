package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/querylint/internal/cli/output"
	"github.com/leapstack-labs/querylint/pkg/lint"
	_ "github.com/leapstack-labs/querylint/pkg/lint/rules" // register rules
)

// RulesOptions holds options for the rules command.
type RulesOptions struct {
	Group   string // Filter by group
	Verbose bool   // Show full documentation
}

// RulesJSONOutput is the JSON output structure for rules listing.
type RulesJSONOutput struct {
	Rules []lint.RuleInfo `json:"rules"`
	Count int             `json:"count"`
}

var groupTitle = cases.Title(language.English)

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	opts := &RulesOptions{}
	cmd := &cobra.Command{
		Use:   "rules [rule-id]",
		Short: "List available lint rules",
		Long: `List all available lint rules with their documentation.

Rules are organized by group. Use --verbose to see the rationale of each
rule, or pass a rule ID for its full documentation.`,
		Example: `  # List all rules
  querylint rules

  # Show details for a specific rule
  querylint rules PF05

  # Output as JSON
  querylint rules -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return showRule(cmd, args[0])
			}
			return listRules(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Group, "group", "g", "", "Filter by group")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "V", false, "Show full documentation")

	_ = cmd.RegisterFlagCompletionFunc("group", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return lint.Groups(), cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func listRules(cmd *cobra.Command, opts *RulesOptions) error {
	r := NewCommandContextWithoutEngine(cmd).Renderer

	var infos []lint.RuleInfo
	for _, rule := range lint.AllRules() {
		if opts.Group != "" && rule.Group() != opts.Group {
			continue
		}
		infos = append(infos, lint.GetRuleInfo(rule))
	}
	if opts.Group != "" && len(infos) == 0 {
		return fmt.Errorf("no rules in group %q (groups: %s)", opts.Group, strings.Join(lint.Groups(), ", "))
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		if infos == nil {
			infos = []lint.RuleInfo{}
		}
		return r.JSON(RulesJSONOutput{Rules: infos, Count: len(infos)})
	case output.ModeTable:
		rows := make([]table.Row, 0, len(infos))
		for _, ri := range infos {
			rows = append(rows, table.Row{ri.ID, ri.Name, groupTitle.String(ri.Group), ri.DefaultSeverity.String(), ri.NeedsSchema, strings.Join(ri.ConfigKeys, ", ")})
		}
		r.Table(table.Row{"ID", "Name", "Group", "Severity", "Schema", "Options"}, rows)
		return nil
	}

	styles := r.Styles()
	r.Println("")
	r.Println(styles.Header.Render(fmt.Sprintf("Lint Rules (%d)", len(infos))))
	r.Println("")

	currentGroup := ""
	for _, ri := range infos {
		if ri.Group != currentGroup {
			currentGroup = ri.Group
			r.Println(styles.Bold.Render("  " + groupTitle.String(currentGroup)))
		}
		line := fmt.Sprintf("    %s  %s - %s",
			styles.Muted.Render(ri.ID),
			ri.Name,
			styles.Severity(ri.DefaultSeverity).Render(ri.DefaultSeverity.String()))
		if ri.NeedsSchema {
			line += styles.Muted.Render(" (needs schema)")
		}
		r.Println(line)

		if opts.Verbose {
			r.Println(styles.Muted.Render("        " + ri.Description))
			if ri.Rationale != "" {
				r.Println(styles.Muted.Render("        Why: " + truncateOneLine(ri.Rationale, 80)))
			}
			r.Println("")
		}
	}

	r.Println("")
	r.Println(styles.Muted.Render("Use 'querylint rules <rule-id>' for detailed documentation"))
	return nil
}

func showRule(cmd *cobra.Command, ruleID string) error {
	r := NewCommandContextWithoutEngine(cmd).Renderer

	rule, ok := lint.GetRuleByID(strings.ToUpper(ruleID))
	if !ok {
		return fmt.Errorf("rule %q not found", ruleID)
	}
	ri := lint.GetRuleInfo(rule)

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(ri)
	}

	styles := r.Styles()
	r.Println("")
	r.Println(styles.Header.Render(fmt.Sprintf("%s - %s", ri.ID, ri.Name)))
	r.Println("")
	r.Printf("  %s: %s\n", styles.Bold.Render("Group"), groupTitle.String(ri.Group))
	r.Printf("  %s: %s\n", styles.Bold.Render("Severity"), ri.DefaultSeverity.String())
	if ri.NeedsSchema {
		r.Printf("  %s: %s\n", styles.Bold.Render("Schema"), "required (schema_file or database)")
	}
	r.Println("")

	r.Println(styles.Bold.Render("Description"))
	r.Println("  " + ri.Description)
	r.Println("")

	sections := []struct {
		title string
		body  string
		style func(...string) string
	}{
		{"Why This Matters", ri.Rationale, nil},
		{"Bad Example", ri.BadExample, styles.Muted.Render},
		{"Good Example", ri.GoodExample, styles.Success.Render},
		{"How to Fix", ri.Fix, nil},
	}
	for _, s := range sections {
		if s.body == "" {
			continue
		}
		r.Println(styles.Bold.Render(s.title))
		for _, line := range strings.Split(s.body, "\n") {
			if s.style != nil {
				line = s.style(line)
			}
			r.Println("  " + line)
		}
		r.Println("")
	}

	if len(ri.ConfigKeys) > 0 {
		r.Println(styles.Bold.Render("Configuration"))
		r.Printf("  lint.rules.%s: %s\n", ri.ID, strings.Join(ri.ConfigKeys, ", "))
		r.Println("")
	}
	r.Printf("  %s: %s\n", styles.Bold.Render("Docs"), ri.DocumentationURL)
	return nil
}

func truncateOneLine(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
