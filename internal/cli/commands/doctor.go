package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/querylint/internal/cli/output"
	"github.com/leapstack-labs/querylint/pkg/location"
	"github.com/leapstack-labs/querylint/pkg/parser"
)

// Health check statuses.
const (
	statusPass  = "pass"
	statusWarn  = "warn"
	statusError = "error"
)

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the manifest, host files and schema are usable",
		Long: `Check the querylint setup before relying on its findings.

The doctor command loads the manifest, reads every host file, connects to
the schema source and runs one analysis, then reports:
- Project summary (files, call sites, schema source, rules)
- Health checks grouped by category (Setup, Queries, Schema)
- Health score (0-100)
- Actionable recommendations`,
		Example: `  querylint doctor
  querylint doctor -o json`,
		RunE: runDoctor,
	}
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Summary         ProjectSummary `json:"summary"`
	HealthChecks    []HealthCheck  `json:"health_checks"`
	Score           int            `json:"score"`
	Recommendations []string       `json:"recommendations"`
	IssueCount      int            `json:"issue_count"`
}

// ProjectSummary contains project-level statistics.
type ProjectSummary struct {
	Root      string `json:"root"`
	Manifest  string `json:"manifest"`
	Files     int    `json:"files"`
	CallSites int    `json:"call_sites"`
	Schema    string `json:"schema"`
	Rules     int    `json:"rules"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Group      string   `json:"group"`
	Status     string   `json:"status"`
	IssueCount int      `json:"issue_count"`
	Details    []string `json:"details,omitempty"`
}

func (h *HealthCheck) fail(status, detail string) {
	if h.Status != statusError {
		h.Status = status
	}
	h.IssueCount++
	h.Details = append(h.Details, detail)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cc, cleanup, err := NewCommandContext(cmd, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	cfg := cc.Cfg
	out := &DoctorOutput{Summary: ProjectSummary{
		Root:     cfg.ProjectRoot,
		Manifest: cfg.Manifest,
		Rules:    len(cc.Engine.Rules()),
	}}

	checks := map[string]*HealthCheck{}
	var order []string
	check := func(id, name, group string) *HealthCheck {
		h := &HealthCheck{ID: id, Name: name, Group: group, Status: statusPass}
		checks[id] = h
		order = append(order, id)
		return h
	}
	manifestCheck := check("manifest", "Manifest loads", "setup")
	hostCheck := check("host_files", "Host files readable", "setup")
	staticCheck := check("static_sql", "SQL arguments are static strings", "queries")
	parseCheck := check("sql_parses", "SQL parses", "queries")
	schemaCheck := check("schema", "Schema available", "schema")
	coverageCheck := check("schema_coverage", "Schema covers queried tables", "schema")

	in := cc.Engine.Introspector(ctx)
	switch {
	case cfg.SchemaFile != "":
		out.Summary.Schema = "schema_file " + cfg.SchemaFile
	case !cfg.Database.Adapter().IsZero():
		out.Summary.Schema = "database " + cfg.Database.Adapter().Type
		if _, err := cc.Engine.Adapter(ctx); err != nil {
			schemaCheck.fail(statusError, err.Error())
		}
	default:
		out.Summary.Schema = "none"
	}
	if !in.Enabled() && schemaCheck.Status == statusPass {
		schemaCheck.fail(statusWarn, "no schema_file or database configured; PF02 and PF03 are skipped")
	}

	m, err := loadManifest(cfg)
	if err != nil {
		manifestCheck.fail(statusError, err.Error())
	} else {
		out.Summary.Files = len(m.Files)
		out.Summary.CallSites = m.CallSiteCount()
		for _, p := range m.Paths() {
			if _, err := os.Stat(p); err != nil {
				hostCheck.fail(statusError, err.Error())
			}
		}

		report, err := cc.Engine.Analyze(ctx, m)
		if err != nil {
			return err
		}
		for _, w := range report.Warnings() {
			var pe *parser.ParseError
			switch {
			case errors.Is(w.Err, location.ErrNonStringSQL):
				staticCheck.fail(statusWarn, w.String())
			case errors.As(w.Err, &pe):
				parseCheck.fail(statusError, w.String())
			case w.RuleID != "":
				coverageCheck.fail(statusWarn, w.String())
			case w.Line > 0:
				// Unreadable files were reported by the stat above.
				hostCheck.fail(statusError, w.String())
			}
		}
	}

	for _, id := range order {
		h := checks[id]
		out.HealthChecks = append(out.HealthChecks, *h)
		out.IssueCount += h.IssueCount
	}
	out.Score = calculateHealthScore(out.HealthChecks, out.Summary.CallSites)
	out.Recommendations = generateRecommendations(out.HealthChecks)

	if cc.Renderer.EffectiveMode() == output.ModeJSON {
		return cc.Renderer.JSON(out)
	}
	return renderDoctorText(cc.Renderer, out)
}

// calculateHealthScore computes a health score from 0-100. Errors weigh
// double, and each issue weighs less as the number of call sites grows.
func calculateHealthScore(checks []HealthCheck, siteCount int) int {
	score := 100.0
	penalty := 5.0
	switch {
	case siteCount > 100:
		penalty = 1.0
	case siteCount > 50:
		penalty = 2.0
	case siteCount > 10:
		penalty = 3.0
	}

	for _, c := range checks {
		switch c.Status {
		case statusError:
			score -= float64(c.IssueCount) * penalty * 2
		case statusWarn:
			score -= float64(c.IssueCount) * penalty
		}
	}
	return int(max(0, min(100, score)))
}

func generateRecommendations(checks []HealthCheck) []string {
	var recs []string
	for _, c := range checks {
		if c.IssueCount == 0 {
			continue
		}
		if rec := recommendation(c.ID); rec != "" {
			recs = append(recs, rec)
		}
	}
	return recs
}

func recommendation(id string) string {
	switch id {
	case "manifest":
		return "Regenerate the manifest with your host scanner or pass --manifest"
	case "host_files":
		return "Regenerate the manifest: some host files moved or changed since it was written"
	case "static_sql":
		return "Inline SQL built in variables so its call sites can be checked"
	case "sql_parses":
		return "Fix or simplify the SQL that does not parse; it is skipped by every rule"
	case "schema":
		return "Set schema_file or database.url so the index rules can run"
	case "schema_coverage":
		return "Add the missing tables to schema.yaml or migrate the verification database"
	}
	return ""
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) error {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header.Render("querylint Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Println("")

	r.Println(styles.Bold.Render("Project Summary"))
	r.Printf("   Manifest: %s\n", out.Summary.Manifest)
	r.Printf("   Files: %d | Call sites: %d | Rules: %d\n", out.Summary.Files, out.Summary.CallSites, out.Summary.Rules)
	r.Printf("   Schema: %s\n", out.Summary.Schema)
	r.Println("")

	r.Println(styles.Bold.Render("Health Checks"))
	currentGroup := ""
	for _, c := range out.HealthChecks {
		if c.Group != currentGroup {
			currentGroup = c.Group
			r.Println("")
			r.Println(styles.Bold.Render("   " + groupTitle.String(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.Success.Render("✓")
		switch c.Status {
		case statusWarn:
			icon = styles.Warning.Render("!")
		case statusError:
			icon = styles.Error.Render("✗")
		}
		line := fmt.Sprintf("%s %s", icon, c.Name)
		if c.IssueCount > 0 {
			line += fmt.Sprintf(" (%s)", plural(c.IssueCount, "issue"))
		}
		r.Println("   " + line)

		for i, detail := range c.Details {
			if i >= 3 {
				r.Println(styles.Muted.Render(fmt.Sprintf("       ... and %d more", len(c.Details)-3)))
				break
			}
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}
	r.Println("")

	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	scoreStyle := styles.Success
	if out.Score < 70 {
		scoreStyle = styles.Warning
	}
	if out.Score < 50 {
		scoreStyle = styles.Error
	}
	r.Printf("   Health Score: %s\n", scoreStyle.Render(fmt.Sprintf("%d/100", out.Score)))
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println(styles.Bold.Render("Recommendations"))
		for i, rec := range out.Recommendations {
			r.Printf("   %d. %s\n", i+1, rec)
		}
		r.Println("")
	}
	return nil
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
