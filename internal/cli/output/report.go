package output

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/querylint/internal/engine"
	"github.com/leapstack-labs/querylint/pkg/lint"
)

// Summary aggregates an analysis run.
type Summary struct {
	Files         int   `json:"files"`
	CallSites     int   `json:"call_sites"`
	Findings      int   `json:"findings"`
	Errors        int   `json:"errors"`
	Warnings      int   `json:"warnings"`
	Info          int   `json:"info"`
	Hints         int   `json:"hints"`
	Fixable       int   `json:"fixable"`
	SkippedSQL    int   `json:"skipped_sql"`
	SchemaEnabled bool  `json:"schema_enabled"`
	DurationMS    int64 `json:"duration_ms"`
}

// FindingOutput is one finding in JSON output.
type FindingOutput struct {
	File             string `json:"file"`
	Line             int    `json:"line"`
	RuleID           string `json:"rule_id"`
	Severity         string `json:"severity"`
	Message          string `json:"message"`
	Begin            int    `json:"begin,omitempty"`
	End              int    `json:"end,omitempty"`
	Fixable          bool   `json:"fixable"`
	DocumentationURL string `json:"documentation_url,omitempty"`
	ImpactScore      int    `json:"impact_score,omitempty"`
}

// ReportOutput is the JSON form of an analysis run.
type ReportOutput struct {
	RunID    string           `json:"run_id"`
	Summary  Summary          `json:"summary"`
	Findings []FindingOutput  `json:"findings"`
	Warnings []engine.Warning `json:"warnings"`
}

// Summarize computes the summary of rep.
func Summarize(rep *engine.Report) Summary {
	counts := rep.Counts()
	s := Summary{
		Files:         len(rep.Files),
		CallSites:     rep.CallSites,
		Errors:        counts[lint.SeverityError],
		Warnings:      counts[lint.SeverityWarning],
		Info:          counts[lint.SeverityInfo],
		Hints:         counts[lint.SeverityHint],
		Fixable:       rep.Fixable(),
		SkippedSQL:    rep.SkippedSQL,
		SchemaEnabled: rep.Schema,
		DurationMS:    rep.Duration.Milliseconds(),
	}
	s.Findings = s.Errors + s.Warnings + s.Info + s.Hints
	return s
}

// RenderReport writes an analysis run in the renderer's mode.
func RenderReport(r *Renderer, rep *engine.Report) error {
	switch r.EffectiveMode() {
	case ModeJSON:
		return r.JSON(reportJSON(rep))
	case ModeTable:
		renderReportTable(r, rep)
	default:
		renderReportText(r, rep)
	}
	return nil
}

func reportJSON(rep *engine.Report) ReportOutput {
	out := ReportOutput{
		RunID:    rep.RunID,
		Summary:  Summarize(rep),
		Findings: []FindingOutput{},
		Warnings: rep.Warnings(),
	}
	if out.Warnings == nil {
		out.Warnings = []engine.Warning{}
	}
	for _, f := range rep.Findings() {
		fo := FindingOutput{
			File:             f.File,
			Line:             f.Line,
			RuleID:           f.RuleID,
			Severity:         f.Severity.String(),
			Message:          f.Message,
			Fixable:          f.AutoFixable(),
			DocumentationURL: f.DocumentationURL,
			ImpactScore:      f.ImpactScore,
		}
		if f.Location != nil {
			fo.Begin, fo.End = f.Location.Begin, f.Location.End
		}
		out.Findings = append(out.Findings, fo)
	}
	return out
}

func renderReportText(r *Renderer, rep *engine.Report) {
	st := r.Styles()
	for _, w := range rep.Warnings() {
		r.Warning(w.String())
	}

	findings := rep.Findings()
	if len(findings) == 0 {
		r.Success(fmt.Sprintf("No issues found in %d call sites", rep.CallSites))
		return
	}

	file := ""
	for _, f := range findings {
		if f.File != file {
			if file != "" {
				r.Println("")
			}
			file = f.File
			r.Println(st.Path.Render(file))
		}
		sev := fmt.Sprintf("%-7s", f.Severity.String())
		line := fmt.Sprintf("  %s  %s  %s  %s",
			st.Muted.Render(fmt.Sprintf("%4d", f.Line)),
			st.Severity(f.Severity).Render(sev),
			st.Bold.Render(f.RuleID),
			f.Message)
		if f.AutoFixable() {
			line += " " + st.Muted.Render("[fixable]")
		}
		r.Println(line)
	}
	r.Println("")
	r.Println(summaryLine(Summarize(rep)))
}

func summaryLine(s Summary) string {
	parts := []string{plural(s.Findings, "issue")}
	for _, c := range []struct {
		n    int
		name string
	}{
		{s.Errors, "error"},
		{s.Warnings, "warning"},
		{s.Info, "info"},
		{s.Hints, "hint"},
	} {
		if c.n > 0 {
			parts = append(parts, plural(c.n, c.name))
		}
	}
	line := fmt.Sprintf("Summary: %s in %s", strings.Join(parts, ", "), plural(s.Files, "file"))
	if s.Fixable > 0 {
		line += fmt.Sprintf(" (%d fixable with 'querylint fix')", s.Fixable)
	}
	return line
}

func plural(n int, word string) string {
	switch {
	case n == 1 || word == "info":
		return fmt.Sprintf("%d %s", n, word)
	case strings.HasSuffix(word, "s"), strings.HasSuffix(word, "x"):
		return fmt.Sprintf("%d %ses", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func renderReportTable(r *Renderer, rep *engine.Report) {
	var rows []table.Row
	for _, f := range rep.Findings() {
		fix := ""
		if f.AutoFixable() {
			fix = "yes"
		}
		rows = append(rows, table.Row{f.File, f.Line, f.Severity.String(), f.RuleID, f.Message, fix})
	}
	r.Table(table.Row{"File", "Line", "Severity", "Rule", "Message", "Fix"}, rows)
	for _, w := range rep.Warnings() {
		r.Warning(w.String())
	}
	r.Println(summaryLine(Summarize(rep)))
}

// RenderFixReport writes a fix run. Diffs are shown for dry runs, or always
// when showDiff is set.
func RenderFixReport(r *Renderer, rep *engine.FixReport, showDiff bool) error {
	switch r.EffectiveMode() {
	case ModeJSON:
		return r.JSON(rep)
	case ModeTable:
		var rows []table.Row
		for _, f := range rep.Files {
			rows = append(rows, table.Row{f.Path, f.Applied, f.Passes, f.Remaining, strconv.FormatBool(f.Written)})
		}
		r.Table(table.Row{"File", "Applied", "Passes", "Remaining", "Written"}, rows)
	default:
		st := r.Styles()
		for _, f := range rep.Files {
			for _, w := range f.Warnings {
				r.Warning(w.String())
			}
			if f.Applied == 0 {
				continue
			}
			if (rep.DryRun || showDiff) && f.Diff != "" {
				renderDiff(r, f.Diff)
			}
			verb := "fixed"
			if rep.DryRun {
				verb = "would fix"
			}
			r.Printf("%s %s: %s in %s\n", verb, st.Path.Render(f.Path), plural(f.Applied, "fix"), plural(f.Passes, "pass"))
			if f.Remaining > 0 {
				r.Println(st.Muted.Render(fmt.Sprintf("  %d fixes left after the last pass, run again", f.Remaining)))
			}
		}
	}

	if rep.Applied() == 0 {
		r.Success("Nothing to fix")
		return nil
	}
	if rep.DryRun {
		r.Printf("Dry run: %s not written\n", plural(rep.Applied(), "fix"))
	}
	return nil
}

func renderDiff(r *Renderer, diff string) {
	st := r.Styles()
	for _, line := range strings.Split(strings.TrimSuffix(diff, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			r.Println(st.Bold.Render(line))
		case strings.HasPrefix(line, "+"):
			r.Println(st.Added.Render(line))
		case strings.HasPrefix(line, "-"):
			r.Println(st.Removed.Render(line))
		case strings.HasPrefix(line, "@@"):
			r.Println(st.Info.Render(line))
		default:
			r.Println(line)
		}
	}
}
