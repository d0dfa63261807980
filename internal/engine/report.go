package engine

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/leapstack-labs/querylint/pkg/lint"
)

// Report is the result of one analysis run.
type Report struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration_ns"`
	Manifest   string        `json:"manifest,omitempty"`
	Schema     bool          `json:"schema_enabled"`
	Files      []FileResult  `json:"files"`
	CallSites  int           `json:"call_sites"`
	SkippedSQL int           `json:"skipped_sql"`
}

// FileResult holds the findings of one host file.
type FileResult struct {
	Path     string    `json:"path"`
	Findings []Finding `json:"findings"`
	Warnings []Warning `json:"warnings,omitempty"`

	text      string
	siteCount int
}

// Finding is a diagnostic tied to a file and line.
type Finding struct {
	File string `json:"file"`
	Line int    `json:"line"`
	lint.Diagnostic

	site int // index of the call site in its file
}

// Warning is a recovered failure: the call site or check it names was
// skipped and the run continued.
type Warning struct {
	File    string `json:"file"`
	Line    int    `json:"line,omitempty"`
	RuleID  string `json:"rule_id,omitempty"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (w Warning) String() string {
	prefix := w.File
	if w.Line > 0 {
		prefix = fmt.Sprintf("%s:%d", w.File, w.Line)
	}
	if w.RuleID != "" {
		prefix += " " + w.RuleID
	}
	if w.Err == nil {
		return prefix + ": " + w.Message
	}
	return prefix + ": " + w.Message + ": " + w.Err.Error()
}

// MarshalJSON adds the error text.
func (w Warning) MarshalJSON() ([]byte, error) {
	type plain Warning
	out := struct {
		plain
		Error string `json:"error,omitempty"`
	}{plain: plain(w)}
	if w.Err != nil {
		out.Error = w.Err.Error()
	}
	return json.Marshal(out)
}

// Findings returns every finding ordered by file, line and rule.
func (r *Report) Findings() []Finding {
	var all []Finding
	for _, f := range r.Files {
		all = append(all, f.Findings...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.RuleID < b.RuleID
	})
	return all
}

// Warnings returns every warning in file order.
func (r *Report) Warnings() []Warning {
	var all []Warning
	for _, f := range r.Files {
		all = append(all, f.Warnings...)
	}
	return all
}

// Counts returns the number of findings per severity.
func (r *Report) Counts() map[lint.Severity]int {
	counts := make(map[lint.Severity]int)
	for _, f := range r.Files {
		for _, d := range f.Findings {
			counts[d.Severity]++
		}
	}
	return counts
}

// Fixable returns the number of findings that carry a fix.
func (r *Report) Fixable() int {
	n := 0
	for _, f := range r.Files {
		for _, d := range f.Findings {
			if d.AutoFixable() {
				n++
			}
		}
	}
	return n
}

// Exceeds reports whether any finding is at least as severe as threshold.
func (r *Report) Exceeds(threshold lint.Severity) bool {
	for _, f := range r.Files {
		for _, d := range f.Findings {
			if d.Severity <= threshold {
				return true
			}
		}
	}
	return false
}
