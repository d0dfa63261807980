package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/querylint/pkg/callsite"
	"github.com/leapstack-labs/querylint/pkg/lint/rules"
	"github.com/leapstack-labs/querylint/pkg/location"
	"github.com/leapstack-labs/querylint/pkg/rewrite"
	"github.com/leapstack-labs/querylint/pkg/schema"
)

// DefaultMaxPasses bounds how often a file is re-analyzed after fixing.
const DefaultMaxPasses = 3

// FixOptions controls Fix.
type FixOptions struct {
	// MaxPasses bounds the analyze-and-apply rounds per file.
	MaxPasses int
	// DryRun computes diffs without writing files.
	DryRun bool
}

// FileFix is the outcome of fixing one file.
type FileFix struct {
	Path      string    `json:"path"`
	Passes    int       `json:"passes"`
	Applied   int       `json:"applied"`
	Remaining int       `json:"remaining"`
	Diff      string    `json:"diff,omitempty"`
	Written   bool      `json:"written"`
	Warnings  []Warning `json:"warnings,omitempty"`

	before string
	after  string
}

// Changed reports whether any fix was applied.
func (f FileFix) Changed() bool {
	return f.before != f.after
}

// Result returns the fixed file content.
func (f FileFix) Result() string {
	return f.after
}

// FixReport is the result of one fix run.
type FixReport struct {
	RunID  string    `json:"run_id"`
	DryRun bool      `json:"dry_run"`
	Files  []FileFix `json:"files"`
}

// Applied returns the number of fixes applied across files.
func (r *FixReport) Applied() int {
	n := 0
	for _, f := range r.Files {
		n += f.Applied
	}
	return n
}

// Fix applies the fixes of every file in m. Within one pass, fixes are
// accepted greedily in finding order and a fix that overlaps an accepted one
// waits for the next pass. Overlapping edits reaching Apply abort the run.
func (e *Engine) Fix(ctx context.Context, m *callsite.Manifest, opts FixOptions) (*FixReport, error) {
	passes := opts.MaxPasses
	if passes <= 0 {
		passes = DefaultMaxPasses
	}
	report := &FixReport{
		RunID:  uuid.NewString(),
		DryRun: opts.DryRun,
		Files:  make([]FileFix, len(m.Files)),
	}
	in := schema.NewCache(e.Introspector(ctx))
	log := e.logger.With("run_id", report.RunID)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, f := range m.Files {
		g.Go(func() error {
			path := m.ResolvePath(f)
			info, err := os.Stat(path)
			if err != nil {
				report.Files[i] = FileFix{Path: f.Path, Warnings: []Warning{{File: f.Path, Message: "failed to read file", Err: err}}}
				log.Warn("failed to read file", "file", f.Path, "error", err)
				return nil
			}
			data, err := os.ReadFile(path) //nolint:gosec // path comes from the manifest
			if err != nil {
				report.Files[i] = FileFix{Path: f.Path, Warnings: []Warning{{File: f.Path, Message: "failed to read file", Err: err}}}
				log.Warn("failed to read file", "file", f.Path, "error", err)
				return nil
			}

			ff, err := e.FixFile(gctx, f.Path, string(data), f.CallSites, in, passes)
			if err != nil {
				return err
			}
			if ff.Changed() {
				ff.Diff = diff(f.Path, ff.before, ff.after)
				if !opts.DryRun {
					if err := os.WriteFile(path, []byte(ff.after), info.Mode().Perm()); err != nil {
						return fmt.Errorf("failed to write %s: %w", f.Path, err)
					}
					ff.Written = true
				}
				log.Info("fixed file", "file", f.Path, "applied", ff.Applied, "passes", ff.Passes, "dry_run", opts.DryRun)
			}
			report.Files[i] = ff
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

// FixFile fixes text until no fix applies or passes run out. Call site
// ranges are carried across passes; a site cut by an edit is dropped.
func (e *Engine) FixFile(ctx context.Context, path, text string, sites []callsite.CallSite, in schema.Introspector, passes int) (FileFix, error) {
	ff := FileFix{Path: path, before: text, after: text}
	current := append([]callsite.CallSite(nil), sites...)

	for ff.Passes < passes && ctx.Err() == nil {
		res := e.AnalyzeFile(ctx, path, text, current, in)
		if ff.Passes == 0 {
			ff.Warnings = res.Warnings
		}
		ff.Passes++

		var groups [][]rewrite.Edit
		var owners []Finding
		for _, f := range res.Findings {
			if f.AutoFixable() {
				groups = append(groups, f.Fixes[0].Edits)
				owners = append(owners, f)
			}
		}
		accepted := rewrite.Select(groups)
		ff.Remaining = len(groups) - len(accepted)
		if len(accepted) == 0 {
			break
		}

		var edits []rewrite.Edit
		batched := make(map[int]bool)
		for _, i := range accepted {
			edits = append(edits, groups[i]...)
			if owners[i].RuleID == rules.NPlusOne.ID {
				batched[owners[i].site] = true
			}
		}
		out, err := rewrite.Apply(text, edits)
		if err != nil {
			return ff, fmt.Errorf("%s: %w", path, err)
		}
		ff.Applied += len(accepted)

		next := make([]callsite.CallSite, 0, len(current))
		for i := range current {
			shifted, ok := current[i].Shift(edits)
			if !ok {
				e.logger.Debug("call site dropped after fix", "file", path, "line", current[i].Line)
				continue
			}
			if len(shifted.Fragments) > 0 {
				shifted.Line = location.LineOf(out, shifted.Fragments[0].Begin)
			}
			// A batched lookup is now the memoized form and must not be
			// reported again.
			if batched[i] && shifted.NPlusOne != nil {
				shifted.NPlusOne.Memoized = true
			}
			next = append(next, *shifted)
		}
		current, text = next, out
		ff.after = text
	}
	return ff, nil
}

func diff(path, before, after string) string {
	out, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return out
}
