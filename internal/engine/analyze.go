package engine

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/querylint/pkg/callsite"
	"github.com/leapstack-labs/querylint/pkg/lint"
	"github.com/leapstack-labs/querylint/pkg/location"
	"github.com/leapstack-labs/querylint/pkg/parser"
	"github.com/leapstack-labs/querylint/pkg/query"
	"github.com/leapstack-labs/querylint/pkg/schema"
)

// Analyze runs the rules over every call site of m. Recoverable failures
// become warnings; only context cancellation aborts the run.
func (e *Engine) Analyze(ctx context.Context, m *callsite.Manifest) (*Report, error) {
	start := time.Now()
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: start,
		Files:     make([]FileResult, len(m.Files)),
	}

	// One cache per run: lookups are shared across files but never outlive
	// the run, so schema changes between runs are always seen.
	in := schema.NewCache(e.Introspector(ctx))
	report.Schema = in.Enabled()

	log := e.logger.With("run_id", report.RunID)
	log.Info("analysis started", "files", len(m.Files), "call_sites", m.CallSiteCount(), "schema", report.Schema)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, f := range m.Files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path := m.ResolvePath(f)
			data, err := os.ReadFile(path) //nolint:gosec // path comes from the manifest
			if err != nil {
				report.Files[i] = FileResult{Path: f.Path, siteCount: len(f.CallSites), Warnings: []Warning{{
					File: f.Path, Message: "failed to read file", Err: err,
				}}}
				log.Warn("failed to read file", "file", f.Path, "error", err)
				return nil
			}
			report.Files[i] = e.AnalyzeFile(gctx, f.Path, string(data), f.CallSites, in)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, f := range report.Files {
		report.CallSites += f.siteCount
		for _, w := range f.Warnings {
			if errors.Is(w.Err, location.ErrNonStringSQL) {
				report.SkippedSQL++
			}
		}
	}
	report.Duration = time.Since(start)
	log.Info("analysis finished",
		"findings", len(report.Findings()),
		"warnings", len(report.Warnings()),
		"duration", report.Duration)
	return report, nil
}

// AnalyzeFile runs the rules over the call sites of one file whose content
// is text. Call sites are analyzed in order.
func (e *Engine) AnalyzeFile(ctx context.Context, path, text string, sites []callsite.CallSite, in schema.Introspector) FileResult {
	res := FileResult{Path: path, text: text, Findings: []Finding{}}
	for i := range sites {
		if ctx.Err() != nil {
			break
		}
		e.analyzeSite(ctx, &res, i, &sites[i], in)
	}
	res.siteCount = len(sites)
	return res
}

func (e *Engine) analyzeSite(ctx context.Context, res *FileResult, index int, site *callsite.CallSite, in schema.Introspector) {
	warn := func(msg string, err error) {
		res.Warnings = append(res.Warnings, Warning{File: res.Path, Line: site.Line, Message: msg, Err: err})
		e.logger.Debug(msg, "file", res.Path, "line", site.Line, "error", err)
	}

	if err := site.Validate(len(res.text)); err != nil {
		warn("invalid call site", err)
		return
	}

	target, err := e.target(site, res.text)
	switch {
	case errors.Is(err, location.ErrNonStringSQL):
		warn("SQL is not a static string, skipped", err)
		return
	case err != nil:
		var pe *parser.ParseError
		if errors.As(err, &pe) {
			warn("failed to parse SQL, skipped", err)
		} else {
			warn("failed to read SQL", err)
		}
		return
	}
	target.Schema = in

	result := e.analyzer.Analyze(ctx, target)
	for _, d := range result.Diagnostics {
		line := site.Line
		if d.Location != nil {
			line = location.LineOf(res.text, d.Location.Begin)
		}
		res.Findings = append(res.Findings, Finding{File: res.Path, Line: line, Diagnostic: d, site: index})
	}
	for _, w := range result.Warnings {
		res.Warnings = append(res.Warnings, Warning{
			File: res.Path, Line: site.Line, RuleID: w.RuleID, Message: w.Message, Err: w.Err,
		})
		e.logger.Debug(w.Message, "file", res.Path, "line", site.Line, "rule", w.RuleID, "error", w.Err)
	}
}

// target maps and parses the SQL argument of site.
func (e *Engine) target(site *callsite.CallSite, text string) (lint.Target, error) {
	src, err := site.Source(text)
	if err != nil {
		return lint.Target{}, err
	}
	m, err := location.NewMapper(src)
	if err != nil {
		return lint.Target{}, err
	}

	normalized, err := parser.NormalizeWith(m.SQL(), e.placeholder)
	if err != nil {
		return lint.Target{}, err
	}
	if err := m.UseNormalized(normalized); err != nil {
		return lint.Target{}, err
	}

	q, err := query.Parse(m.SQL(), e.placeholder)
	if err != nil {
		return lint.Target{}, err
	}
	return lint.Target{Query: q, Mapper: m, Site: site}, nil
}
