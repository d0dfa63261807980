package lint

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/querylint/pkg/callsite"
	"github.com/leapstack-labs/querylint/pkg/location"
	"github.com/leapstack-labs/querylint/pkg/parser"
	"github.com/leapstack-labs/querylint/pkg/query"
	"github.com/leapstack-labs/querylint/pkg/schema"
)

// Pass is the state handed to one rule for one call site.
type Pass struct {
	Query   *query.Model
	Mapper  *location.Mapper
	Schema  schema.Introspector
	Site    *callsite.CallSite
	Options map[string]any
	Logger  *slog.Logger

	ctx      context.Context
	rule     Rule
	severity Severity
	warnings []Warning
}

// Context returns the context of the analysis run.
func (p *Pass) Context() context.Context {
	if p.ctx == nil {
		return context.Background()
	}
	return p.ctx
}

// Text returns the whole host file.
func (p *Pass) Text() string {
	if p.Mapper == nil {
		return ""
	}
	return p.Mapper.Source().Text
}

// SchemaEnabled reports whether schema lookups can be attempted.
func (p *Pass) SchemaEnabled() bool {
	return p.Schema != nil && p.Schema.Enabled()
}

// Warn records a skipped check.
func (p *Pass) Warn(msg string, err error) {
	w := Warning{Message: msg, Err: err}
	if p.rule != nil {
		w.RuleID = p.rule.ID()
	}
	p.warnings = append(p.warnings, w)
	p.Log().Warn(msg, "error", err)
}

// Warnings returns the warnings recorded so far.
func (p *Pass) Warnings() []Warning {
	return p.warnings
}

// Log returns the pass logger, never nil.
func (p *Pass) Log() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.Logger
}

// Report builds a diagnostic of the current rule.
func (p *Pass) Report(loc *location.Location, format string, args ...any) Diagnostic {
	d := Diagnostic{
		Severity: p.severity,
		Message:  fmt.Sprintf(format, args...),
		Location: loc,
	}
	if p.rule != nil {
		d.RuleID = p.rule.ID()
		d.DocumentationURL = BuildDocURL(p.rule.ID())
	}
	return d
}

// Locate finds the next occurrence of snippet on axis. It returns nil when
// the snippet cannot be found.
func (p *Pass) Locate(axis location.Axis, snippet string) *location.Location {
	if p.Mapper == nil {
		return nil
	}
	loc, ok := p.Mapper.Locate(axis, snippet)
	if !ok {
		return nil
	}
	return &loc
}

// LocateFrom is Locate with the axis cursor first advanced to the SQL
// offset from.
func (p *Pass) LocateFrom(axis location.Axis, from int, snippet string) *location.Location {
	if p.Mapper == nil {
		return nil
	}
	p.Mapper.Advance(axis, from)
	return p.Locate(axis, snippet)
}

// LocateSpan maps a span of the normalized SQL to the host file.
func (p *Pass) LocateSpan(span parser.Span) *location.Location {
	if p.Mapper == nil {
		return nil
	}
	loc, ok := p.Mapper.LocateSpan(span.Start.Offset, span.End.Offset)
	if !ok {
		return nil
	}
	return &loc
}

// ColumnNames looks up the columns of table. Failures are recorded as
// warnings and reported as ok == false.
func (p *Pass) ColumnNames(table string) ([]string, bool) {
	return lookup(p, table, p.Schema.ColumnNames)
}

// PrimaryKeys looks up the primary key columns of table.
func (p *Pass) PrimaryKeys(table string) ([]string, bool) {
	return lookup(p, table, p.Schema.PrimaryKeys)
}

// Indexes looks up the secondary indexes of table.
func (p *Pass) Indexes(table string) ([]schema.Index, bool) {
	return lookup(p, table, p.Schema.Indexes)
}

func lookup[T any](p *Pass, table string, fn func(context.Context, string) (T, error)) (T, bool) {
	var zero T
	if !p.SchemaEnabled() {
		return zero, false
	}
	v, err := fn(p.Context(), table)
	if err != nil {
		p.Warn(fmt.Sprintf("schema lookup failed for table %s", table), err)
		return zero, false
	}
	return v, true
}
