package rules

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/querylint/pkg/lint"
)

func init() {
	lint.Register(ManyJoin)
}

// ManyJoin defaults.
const (
	DefaultJoinThreshold  = 4
	DefaultJoinComparator = ">"
)

// ManyJoin flags statements that read too many tables.
var ManyJoin = lint.RuleDef{
	ID:          "PF04",
	Name:        "performance.many_join",
	Group:       "performance",
	Description: "Statement joins too many tables.",
	Severity:    lint.SeverityWarning,
	Check:       checkManyJoin,
	ConfigKeys:  []string{"threshold", "comparator"},

	Rationale: `Every additional table multiplies the plans the optimizer must consider and
the rows the executor must match. Hot paths that join many tables are a common
source of slow queries under load.`,

	BadExample: `SELECT * FROM a JOIN b ON b.a_id = a.id JOIN c ON c.b_id = b.id
  JOIN d ON d.c_id = c.id JOIN e ON e.d_id = d.id`,

	GoodExample: `-- denormalize the values read on the hot path, or split the query`,

	Fix: "Denormalize, cache, or split the query. Raise threshold or use comparator \">=\" to tune.",
}

// compare applies a threshold comparator.
func compare(comparator string, n, threshold int) (bool, error) {
	switch comparator {
	case ">":
		return n > threshold, nil
	case ">=":
		return n >= threshold, nil
	}
	return false, fmt.Errorf("unknown comparator %q, want \">\" or \">=\"", comparator)
}

func checkManyJoin(p *lint.Pass) []lint.Diagnostic {
	threshold := lint.GetIntOption(p.Options, "threshold", DefaultJoinThreshold)
	comparator := lint.GetStringOption(p.Options, "comparator", DefaultJoinComparator)

	tables := p.Query.TableNames()
	exceeded, err := compare(comparator, len(tables), threshold)
	if err != nil {
		p.Warn("invalid PF04 configuration, using \">\"", err)
		comparator = DefaultJoinComparator
		exceeded, _ = compare(comparator, len(tables), threshold)
	}
	if !exceeded {
		return nil
	}

	loc := p.LocateSpan(p.Query.Statement().GetSpan())
	if loc == nil {
		return nil
	}
	d := p.Report(loc, "This query reads %d tables (%s %d): %s",
		len(tables), comparator, threshold, strings.Join(tables, ", "))
	d.ImpactScore = lint.ImpactMedium.Int()
	return []lint.Diagnostic{d}
}
