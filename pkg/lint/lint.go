package lint

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/querylint/pkg/location"
	"github.com/leapstack-labs/querylint/pkg/rewrite"
)

// Severity indicates the importance of a diagnostic.
type Severity int

// Severity levels for diagnostics.
const (
	// SeverityError indicates a critical issue that should be fixed.
	SeverityError Severity = iota
	// SeverityWarning indicates a potential issue that should be reviewed.
	SeverityWarning
	// SeverityInfo indicates informational feedback.
	SeverityInfo
	// SeverityHint indicates a suggestion for improvement.
	SeverityHint
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// ParseSeverity converts a string to a Severity value.
// Returns SeverityWarning and false for unknown names.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return SeverityError, true
	case "warning", "warn":
		return SeverityWarning, true
	case "info":
		return SeverityInfo, true
	case "hint":
		return SeverityHint, true
	default:
		return SeverityWarning, false
	}
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Diagnostic is one finding at a call site.
type Diagnostic struct {
	RuleID   string   `json:"rule_id"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`

	// Location is the offending source range, nil when it could not be
	// resolved.
	Location *location.Location `json:"location,omitempty"`
	Fixes    []Fix              `json:"fixes,omitempty"`

	DocumentationURL string `json:"documentation_url,omitempty"`
	ImpactScore      int    `json:"impact_score,omitempty"`
}

// AutoFixable reports whether the diagnostic carries at least one fix.
func (d Diagnostic) AutoFixable() bool {
	return len(d.Fixes) > 0
}

// Fix is a set of edits that must be applied together.
type Fix struct {
	Description string         `json:"description"`
	Edits       []rewrite.Edit `json:"edits"`
}

// Warning reports a call site or check that was skipped, such as SQL that
// does not parse or a table missing from the schema.
type Warning struct {
	RuleID  string `json:"rule_id,omitempty"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (w Warning) String() string {
	if w.Err == nil {
		return w.Message
	}
	return fmt.Sprintf("%s: %v", w.Message, w.Err)
}
