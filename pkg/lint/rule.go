package lint

// Rule is the interface all lint rules implement.
type Rule interface {
	// ID returns the unique identifier, e.g., "PF01"
	ID() string

	// Name returns the human-readable name, e.g., "performance.select_asterisk"
	Name() string

	// Group returns the category, e.g., "performance"
	Group() string

	Description() string
	DefaultSeverity() Severity

	// ConfigKeys returns the option keys this rule reads from lint.rules.<ID>.
	ConfigKeys() []string

	// NeedsSchema reports whether the rule depends on schema introspection.
	NeedsSchema() bool

	// Check analyzes one call site.
	Check(p *Pass) []Diagnostic

	// Documentation
	Rationale() string
	BadExample() string
	GoodExample() string
	Fix() string
}

// CheckFunc analyzes one call site.
type CheckFunc func(p *Pass) []Diagnostic

// RuleDef is a data-driven rule definition. Rules are stateless; all context
// comes through the Pass.
type RuleDef struct {
	ID          string    // Unique identifier, e.g., "PF01"
	Name        string    // Human-readable name
	Group       string    // Category, e.g., "performance"
	Description string    // Human-readable description
	Severity    Severity  // Default severity
	Check       CheckFunc // The check function
	ConfigKeys  []string  // Option keys this rule accepts
	NeedsSchema bool      // Schema introspection required

	// Documentation fields
	Rationale   string
	BadExample  string
	GoodExample string
	Fix         string
}

// wrappedRuleDef adapts a RuleDef to Rule.
type wrappedRuleDef struct {
	def RuleDef
}

// WrapRuleDef wraps a RuleDef to implement Rule.
func WrapRuleDef(def RuleDef) Rule {
	return &wrappedRuleDef{def: def}
}

func (w *wrappedRuleDef) ID() string                { return w.def.ID }
func (w *wrappedRuleDef) Name() string              { return w.def.Name }
func (w *wrappedRuleDef) Group() string             { return w.def.Group }
func (w *wrappedRuleDef) Description() string       { return w.def.Description }
func (w *wrappedRuleDef) DefaultSeverity() Severity { return w.def.Severity }
func (w *wrappedRuleDef) ConfigKeys() []string      { return w.def.ConfigKeys }
func (w *wrappedRuleDef) NeedsSchema() bool         { return w.def.NeedsSchema }

func (w *wrappedRuleDef) Rationale() string   { return w.def.Rationale }
func (w *wrappedRuleDef) BadExample() string  { return w.def.BadExample }
func (w *wrappedRuleDef) GoodExample() string { return w.def.GoodExample }
func (w *wrappedRuleDef) Fix() string         { return w.def.Fix }

func (w *wrappedRuleDef) Check(p *Pass) []Diagnostic {
	if w.def.Check == nil {
		return nil
	}
	return w.def.Check(p)
}

// Unwrap returns the underlying RuleDef.
func (w *wrappedRuleDef) Unwrap() RuleDef {
	return w.def
}

// RuleInfo provides metadata about a rule for documentation and tooling.
type RuleInfo struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Group            string   `json:"group"`
	Description      string   `json:"description"`
	DefaultSeverity  Severity `json:"default_severity"`
	ConfigKeys       []string `json:"config_keys,omitempty"`
	NeedsSchema      bool     `json:"needs_schema"`
	DocumentationURL string   `json:"documentation_url"`

	Rationale   string `json:"rationale,omitempty"`
	BadExample  string `json:"bad_example,omitempty"`
	GoodExample string `json:"good_example,omitempty"`
	Fix         string `json:"fix,omitempty"`
}

// GetRuleInfo extracts metadata from a Rule.
func GetRuleInfo(r Rule) RuleInfo {
	return RuleInfo{
		ID:               r.ID(),
		Name:             r.Name(),
		Group:            r.Group(),
		Description:      r.Description(),
		DefaultSeverity:  r.DefaultSeverity(),
		ConfigKeys:       r.ConfigKeys(),
		NeedsSchema:      r.NeedsSchema(),
		DocumentationURL: BuildDocURL(r.ID()),
		Rationale:        r.Rationale(),
		BadExample:       r.BadExample(),
		GoodExample:      r.GoodExample(),
		Fix:              r.Fix(),
	}
}
