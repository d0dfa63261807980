// Package callsite describes SQL call sites found in host source files.
//
// A host-language scanner writes a manifest listing, per file, every call that
// passes SQL text to the database: how the SQL argument is written, where its
// literal fragments are, and the structural facts the N+1 rule needs about the
// surrounding code. querylint never parses host code itself.
package callsite

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/querylint/pkg/location"
)

// Range is a half-open byte range [Begin, End) of a host file.
type Range struct {
	Begin int `yaml:"begin" json:"begin"`
	End   int `yaml:"end" json:"end"`
}

// Text returns the bytes of text covered by r, or "" when r is out of range.
func (r Range) Text(text string) string {
	if !r.Valid(len(text)) {
		return ""
	}
	return text[r.Begin:r.End]
}

// Valid reports whether r lies within a file of length n.
func (r Range) Valid(n int) bool {
	return r.Begin >= 0 && r.Begin <= r.End && r.End <= n
}

// IsZero reports whether r was left unset.
func (r Range) IsZero() bool {
	return r.Begin == 0 && r.End == 0
}

// CallSite is one SQL call in a host file.
type CallSite struct {
	Line   int    `yaml:"line" json:"line"`
	Method string `yaml:"method" json:"method"`

	// Shape is literal, concat, heredoc, variable or unrecognized.
	Shape     string  `yaml:"shape" json:"shape"`
	Fragments []Range `yaml:"fragments" json:"fragments"`
	Squiggly  bool    `yaml:"squiggly" json:"squiggly,omitempty"`

	// Statement spans the host statement holding the call. Fixes that add
	// lines insert them before Statement.Begin.
	Statement Range `yaml:"statement" json:"statement"`

	// CommentPrefix starts a line comment in the host language. Defaults to "#".
	CommentPrefix string `yaml:"comment_prefix" json:"comment_prefix,omitempty"`

	NPlusOne *NPlusOne `yaml:"n_plus_one" json:"n_plus_one,omitempty"`
}

// NPlusOne carries the host code structure around a call that may run once
// per row of an outer result.
type NPlusOne struct {
	// InLoop is set when the call runs inside a loop keyword, an iteration
	// method call or a block-based loop idiom.
	InLoop bool `yaml:"in_loop" json:"in_loop"`

	// Memoized is set when the call is already the batch side of an
	// "@var ||= call" memoization.
	Memoized bool `yaml:"memoized" json:"memoized,omitempty"`

	Loop       *Loop       `yaml:"loop" json:"loop,omitempty"`
	Argument   *Argument   `yaml:"argument" json:"argument,omitempty"`
	Selector   *Selector   `yaml:"selector" json:"selector,omitempty"`
	Assignment *Assignment `yaml:"assignment" json:"assignment,omitempty"`
}

// Loop is the innermost loop enclosing the call.
type Loop struct {
	Kind       string `yaml:"kind" json:"kind,omitempty"` // each, map, while, ...
	Collection Range  `yaml:"collection" json:"collection"`
	Variable   string `yaml:"variable" json:"variable"`
}

// Access styles of a per-row field read.
const (
	AccessBracket = "bracket" // row[:key]
	AccessFetch   = "fetch"   // row.fetch(:key)
)

// Key kinds of a per-row field read.
const (
	KeySymbol = "symbol"
	KeyString = "string"
)

// Argument is the bind argument that follows the SQL text.
type Argument struct {
	Range    Range  `yaml:"range" json:"range"`
	Receiver string `yaml:"receiver" json:"receiver"`
	Access   string `yaml:"access" json:"access"`
	Key      string `yaml:"key" json:"key"`
	KeyKind  string `yaml:"key_kind" json:"key_kind"`
}

// IsFieldAccess reports whether the argument reads one field of variable by
// bracket index or fetch, with a symbol or string key.
func (a *Argument) IsFieldAccess(variable string) bool {
	if a == nil || a.Key == "" || a.Receiver != variable {
		return false
	}
	if a.Access != AccessBracket && a.Access != AccessFetch {
		return false
	}
	return a.KeyKind == KeySymbol || a.KeyKind == KeyString
}

// KeyLiteral renders name as a key in the argument's key style.
func (a *Argument) KeyLiteral(name string) string {
	if a.KeyKind == KeyString {
		return "'" + strings.ReplaceAll(name, "'", `\'`) + "'"
	}
	return ":" + name
}

// Read renders a read of name from receiver in the argument's access style.
func (a *Argument) Read(receiver, name string) string {
	if a.Access == AccessFetch {
		return receiver + ".fetch(" + a.KeyLiteral(name) + ")"
	}
	return receiver + "[" + a.KeyLiteral(name) + "]"
}

// Selector is the method chained onto the call result, such as ".first".
// Range covers the dot and the method name.
type Selector struct {
	Range Range  `yaml:"range" json:"range"`
	Name  string `yaml:"name" json:"name"`
}

// Assignment kinds.
const (
	AssignLocal    = "local"    // x = call
	AssignInstance = "instance" // @x = call
	AssignMultiple = "multiple" // a, b = call
	AssignOr       = "or"       // x ||= call
)

// Assignment describes "target = value" when the call is its value.
type Assignment struct {
	Kind   string `yaml:"kind" json:"kind"`
	Target string `yaml:"target" json:"target"`
	// Begin is the offset of the target; ValueBegin the offset of the value.
	Begin      int `yaml:"begin" json:"begin"`
	ValueBegin int `yaml:"value_begin" json:"value_begin"`
}

// Comment returns the line comment prefix, defaulting to "#".
func (c *CallSite) Comment() string {
	if c.CommentPrefix == "" {
		return "#"
	}
	return c.CommentPrefix
}

// Source builds the location.Source of the call's SQL argument in text.
func (c *CallSite) Source(text string) (location.Source, error) {
	shape, err := location.ParseShape(c.Shape)
	if err != nil {
		return location.Source{}, err
	}
	src := location.Source{Text: text, Shape: shape, Squiggly: c.Squiggly}
	for _, f := range c.Fragments {
		src.Fragments = append(src.Fragments, location.Fragment{Begin: f.Begin, End: f.End})
	}
	return src, nil
}

// Validate checks every range of c against a file of length n.
func (c *CallSite) Validate(n int) error {
	if _, err := location.ParseShape(c.Shape); err != nil {
		return err
	}
	for _, f := range c.Fragments {
		if !f.Valid(n) {
			return fmt.Errorf("line %d: fragment [%d,%d) outside file of length %d", c.Line, f.Begin, f.End, n)
		}
	}
	if !c.Statement.Valid(n) {
		return fmt.Errorf("line %d: statement [%d,%d) outside file of length %d", c.Line, c.Statement.Begin, c.Statement.End, n)
	}
	if np := c.NPlusOne; np != nil {
		ranges := map[string]Range{}
		if np.Loop != nil {
			ranges["loop collection"] = np.Loop.Collection
		}
		if np.Argument != nil {
			ranges["argument"] = np.Argument.Range
		}
		if np.Selector != nil {
			ranges["selector"] = np.Selector.Range
		}
		if np.Assignment != nil {
			ranges["assignment"] = Range{Begin: np.Assignment.Begin, End: np.Assignment.ValueBegin}
		}
		for name, r := range ranges {
			if !r.Valid(n) {
				return fmt.Errorf("line %d: %s [%d,%d) outside file of length %d", c.Line, name, r.Begin, r.End, n)
			}
		}
	}
	return nil
}
