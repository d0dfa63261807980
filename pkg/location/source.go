// Package location maps SQL text back to byte ranges of the host source file.
//
// The host reports how a SQL argument is written (a Shape) and where each
// literal fragment lives in the file. A Mapper assembles the SQL text from the
// fragments and, given a snippet of the normalized SQL, finds the exact bytes
// of the original file that produced it.
package location

import (
	"errors"
	"fmt"
	"strings"
)

// Shape is the syntactic form of the SQL argument in host code.
type Shape int

// Recognized source shapes.
const (
	ShapeUnrecognized Shape = iota
	ShapeLiteral            // a single quoted string
	ShapeConcat             // adjacent or +-joined string literals
	ShapeHeredoc            // a heredoc body, possibly split in fragments
	ShapeVariable           // a variable or runtime-built string
)

var shapeNames = map[Shape]string{
	ShapeUnrecognized: "unrecognized",
	ShapeLiteral:      "literal",
	ShapeConcat:       "concat",
	ShapeHeredoc:      "heredoc",
	ShapeVariable:     "variable",
}

func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Shape(%d)", int(s))
}

// ParseShape converts a manifest shape name to a Shape.
func ParseShape(name string) (Shape, error) {
	for s, n := range shapeNames {
		if strings.EqualFold(n, name) {
			return s, nil
		}
	}
	return ShapeUnrecognized, fmt.Errorf("unknown source shape %q", name)
}

// IsStatic reports whether the shape carries readable SQL text.
func (s Shape) IsStatic() bool {
	return s == ShapeLiteral || s == ShapeConcat || s == ShapeHeredoc
}

// ErrNonStringSQL is returned when the SQL argument is not a static string.
var ErrNonStringSQL = errors.New("sql argument is not a static string")

// Fragment is the byte range [Begin, End) of one literal's content in the
// host file, quotes excluded.
type Fragment struct {
	Begin int `yaml:"begin" json:"begin"`
	End   int `yaml:"end" json:"end"`
}

// Source describes a SQL argument inside a host file.
type Source struct {
	Text      string // whole host file
	Shape     Shape
	Fragments []Fragment

	// Squiggly marks an indentation-stripping heredoc (<<~). The common
	// leading whitespace of its non-blank lines is not part of the SQL text.
	Squiggly bool
}

// Location is a byte range of the host file. Body always equals
// Text[Begin:End] of the Source it was resolved against.
type Location struct {
	Begin int    `json:"begin"`
	End   int    `json:"end"`
	Body  string `json:"body"`
}

// Len returns End - Begin.
func (l Location) Len() int {
	return l.End - l.Begin
}

// LineOf returns the 1-based line number of offset in text.
func LineOf(text string, offset int) int {
	if offset > len(text) {
		offset = len(text)
	}
	return strings.Count(text[:offset], "\n") + 1
}

// LineStart returns the offset of the first byte of the line holding offset.
func LineStart(text string, offset int) int {
	if offset > len(text) {
		offset = len(text)
	}
	return strings.LastIndexByte(text[:offset], '\n') + 1
}

// Indentation returns the leading whitespace of the line holding offset.
func Indentation(text string, offset int) string {
	start := LineStart(text, offset)
	end := start
	for end < len(text) && (text[end] == ' ' || text[end] == '\t') {
		end++
	}
	return text[start:end]
}
