// Package rewrite applies text edits to a source buffer in one pass.
//
// Every edit is expressed against offsets of the original buffer, so edits
// never need renumbering. Overlapping edits are a programming error and make
// Apply fail without producing output.
package rewrite

import (
	"fmt"
	"sort"
	"strings"
)

// Edit replaces the bytes [Begin, End) with Text. Begin == End inserts Text
// before Begin.
type Edit struct {
	Begin int    `json:"begin"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// Replace returns an edit replacing [begin, end) with text.
func Replace(begin, end int, text string) Edit {
	return Edit{Begin: begin, End: end, Text: text}
}

// InsertBefore returns an edit inserting text before pos.
func InsertBefore(pos int, text string) Edit {
	return Edit{Begin: pos, End: pos, Text: text}
}

// IsInsert reports whether the edit removes nothing.
func (e Edit) IsInsert() bool {
	return e.Begin == e.End
}

func (e Edit) String() string {
	if e.IsInsert() {
		return fmt.Sprintf("insert@%d(%q)", e.Begin, e.Text)
	}
	return fmt.Sprintf("replace[%d,%d)(%q)", e.Begin, e.End, e.Text)
}

// Overlaps reports whether applying both edits is ambiguous. Inserts only
// conflict with replacements that strictly contain their position.
func (e Edit) Overlaps(o Edit) bool {
	switch {
	case e.IsInsert() && o.IsInsert():
		return false
	case e.IsInsert():
		return o.Begin < e.Begin && e.Begin < o.End
	case o.IsInsert():
		return e.Begin < o.Begin && o.Begin < e.End
	}
	return e.Begin < o.End && o.Begin < e.End
}

// OverlapError reports two edits that touch the same bytes.
type OverlapError struct {
	First  Edit
	Second Edit
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("overlapping edits: %s and %s", e.First, e.Second)
}

// RangeError reports an edit outside the buffer.
type RangeError struct {
	Edit Edit
	Len  int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("edit %s outside buffer of length %d", e.Edit, e.Len)
}

// sorted orders edits by position. At equal positions inserts come first,
// and inserts keep their relative order.
func sorted(edits []Edit) []Edit {
	out := make([]Edit, len(edits))
	copy(out, edits)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Begin != out[j].Begin {
			return out[i].Begin < out[j].Begin
		}
		return out[i].IsInsert() && !out[j].IsInsert()
	})
	return out
}

// Validate checks that edits fit a buffer of length n and do not overlap.
func Validate(n int, edits []Edit) error {
	ordered := sorted(edits)
	for i, e := range ordered {
		if e.Begin < 0 || e.End < e.Begin || e.End > n {
			return &RangeError{Edit: e, Len: n}
		}
		for _, later := range ordered[i+1:] {
			if later.Begin >= e.End && !e.IsInsert() {
				break
			}
			if e.Overlaps(later) {
				return &OverlapError{First: e, Second: later}
			}
		}
	}
	return nil
}

// Apply returns src with all edits applied.
func Apply(src string, edits []Edit) (string, error) {
	if err := Validate(len(src), edits); err != nil {
		return "", err
	}
	var b strings.Builder
	b.Grow(len(src))
	pos := 0
	for _, e := range sorted(edits) {
		b.WriteString(src[pos:e.Begin])
		b.WriteString(e.Text)
		pos = e.End
	}
	b.WriteString(src[pos:])
	return b.String(), nil
}

// Select picks, in order, the edit groups that do not overlap any group
// picked before them. It returns the indexes of the accepted groups. Groups
// that overlap internally are never accepted.
func Select(groups [][]Edit) []int {
	var accepted []int
	var taken []Edit
	for i, g := range groups {
		if Validate(maxEnd(g), g) != nil {
			continue
		}
		if conflicts(taken, g) {
			continue
		}
		accepted = append(accepted, i)
		taken = append(taken, g...)
	}
	return accepted
}

func maxEnd(edits []Edit) int {
	n := 0
	for _, e := range edits {
		if e.End > n {
			n = e.End
		}
	}
	return n
}

func conflicts(taken, group []Edit) bool {
	for _, a := range taken {
		for _, b := range group {
			if a.Overlaps(b) {
				return true
			}
		}
	}
	return false
}

// Shift maps offset off of the original buffer to the buffer Apply produces
// from edits. An insert at off counts as before off when before is set, so
// a range [b, e) maps with Shift(b, true) and Shift(e, false). ok is false
// when off lies strictly inside a replaced range.
func Shift(edits []Edit, off int, before bool) (int, bool) {
	delta := 0
	for _, e := range edits {
		switch {
		case e.IsInsert():
			if e.Begin < off || (e.Begin == off && before) {
				delta += len(e.Text)
			}
		case e.End <= off:
			delta += len(e.Text) - (e.End - e.Begin)
		case e.Begin < off:
			return 0, false
		}
	}
	return off + delta, true
}
