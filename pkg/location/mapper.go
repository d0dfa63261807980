package location

import (
	"fmt"
	"strings"
)

// Axis selects one of the Mapper's independent search cursors.
type Axis int

// Search axes.
const (
	// AxisOperation is used for WHERE and JOIN conditions.
	AxisOperation Axis = iota
	// AxisExpression is used for columns and other expressions.
	AxisExpression

	axisCount
)

// segment is one fragment's contribution to the SQL text.
type segment struct {
	sqlStart int
	sqlEnd   int
	lines    []line
}

// line maps the start of one line of a fragment value back to the file.
type line struct {
	valStart int // offset within the SQL text
	srcStart int // offset within the host file
}

// Mapper resolves SQL snippets to host file locations. Searches are
// forward-only per axis: each match moves that axis' cursor past it, so a
// repeated snippet resolves to its next occurrence.
type Mapper struct {
	src      Source
	sql      string
	search   string
	segments []segment
	cursors  [axisCount]int
}

// NewMapper assembles the SQL text of src. It returns ErrNonStringSQL when
// the shape carries no static text.
func NewMapper(src Source) (*Mapper, error) {
	if !src.Shape.IsStatic() {
		return nil, ErrNonStringSQL
	}
	if len(src.Fragments) == 0 {
		return nil, fmt.Errorf("%s source has no fragments", src.Shape)
	}
	if src.Shape == ShapeLiteral && len(src.Fragments) != 1 {
		return nil, fmt.Errorf("literal source must have exactly one fragment, got %d", len(src.Fragments))
	}
	for _, f := range src.Fragments {
		if f.Begin < 0 || f.End < f.Begin || f.End > len(src.Text) {
			return nil, fmt.Errorf("fragment [%d,%d) outside source of length %d", f.Begin, f.End, len(src.Text))
		}
	}

	m := &Mapper{src: src}
	indent := 0
	if src.Shape == ShapeHeredoc && src.Squiggly {
		indent = heredocIndent(src)
	}

	var b strings.Builder
	for _, f := range src.Fragments {
		seg := segment{sqlStart: b.Len()}
		raw := src.Text[f.Begin:f.End]
		atLineStart := f.Begin == 0 || src.Text[f.Begin-1] == '\n'

		pos := 0
		for pos <= len(raw) {
			nl := strings.IndexByte(raw[pos:], '\n')
			end := len(raw)
			if nl >= 0 {
				end = pos + nl + 1
			}
			text := raw[pos:end]
			removed := 0
			if atLineStart && indent > 0 {
				removed = leadingSpace(text, indent)
			}
			seg.lines = append(seg.lines, line{valStart: b.Len(), srcStart: f.Begin + pos + removed})
			b.WriteString(text[removed:])

			if nl < 0 {
				break
			}
			pos = end
			atLineStart = true
		}
		seg.sqlEnd = b.Len()
		m.segments = append(m.segments, seg)
	}

	m.sql = b.String()
	m.search = m.sql
	return m, nil
}

// heredocIndent returns the smallest indentation of the non-blank lines that
// start inside the heredoc fragments.
func heredocIndent(src Source) int {
	indent := -1
	for _, f := range src.Fragments {
		raw := src.Text[f.Begin:f.End]
		atLineStart := f.Begin == 0 || src.Text[f.Begin-1] == '\n'
		for i, text := range strings.SplitAfter(raw, "\n") {
			if i > 0 {
				atLineStart = true
			}
			if !atLineStart || strings.TrimSpace(text) == "" {
				continue
			}
			w := leadingSpace(text, len(text))
			if indent < 0 || w < indent {
				indent = w
			}
		}
	}
	if indent < 0 {
		return 0
	}
	return indent
}

// leadingSpace counts up to limit leading spaces or tabs.
func leadingSpace(s string, limit int) int {
	n := 0
	for n < len(s) && n < limit && (s[n] == ' ' || s[n] == '\t') {
		n++
	}
	return n
}

// SQL returns the SQL text assembled from the fragments.
func (m *Mapper) SQL() string {
	return m.sql
}

// Source returns the mapped source.
func (m *Mapper) Source() Source {
	return m.src
}

// UseNormalized makes searches run against a length-preserving normalization
// of SQL().
func (m *Mapper) UseNormalized(normalized string) error {
	if len(normalized) != len(m.sql) {
		return fmt.Errorf("normalized sql length %d differs from source sql length %d", len(normalized), len(m.sql))
	}
	m.search = normalized
	return nil
}

// Reset moves every cursor back to the start of the SQL text.
func (m *Mapper) Reset() {
	m.cursors = [axisCount]int{}
}

// Advance moves the axis cursor to off unless it is already past it.
func (m *Mapper) Advance(axis Axis, off int) {
	if axis < 0 || axis >= axisCount {
		return
	}
	if off > m.cursors[axis] {
		m.cursors[axis] = off
	}
}

// Locate finds the next occurrence of snippet at or after the axis cursor and
// returns its location in the host file. The cursor only advances on a match.
func (m *Mapper) Locate(axis Axis, snippet string) (Location, bool) {
	if snippet == "" || axis < 0 || axis >= axisCount {
		return Location{}, false
	}
	from := m.cursors[axis]
	if from > len(m.search) {
		return Location{}, false
	}
	idx := strings.Index(m.search[from:], snippet)
	if idx < 0 {
		return Location{}, false
	}
	begin := from + idx
	end := begin + len(snippet)

	loc, ok := m.LocateSpan(begin, end)
	if !ok {
		return Location{}, false
	}
	m.cursors[axis] = end
	return loc, true
}

// LocateSpan maps the SQL range [begin, end) to the host file without moving
// any cursor. Backticks directly around the range in the file are included,
// since normalization turned them into spaces outside the range.
func (m *Mapper) LocateSpan(begin, end int) (Location, bool) {
	if begin < 0 || end > len(m.sql) || begin >= end {
		return Location{}, false
	}
	srcBegin, ok := m.toSource(begin)
	if !ok {
		return Location{}, false
	}
	last, ok := m.toSource(end - 1)
	if !ok {
		return Location{}, false
	}
	srcEnd := last + 1

	text := m.src.Text
	if srcBegin > 0 && text[srcBegin-1] == '`' && m.search[begin] != ' ' {
		srcBegin--
	}
	if srcEnd < len(text) && text[srcEnd] == '`' && m.search[end-1] != ' ' {
		srcEnd++
	}
	return Location{Begin: srcBegin, End: srcEnd, Body: text[srcBegin:srcEnd]}, true
}

// toSource maps one SQL offset to its file offset by finding the fragment that
// holds it and then the line within that fragment.
func (m *Mapper) toSource(off int) (int, bool) {
	for _, seg := range m.segments {
		if off < seg.sqlStart || off >= seg.sqlEnd {
			continue
		}
		ln := seg.lines[0]
		for _, l := range seg.lines[1:] {
			if l.valStart > off {
				break
			}
			ln = l
		}
		return ln.srcStart + (off - ln.valStart), true
	}
	return 0, false
}
