package callsite

import (
	"github.com/leapstack-labs/querylint/pkg/rewrite"
)

// Shift maps r through edits applied to its file.
func (r Range) Shift(edits []rewrite.Edit) (Range, bool) {
	if r.IsZero() {
		return r, true
	}
	begin, ok := rewrite.Shift(edits, r.Begin, true)
	if !ok {
		return Range{}, false
	}
	end, ok := rewrite.Shift(edits, r.End, false)
	if !ok || end < begin {
		return Range{}, false
	}
	return Range{Begin: begin, End: end}, true
}

// Shift returns a copy of c with every range mapped through edits applied to
// its file. It returns false when a fragment or the statement is cut by an
// edit. Loop facts whose ranges are cut are dropped from the copy.
func (c *CallSite) Shift(edits []rewrite.Edit) (*CallSite, bool) {
	out := *c
	out.Fragments = make([]Range, len(c.Fragments))
	for i, f := range c.Fragments {
		shifted, ok := f.Shift(edits)
		if !ok {
			return nil, false
		}
		out.Fragments[i] = shifted
	}
	var ok bool
	if out.Statement, ok = c.Statement.Shift(edits); !ok {
		return nil, false
	}
	if c.NPlusOne != nil {
		out.NPlusOne = c.NPlusOne.shift(edits)
	}
	return &out, true
}

func (np *NPlusOne) shift(edits []rewrite.Edit) *NPlusOne {
	out := &NPlusOne{InLoop: np.InLoop, Memoized: np.Memoized}
	if l := np.Loop; l != nil {
		if r, ok := l.Collection.Shift(edits); ok {
			out.Loop = &Loop{Kind: l.Kind, Collection: r, Variable: l.Variable}
		}
	}
	if a := np.Argument; a != nil {
		if r, ok := a.Range.Shift(edits); ok {
			cp := *a
			cp.Range = r
			out.Argument = &cp
		}
	}
	if s := np.Selector; s != nil {
		if r, ok := s.Range.Shift(edits); ok {
			out.Selector = &Selector{Range: r, Name: s.Name}
		}
	}
	if a := np.Assignment; a != nil {
		begin, ok1 := rewrite.Shift(edits, a.Begin, true)
		value, ok2 := rewrite.Shift(edits, a.ValueBegin, true)
		if ok1 && ok2 {
			cp := *a
			cp.Begin, cp.ValueBegin = begin, value
			out.Assignment = &cp
		}
	}
	return out
}
