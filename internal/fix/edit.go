// Package fix queues minimal byte-range edits against one file and
// applies them atomically. Edits never touch bytes outside their span, so
// surrounding comments, whitespace and line breaks survive verbatim.
package fix

import (
	"fmt"
	"sort"
)

// Edit replaces source[Start:End] with New. Half-open byte range.
type Edit struct {
	Start int
	End   int
	New   string
}

func (e Edit) String() string {
	return fmt.Sprintf("[%d,%d)->%q", e.Start, e.End, e.New)
}

// Set is an ordered collection of non-overlapping edits for a single
// file. The zero value is ready to use.
type Set struct {
	edits []Edit
}

func (s *Set) Len() int      { return len(s.edits) }
func (s *Set) Empty() bool   { return len(s.edits) == 0 }
func (s *Set) Edits() []Edit { return s.edits }

// Add inserts an edit, keeping the set sorted by start offset. Touching
// ranges are fine; overlapping ranges are rejected so a malformed rule can
// never produce a corrupted rewrite.
func (s *Set) Add(e Edit) error {
	if e.Start < 0 || e.End < e.Start {
		return fmt.Errorf("invalid edit range %s", e)
	}
	idx := sort.Search(len(s.edits), func(i int) bool {
		return s.edits[i].Start >= e.Start
	})
	if idx > 0 && s.edits[idx-1].End > e.Start {
		return fmt.Errorf("edit %s overlaps %s", e, s.edits[idx-1])
	}
	if idx < len(s.edits) && e.End > s.edits[idx].Start {
		return fmt.Errorf("edit %s overlaps %s", e, s.edits[idx])
	}
	s.edits = append(s.edits, Edit{})
	copy(s.edits[idx+1:], s.edits[idx:])
	s.edits[idx] = e
	return nil
}

// Merge adds every edit of other into s.
func (s *Set) Merge(other *Set) error {
	for _, e := range other.edits {
		if err := s.Add(e); err != nil {
			return err
		}
	}
	return nil
}

// Apply produces the rewritten source. The input is not modified.
func (s *Set) Apply(source []byte) ([]byte, error) {
	out := make([]byte, 0, len(source))
	last := 0
	for _, e := range s.edits {
		if e.End > len(source) {
			return nil, fmt.Errorf("edit %s out of bounds for %d-byte source", e, len(source))
		}
		out = append(out, source[last:e.Start]...)
		out = append(out, e.New...)
		last = e.End
	}
	out = append(out, source[last:]...)
	return out, nil
}
