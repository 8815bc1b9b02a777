package spatial

// Stamp deduplicates indices across cells without allocating a set. Each
// query bumps the generation; an index is new if its mark differs from the
// current generation. Marks are only cleared when the counter wraps.
type Stamp struct {
	marks []uint32
	gen   uint32
}

// Resize grows the mark array to hold at least n indices.
func (s *Stamp) Resize(n int) {
	if n > len(s.marks) {
		s.marks = append(s.marks, make([]uint32, n-len(s.marks))...)
	}
}

// Next starts a new query.
func (s *Stamp) Next() {
	s.gen++
	if s.gen == 0 {
		clear(s.marks)
		s.gen = 1
	}
}

// Mark reports whether i is seen for the first time in this query and
// records it. Indices beyond the array grow it.
func (s *Stamp) Mark(i int) bool {
	if i >= len(s.marks) {
		s.Resize(i + 1)
	}
	if s.marks[i] == s.gen {
		return false
	}
	s.marks[i] = s.gen
	return true
}

// Generation exposes the current query generation.
func (s *Stamp) Generation() uint32 { return s.gen }
