package wave

// Sequence replays a generated period forever, one set-point at a time.
type Sequence struct {
	points []Point
	pos    int
	cycles int
}

// NewSequence creates a sequence for kind.
func (g Generator) NewSequence(kind Kind, p Params) *Sequence {
	return &Sequence{points: g.Generate(kind, p)}
}

// Next returns the next set-point, wrapping after the last one.
func (s *Sequence) Next() Point {
	pt := s.points[s.pos]
	s.pos++
	if s.pos == len(s.points) {
		s.pos = 0
		s.cycles++
	}
	return pt
}

// Len returns the number of set-points per period.
func (s *Sequence) Len() int {
	return len(s.points)
}

// Cycles returns how many full periods were replayed.
func (s *Sequence) Cycles() int {
	return s.cycles
}
