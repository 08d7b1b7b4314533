package domain

// Series keeps the best-of-N score of one match.
type Series struct {
	Round       int
	TotalRounds int
	XWins       int
	OWins       int
}

func NewSeries(totalRounds int) Series {
	return Series{Round: 1, TotalRounds: totalRounds}
}

func (s Series) WinsNeeded() int {
	return s.TotalRounds/2 + 1
}

// RecordRound credits the round winner; a draw (Empty) credits nobody.
func (s *Series) RecordRound(winner Mark) {
	switch winner {
	case X:
		s.XWins++
	case O:
		s.OWins++
	}
}

// IsOver is checked after RecordRound, before advancing the round.
func (s Series) IsOver() bool {
	need := s.WinsNeeded()
	return s.XWins >= need || s.OWins >= need || s.Round >= s.TotalRounds
}

// Winner of the whole series: strictly more round wins, otherwise Empty (draw).
func (s Series) Winner() Mark {
	switch {
	case s.XWins > s.OWins:
		return X
	case s.OWins > s.XWins:
		return O
	}
	return Empty
}

func (s *Series) NextRound() {
	s.Round++
}

// MarkLabel renders a round or series winner for the wire ("X", "O" or "DRAW").
func MarkLabel(m Mark) string {
	if m == Empty {
		return Draw
	}
	return string(m)
}
