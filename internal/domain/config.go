package domain

const (
	DefaultBoardSize = 3
	MinBoardSize     = 3
	MaxBoardSize     = 5

	DefaultRounds = 3
	MinRounds     = 3
	MaxRounds     = 7

	TurboTimeLimitSec = 10
)

// GameConfig is requested by the client with JOIN_QUEUE / START_PVE.
type GameConfig struct {
	BoardSize    int  `json:"boardSize"`
	TotalRounds  int  `json:"rounds"`
	TimeLimitSec int  `json:"timeLimit"`
	Turbo        bool `json:"turbo"`
}

// Normalize clamps every field into its legal range. Zero values pick the
// defaults, rounds are bumped to the next odd number so a series can never
// end level on wins, and turbo pins the turn limit.
func (c GameConfig) Normalize() GameConfig {
	if c.BoardSize == 0 {
		c.BoardSize = DefaultBoardSize
	}
	c.BoardSize = clamp(c.BoardSize, MinBoardSize, MaxBoardSize)

	if c.TotalRounds == 0 {
		c.TotalRounds = DefaultRounds
	}
	c.TotalRounds = clamp(c.TotalRounds, MinRounds, MaxRounds)
	if c.TotalRounds%2 == 0 {
		c.TotalRounds++
	}

	if c.TimeLimitSec < 0 {
		c.TimeLimitSec = 0
	}
	if c.Turbo {
		c.TimeLimitSec = TurboTimeLimitSec
	}
	return c
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
