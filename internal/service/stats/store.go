package stats

import (
	"context"
	"errors"
)

type Outcome string

const (
	Win  Outcome = "WIN"
	Loss Outcome = "LOSS"
	Draw Outcome = "DRAW"
)

var ErrUnknownOutcome = errors.New("unknown outcome")

// PlayerStats are the cumulative counters kept per username.
type PlayerStats struct {
	Wins       int `json:"wins"`
	Losses     int `json:"losses"`
	Draws      int `json:"draws"`
	Streak     int `json:"streak"`
	BestStreak int `json:"bestStreak"`
}

// Snapshot is the RECORDS_SYNC payload and the on-disk document.
type Snapshot struct {
	Players map[string]PlayerStats `json:"players"`
}

func EmptySnapshot() Snapshot {
	return Snapshot{Players: map[string]PlayerStats{}}
}

// Store persists the counters. Implementations must serialize concurrent
// UpdateResult calls so that no increment is lost.
type Store interface {
	Snapshot(ctx context.Context) (Snapshot, error)
	UpdateResult(ctx context.Context, username string, outcome Outcome) error
}

// Apply adds one outcome to ps. A win extends the streak, a loss or a draw
// resets it.
func Apply(ps PlayerStats, outcome Outcome) (PlayerStats, error) {
	switch outcome {
	case Win:
		ps.Wins++
		ps.Streak++
		if ps.Streak > ps.BestStreak {
			ps.BestStreak = ps.Streak
		}
	case Loss:
		ps.Losses++
		ps.Streak = 0
	case Draw:
		ps.Draws++
		ps.Streak = 0
	default:
		return ps, ErrUnknownOutcome
	}
	return ps, nil
}
