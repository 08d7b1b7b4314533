package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kevbol04/JuegoMultijugador/internal/service/stats"
)

// StatsRepo stores the per-player counters in player_stats. Each update is a
// single upsert, so concurrent results for the same player never lose an
// increment.
type StatsRepo struct {
	DB *sql.DB
}

func NewStatsRepo(db *sql.DB) *StatsRepo {
	return &StatsRepo{DB: db}
}

// The insert carries the delta for one outcome. On conflict the streak
// columns are recomputed from the stored row: a win extends the streak, a
// loss or a draw resets it.
const upsertResult = `
INSERT INTO player_stats (username, wins, losses, draws, streak, best_streak)
VALUES ($1, $2, $3, $4, $5, $5)
ON CONFLICT (username) DO UPDATE SET
    wins   = player_stats.wins + excluded.wins,
    losses = player_stats.losses + excluded.losses,
    draws  = player_stats.draws + excluded.draws,
    streak = CASE WHEN excluded.wins > 0 THEN player_stats.streak + 1 ELSE 0 END,
    best_streak = CASE
        WHEN excluded.wins > 0 AND player_stats.streak + 1 > player_stats.best_streak
        THEN player_stats.streak + 1
        ELSE player_stats.best_streak
    END,
    updated_at = CURRENT_TIMESTAMP`

func (r *StatsRepo) UpdateResult(ctx context.Context, username string, outcome stats.Outcome) error {
	delta, err := stats.Apply(stats.PlayerStats{}, outcome)
	if err != nil {
		return err
	}

	_, err = r.DB.ExecContext(ctx, upsertResult, username, delta.Wins, delta.Losses, delta.Draws, delta.Streak)
	if err != nil {
		return fmt.Errorf("update stats for %s: %w", username, err)
	}
	return nil
}

func (r *StatsRepo) Snapshot(ctx context.Context) (stats.Snapshot, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT username, wins, losses, draws, streak, best_streak
		FROM player_stats`)
	if err != nil {
		return stats.Snapshot{}, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	snap := stats.EmptySnapshot()
	for rows.Next() {
		var name string
		var ps stats.PlayerStats
		if err := rows.Scan(&name, &ps.Wins, &ps.Losses, &ps.Draws, &ps.Streak, &ps.BestStreak); err != nil {
			return stats.Snapshot{}, fmt.Errorf("scan stats row: %w", err)
		}
		snap.Players[name] = ps
	}
	if err := rows.Err(); err != nil {
		return stats.Snapshot{}, fmt.Errorf("iterate stats rows: %w", err)
	}
	return snap, nil
}
