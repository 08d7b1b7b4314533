package sqldb

import (
	"context"
	"database/sql"
	"fmt"
)

// valid for both PostgreSQL and SQLite
const schema = `
CREATE TABLE IF NOT EXISTS player_stats (
    username    TEXT PRIMARY KEY,
    wins        INTEGER NOT NULL DEFAULT 0,
    losses      INTEGER NOT NULL DEFAULT 0,
    draws       INTEGER NOT NULL DEFAULT 0,
    streak      INTEGER NOT NULL DEFAULT 0,
    best_streak INTEGER NOT NULL DEFAULT 0,
    updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

func RunMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create player_stats: %w", err)
	}
	return nil
}
