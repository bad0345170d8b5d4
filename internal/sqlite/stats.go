package sqlite

import (
	"context"
	"fmt"
)

// StatsRepository implements repository.StatsRepository for SQLite
type StatsRepository struct {
	db *DB
}

// NewStatsRepository creates a new StatsRepository
func NewStatsRepository(db *DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// LoadAll returns the win count per player
func (r *StatsRepository) LoadAll(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT player_id, wins FROM player_wins`)
	if err != nil {
		return nil, fmt.Errorf("failed to load wins: %w", err)
	}
	defer rows.Close()

	wins := make(map[string]int)
	for rows.Next() {
		var playerID string
		var n int
		if err := rows.Scan(&playerID, &n); err != nil {
			return nil, fmt.Errorf("failed to scan wins: %w", err)
		}
		wins[playerID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating win rows: %w", err)
	}
	return wins, nil
}

// SaveAll replaces the ledger in one transaction
func (r *StatsRepository) SaveAll(ctx context.Context, wins map[string]int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM player_wins`); err != nil {
		return fmt.Errorf("failed to clear wins: %w", err)
	}
	for playerID, n := range wins {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO player_wins (player_id, wins) VALUES (?, ?)`, playerID, n); err != nil {
			return fmt.Errorf("failed to save wins for %q: %w", playerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit wins: %w", err)
	}
	return nil
}
