package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writers; a single connection also keeps ":memory:"
	// databases from splitting across connections.
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations creates the schema. It is safe to run on every start.
func (db *DB) RunMigrations() error {
	migration := `
-- Race definitions; the finish point is optional until saved
CREATE TABLE IF NOT EXISTS race_definitions (
    name TEXT PRIMARY KEY,
    min_players INTEGER NOT NULL CHECK(min_players >= 1),
    max_players INTEGER NOT NULL CHECK(max_players >= 1),
    time_limit_seconds INTEGER NOT NULL DEFAULT 0 CHECK(time_limit_seconds >= 0),
    laps INTEGER NOT NULL CHECK(laps >= 1),
    finish_x REAL,
    finish_y REAL,
    finish_z REAL,
    finish_radius REAL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Ordered checkpoints per definition
CREATE TABLE IF NOT EXISTS race_checkpoints (
    race_name TEXT NOT NULL,
    position INTEGER NOT NULL,
    x REAL NOT NULL,
    y REAL NOT NULL,
    z REAL NOT NULL,
    radius REAL NOT NULL CHECK(radius > 0),
    PRIMARY KEY (race_name, position),
    FOREIGN KEY (race_name) REFERENCES race_definitions(name) ON DELETE CASCADE
);

-- Win ledger
CREATE TABLE IF NOT EXISTS player_wins (
    player_id TEXT PRIMARY KEY,
    wins INTEGER NOT NULL CHECK(wins >= 0)
);

-- Activity log
CREATE TABLE IF NOT EXISTS activity_log (
    id TEXT PRIMARY KEY,
    session_id TEXT,
    race_name TEXT NOT NULL,
    player_id TEXT,
    activity_type TEXT NOT NULL,
    summary TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_activity_race ON activity_log(race_name);
CREATE INDEX IF NOT EXISTS idx_activity_session ON activity_log(session_id);
CREATE INDEX IF NOT EXISTS idx_created_at ON activity_log(created_at);

-- API keys for operator authentication
CREATE TABLE IF NOT EXISTS api_keys (
    key_hash TEXT PRIMARY KEY,
    operator_id TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    last_used TIMESTAMP,
    description TEXT
);
CREATE INDEX IF NOT EXISTS idx_operator_keys ON api_keys(operator_id);
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
