package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rpggio/racekeeper/internal/repository"
)

// APIKeyRepository implements repository.APIKeyRepository for SQLite
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// CreateKey stores a hashed key for an operator
func (r *APIKeyRepository) CreateKey(ctx context.Context, keyHash, operatorID, description string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO api_keys (key_hash, operator_id, created_at, description) VALUES (?, ?, ?, ?)`,
		keyHash, operatorID, time.Now().UTC(), description)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to create api key: %w", err)
	}
	return nil
}

// LookupKey returns the operator for a hashed key and stamps last_used
func (r *APIKeyRepository) LookupKey(ctx context.Context, keyHash string) (string, error) {
	var operatorID string
	err := r.db.QueryRowContext(ctx,
		`SELECT operator_id FROM api_keys WHERE key_hash = ?`, keyHash).Scan(&operatorID)
	if err == sql.ErrNoRows {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up api key: %w", err)
	}

	if _, err := r.db.ExecContext(ctx,
		`UPDATE api_keys SET last_used = ? WHERE key_hash = ?`, time.Now().UTC(), keyHash); err != nil {
		return "", fmt.Errorf("failed to touch api key: %w", err)
	}
	return operatorID, nil
}
