package sqlite

import (
	"context"
	"testing"

	"github.com/rpggio/racekeeper/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyRepository(t *testing.T) {
	db := NewTestDB(t)
	repo := NewAPIKeyRepository(db)
	ctx := context.Background()

	hash := repository.HashAPIKey("secret")
	require.NoError(t, repo.CreateKey(ctx, hash, "op-1", "race marshal"))
	require.ErrorIs(t, repo.CreateKey(ctx, hash, "op-2", ""), repository.ErrConflict)

	operatorID, err := repo.LookupKey(ctx, hash)
	require.NoError(t, err)
	require.Equal(t, "op-1", operatorID)

	var touched bool
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT last_used IS NOT NULL FROM api_keys WHERE key_hash = ?`, hash).Scan(&touched))
	require.True(t, touched)

	_, err = repo.LookupKey(ctx, repository.HashAPIKey("other"))
	require.ErrorIs(t, err, repository.ErrNotFound)
}
