package kvstore

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/rpggio/racekeeper/internal/repository"
)

type apiKey struct {
	OperatorID  string     `msgpack:"operator_id"`
	Description string     `msgpack:"description"`
	CreatedAt   time.Time  `msgpack:"created_at"`
	LastUsed    *time.Time `msgpack:"last_used"`
}

// APIKeyRepository implements repository.APIKeyRepository on badger.
type APIKeyRepository struct {
	store *Store
}

// NewAPIKeyRepository creates a new APIKeyRepository.
func NewAPIKeyRepository(store *Store) *APIKeyRepository {
	return &APIKeyRepository{store: store}
}

func (r *APIKeyRepository) CreateKey(_ context.Context, keyHash, operatorID, description string) error {
	buf, err := buildValue(apiKey{OperatorID: operatorID, Description: description, CreatedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	key := buildKey(apiKeyEntity, keyHash)
	return r.store.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return repository.ErrConflict
		}
		if !isNotFound(err) {
			return fmt.Errorf("failed to check api key: %w", err)
		}
		return txn.Set(key, buf)
	})
}

func (r *APIKeyRepository) LookupKey(_ context.Context, keyHash string) (string, error) {
	key := buildKey(apiKeyEntity, keyHash)
	var operatorID string
	err := r.store.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if isNotFound(err) {
			return repository.ErrNotFound
		}
		if err != nil {
			return err
		}
		var rec apiKey
		if err := decodeItem(item, &rec); err != nil {
			return err
		}
		now := time.Now().UTC()
		rec.LastUsed = &now
		buf, err := buildValue(rec)
		if err != nil {
			return err
		}
		operatorID = rec.OperatorID
		return txn.Set(key, buf)
	})
	if err != nil {
		return "", err
	}
	return operatorID, nil
}
