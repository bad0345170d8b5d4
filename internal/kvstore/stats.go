package kvstore

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v3"
)

// StatsRepository implements repository.StatsRepository on badger.
type StatsRepository struct {
	store *Store
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(store *Store) *StatsRepository {
	return &StatsRepository{store: store}
}

func (r *StatsRepository) LoadAll(_ context.Context) (map[string]int, error) {
	wins := make(map[string]int)
	err := r.store.db.View(func(txn *badger.Txn) error {
		return scan(txn, winsEntity, func(item *badger.Item) error {
			var n int
			if err := decodeItem(item, &n); err != nil {
				return err
			}
			wins[keySuffix(winsEntity, item.Key())] = n
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load wins: %w", err)
	}
	return wins, nil
}

func (r *StatsRepository) SaveAll(_ context.Context, wins map[string]int) error {
	values := make(map[string]interface{}, len(wins))
	for id, n := range wins {
		if n < 0 {
			return fmt.Errorf("negative wins for %q", id)
		}
		values[id] = n
	}
	if err := r.store.replaceAll(winsEntity, values); err != nil {
		return fmt.Errorf("failed to save wins: %w", err)
	}
	return nil
}
