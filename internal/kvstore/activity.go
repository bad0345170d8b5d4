package kvstore

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/rpggio/racekeeper/internal/domain/activity"
	"github.com/segmentio/ksuid"
)

// ActivityRepository implements repository.ActivityRepository on badger.
// Keys lead with the creation time so a reverse scan lists newest first.
type ActivityRepository struct {
	store *Store
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(store *Store) *ActivityRepository {
	return &ActivityRepository{store: store}
}

func activityKey(entry *activity.ActivityEntry) string {
	return fmt.Sprintf("%020d-%s", entry.CreatedAt.UnixNano(), entry.ID)
}

func (r *ActivityRepository) Log(_ context.Context, entry *activity.ActivityEntry) error {
	if entry.ID == "" {
		entry.ID = ksuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	buf, err := buildValue(entry)
	if err != nil {
		return err
	}
	err = r.store.db.Update(func(txn *badger.Txn) error {
		return txn.Set(buildKey(activityEntity, activityKey(entry)), buf)
	})
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}
	return nil
}

func (r *ActivityRepository) List(_ context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	var entries []activity.ActivityEntry
	skipped := 0

	err := r.store.db.View(func(txn *badger.Txn) error {
		p := prefix(activityEntity)
		itOpts := badger.DefaultIteratorOptions
		itOpts.Reverse = true
		it := txn.NewIterator(itOpts)
		defer it.Close()

		for it.Seek(append(append([]byte{}, p...), 0xff)); it.ValidForPrefix(p); it.Next() {
			var e activity.ActivityEntry
			if err := decodeItem(it.Item(), &e); err != nil {
				return err
			}
			if !matches(e, opts) {
				continue
			}
			if skipped < opts.Offset {
				skipped++
				continue
			}
			entries = append(entries, e)
			if opts.Limit > 0 && len(entries) >= opts.Limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	return entries, nil
}

func matches(e activity.ActivityEntry, opts activity.ListActivityOptions) bool {
	if opts.RaceName != "" && e.RaceName != opts.RaceName {
		return false
	}
	if opts.SessionID != nil && (e.SessionID == nil || *e.SessionID != *opts.SessionID) {
		return false
	}
	if opts.PlayerID != nil && (e.PlayerID == nil || *e.PlayerID != *opts.PlayerID) {
		return false
	}
	if opts.ActivityType != nil && e.ActivityType != *opts.ActivityType {
		return false
	}
	return true
}
