// Package kvstore persists racekeeper state in an embedded badger database.
// Values are msgpack encoded under "<entity>/<key>" keys.
package kvstore

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	definitionEntity = "definition"
	winsEntity       = "wins"
	activityEntity   = "activity"
	apiKeyEntity     = "apikey"
)

// Store wraps a badger database.
type Store struct {
	db *badger.DB
}

// Open opens the database at path. An empty path opens an in-memory store.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func prefix(entity string) []byte {
	return []byte(entity + "/")
}

func buildKey(entity, key string) []byte {
	return []byte(fmt.Sprintf("%s/%s", entity, key))
}

func keySuffix(entity string, key []byte) string {
	return string(key[len(entity)+1:])
}

func buildValue(value interface{}) ([]byte, error) {
	buf, err := msgpack.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value: %w", err)
	}
	return buf, nil
}

func decodeItem(item *badger.Item, out interface{}) error {
	return item.Value(func(val []byte) error {
		return msgpack.Unmarshal(val, out)
	})
}

// scan calls fn for every key of entity in key order.
func scan(txn *badger.Txn, entity string, fn func(item *badger.Item) error) error {
	p := prefix(entity)
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		if err := fn(it.Item()); err != nil {
			return err
		}
	}
	return nil
}

// replaceAll deletes every key of entity and writes values in one transaction.
func (s *Store) replaceAll(entity string, values map[string]interface{}) error {
	return s.db.Update(func(txn *badger.Txn) error {
		var stale [][]byte
		if err := scan(txn, entity, func(item *badger.Item) error {
			stale = append(stale, item.KeyCopy(nil))
			return nil
		}); err != nil {
			return err
		}
		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		for key, value := range values {
			buf, err := buildValue(value)
			if err != nil {
				return err
			}
			if err := txn.Set(buildKey(entity, key), buf); err != nil {
				return err
			}
		}
		return nil
	})
}

func isNotFound(err error) bool {
	return errors.Is(err, badger.ErrKeyNotFound)
}
