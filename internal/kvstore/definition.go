package kvstore

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	"github.com/rpggio/racekeeper/internal/domain/definition"
)

// DefinitionRepository implements repository.DefinitionRepository on badger.
type DefinitionRepository struct {
	store *Store
}

// NewDefinitionRepository creates a new DefinitionRepository.
func NewDefinitionRepository(store *Store) *DefinitionRepository {
	return &DefinitionRepository{store: store}
}

func (r *DefinitionRepository) LoadAll(_ context.Context) (map[string]*definition.RaceDefinition, error) {
	defs := make(map[string]*definition.RaceDefinition)
	err := r.store.db.View(func(txn *badger.Txn) error {
		return scan(txn, definitionEntity, func(item *badger.Item) error {
			var def definition.RaceDefinition
			if err := decodeItem(item, &def); err != nil {
				return err
			}
			defs[keySuffix(definitionEntity, item.Key())] = &def
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load definitions: %w", err)
	}
	return defs, nil
}

func (r *DefinitionRepository) SaveAll(_ context.Context, defs map[string]*definition.RaceDefinition) error {
	values := make(map[string]interface{}, len(defs))
	for name, def := range defs {
		values[name] = def
	}
	if err := r.store.replaceAll(definitionEntity, values); err != nil {
		return fmt.Errorf("failed to save definitions: %w", err)
	}
	return nil
}
