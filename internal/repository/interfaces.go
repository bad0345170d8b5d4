package repository

import (
	"context"

	"github.com/rpggio/racekeeper/internal/domain/activity"
	"github.com/rpggio/racekeeper/internal/domain/definition"
)

// DefinitionRepository persists the race definition store as a whole.
type DefinitionRepository interface {
	LoadAll(ctx context.Context) (map[string]*definition.RaceDefinition, error)
	SaveAll(ctx context.Context, defs map[string]*definition.RaceDefinition) error
}

// StatsRepository persists the win ledger as a whole.
type StatsRepository interface {
	LoadAll(ctx context.Context) (map[string]int, error)
	SaveAll(ctx context.Context, wins map[string]int) error
}

// ActivityRepository manages activity log persistence
type ActivityRepository interface {
	Log(ctx context.Context, entry *activity.ActivityEntry) error
	List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// APIKeyRepository maps hashed operator keys to operator IDs.
type APIKeyRepository interface {
	CreateKey(ctx context.Context, keyHash, operatorID, description string) error
	LookupKey(ctx context.Context, keyHash string) (string, error)
}
