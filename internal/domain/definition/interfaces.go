package definition

import (
	"context"

	"github.com/rpggio/racekeeper/internal/domain/activity"
)

// Repository persists the whole definition map. SaveAll must replace the
// stored set atomically.
type Repository interface {
	LoadAll(ctx context.Context) (map[string]*RaceDefinition, error)
	SaveAll(ctx context.Context, defs map[string]*RaceDefinition) error
}

// ActivityLogger records authoring events.
type ActivityLogger interface {
	LogActivity(ctx context.Context, entry *activity.ActivityEntry) error
}
