package race

import (
	"context"

	"github.com/rpggio/racekeeper/internal/domain/activity"
	"github.com/rpggio/racekeeper/internal/domain/definition"
)

// DefinitionSource looks up saved race definitions. Get must return a copy.
type DefinitionSource interface {
	Get(name string) (*definition.RaceDefinition, error)
}

// WinRecorder credits a race win to a player.
type WinRecorder interface {
	RecordWin(ctx context.Context, playerID string) (int, error)
}

// ActivityLogger records lifecycle transitions.
type ActivityLogger interface {
	LogActivity(ctx context.Context, entry *activity.ActivityEntry) error
}
