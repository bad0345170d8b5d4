package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeDefinitionSaved  ActivityType = "definition_saved"
	TypeRaceStarted      ActivityType = "race_started"
	TypePlayerJoined     ActivityType = "player_joined"
	TypeCountdownStarted ActivityType = "countdown_started"
	TypeRaceActive       ActivityType = "race_active"
	TypeLapCompleted     ActivityType = "lap_completed"
	TypeRaceFinished     ActivityType = "race_finished"
	TypeRaceCancelled    ActivityType = "race_cancelled"
)

var knownTypes = map[ActivityType]struct{}{
	TypeDefinitionSaved:  {},
	TypeRaceStarted:      {},
	TypePlayerJoined:     {},
	TypeCountdownStarted: {},
	TypeRaceActive:       {},
	TypeLapCompleted:     {},
	TypeRaceFinished:     {},
	TypeRaceCancelled:    {},
}

// Known reports whether t is one of the logged event types.
func (t ActivityType) Known() bool {
	_, ok := knownTypes[t]
	return ok
}

// ActivityEntry represents an event in the activity log
type ActivityEntry struct {
	ID           string       `json:"id" msgpack:"id"`
	SessionID    *string      `json:"session_id,omitempty" msgpack:"session_id,omitempty"`
	RaceName     string       `json:"race_name" msgpack:"race_name"`
	PlayerID     *string      `json:"player_id,omitempty" msgpack:"player_id,omitempty"`
	ActivityType ActivityType `json:"type" msgpack:"type"`
	Summary      string       `json:"summary" msgpack:"summary"`
	CreatedAt    time.Time    `json:"created_at" msgpack:"created_at"`
}
