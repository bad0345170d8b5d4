package definition

import "github.com/rpggio/racekeeper/internal/domain/course"

// Defaults applied to a freshly created definition.
const (
	DefaultMinPlayers = 1
	DefaultMaxPlayers = 10
	DefaultLaps       = 3
)

// RaceDefinition is a saved race template.
type RaceDefinition struct {
	Name             string        `json:"name" msgpack:"name"`
	MinPlayers       int           `json:"min_players" msgpack:"min_players"`
	MaxPlayers       int           `json:"max_players" msgpack:"max_players"`
	TimeLimitSeconds int           `json:"time_limit_seconds" msgpack:"time_limit_seconds"`
	Laps             int           `json:"laps" msgpack:"laps"`
	Course           course.Course `json:"course" msgpack:"course"`
}

// New returns a definition populated with defaults.
func New() *RaceDefinition {
	return &RaceDefinition{
		MinPlayers: DefaultMinPlayers,
		MaxPlayers: DefaultMaxPlayers,
		Laps:       DefaultLaps,
	}
}

// Clone returns a deep copy.
func (d *RaceDefinition) Clone() *RaceDefinition {
	out := *d
	out.Course = d.Course.Clone()
	return &out
}

// Summary is the authoring view shown after every change.
type Summary struct {
	Name             string `json:"name"`
	Editing          bool   `json:"editing"`
	MinPlayers       int    `json:"min_players"`
	MaxPlayers       int    `json:"max_players"`
	TimeLimitSeconds int    `json:"time_limit_seconds"`
	Laps             int    `json:"laps"`
	HasFinish        bool   `json:"has_finish"`
	Checkpoints      int    `json:"checkpoints"`
}
