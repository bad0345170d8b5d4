package race

import (
	"sort"
	"time"

	"github.com/rpggio/racekeeper/internal/domain/definition"
	"github.com/rpggio/racekeeper/internal/timer"
)

// State is the lifecycle state of the race slot. Completed and cancelled
// races fold straight back into StateIdle.
type State string

const (
	StateIdle    State = "idle"
	StateJoining State = "joining"
	StateActive  State = "active"
)

// Timing holds the lobby timers.
type Timing struct {
	// MinWait is how long the first joiner waits for the minimum roster.
	MinWait time.Duration
	// AutoStart is the countdown once the minimum roster is reached.
	AutoStart time.Duration
}

// DefaultTiming returns the stock lobby timers.
func DefaultTiming() Timing {
	return Timing{
		MinWait:   300 * time.Second,
		AutoStart: 60 * time.Second,
	}
}

// Participant is a player on the roster of the current race.
type Participant struct {
	PlayerID       string    `json:"player_id"`
	Name           string    `json:"name"`
	LapsCompleted  int       `json:"laps_completed"`
	NextCheckpoint int       `json:"next_checkpoint"`
	JoinOrder      int       `json:"join_order"`
	JoinedAt       time.Time `json:"joined_at"`
}

// Standing is a participant with its rank.
type Standing struct {
	Position int `json:"position"`
	Participant
}

// Status is a snapshot of the race slot.
type Status struct {
	State          State                      `json:"state"`
	SessionID      string                     `json:"session_id,omitempty"`
	Definition     *definition.RaceDefinition `json:"definition,omitempty"`
	Participants   []Participant              `json:"participants"`
	Started        bool                       `json:"started"`
	WaitArmed      bool                       `json:"wait_armed"`
	CountdownArmed bool                       `json:"countdown_armed"`
	StartedAt      *time.Time                 `json:"started_at,omitempty"`
}

// JoinResult describes the roster after a join.
type JoinResult struct {
	SessionID      string `json:"session_id"`
	Players        int    `json:"players"`
	MinPlayers     int    `json:"min_players"`
	MaxPlayers     int    `json:"max_players"`
	CountdownArmed bool   `json:"countdown_armed"`
}

// ProgressResult describes a participant after a position report.
type ProgressResult struct {
	LapsCompleted  int     `json:"laps_completed"`
	Laps           int     `json:"laps"`
	NextCheckpoint int     `json:"next_checkpoint"`
	Advanced       bool    `json:"advanced"`
	Finished       *Result `json:"finished,omitempty"`
}

// Result is the outcome of a finished race.
type Result struct {
	SessionID string     `json:"session_id"`
	RaceName  string     `json:"race_name"`
	WinnerID  string     `json:"winner_id,omitempty"`
	Standings []Standing `json:"standings"`
}

type session struct {
	id           string
	def          *definition.RaceDefinition
	state        State
	participants []*Participant
	startedAt    time.Time

	waitTimer      timer.Handle
	countdownTimer timer.Handle
	limitTimer     timer.Handle
}

func (s *session) find(playerID string) *Participant {
	for _, p := range s.participants {
		if p.PlayerID == playerID {
			return p
		}
	}
	return nil
}

func (s *session) playerIDs() []string {
	ids := make([]string, len(s.participants))
	for i, p := range s.participants {
		ids[i] = p.PlayerID
	}
	return ids
}

func (s *session) stopTimers() {
	timer.Stop(s.waitTimer)
	timer.Stop(s.countdownTimer)
	timer.Stop(s.limitTimer)
	s.waitTimer, s.countdownTimer, s.limitTimer = nil, nil, nil
}

// standings ranks participants by laps, then checkpoint progress, then join order.
func (s *session) standings() []Standing {
	ranked := make([]Participant, len(s.participants))
	for i, p := range s.participants {
		ranked[i] = *p
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.LapsCompleted != b.LapsCompleted {
			return a.LapsCompleted > b.LapsCompleted
		}
		if a.NextCheckpoint != b.NextCheckpoint {
			return a.NextCheckpoint > b.NextCheckpoint
		}
		return a.JoinOrder < b.JoinOrder
	})

	out := make([]Standing, len(ranked))
	for i, p := range ranked {
		out[i] = Standing{Position: i + 1, Participant: p}
	}
	return out
}
