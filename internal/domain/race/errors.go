package race

import "errors"

var (
	// ErrAlreadyActive indicates a race session already exists.
	ErrAlreadyActive = errors.New("a race is already active")
	// ErrNoActiveRace indicates there is no race session.
	ErrNoActiveRace = errors.New("no active race")
	// ErrDefinitionNotFound indicates the requested race has not been saved.
	ErrDefinitionNotFound = errors.New("race definition not found")
	// ErrAlreadyJoined indicates the player is already on the roster.
	ErrAlreadyJoined = errors.New("player already joined")
	// ErrFull indicates the roster reached the maximum number of players.
	ErrFull = errors.New("race is full")
	// ErrRaceInProgress indicates joining after the race started.
	ErrRaceInProgress = errors.New("race already in progress")
	// ErrRaceNotStarted indicates an operation that needs a running race.
	ErrRaceNotStarted = errors.New("race has not started yet")
	// ErrNotParticipant indicates a player who is not on the roster.
	ErrNotParticipant = errors.New("player is not in the race")
	// ErrInvalidInput indicates a missing player identity.
	ErrInvalidInput = errors.New("invalid race input")
)
