package command

import (
	"errors"

	"github.com/rpggio/racekeeper/internal/domain/course"
	"github.com/rpggio/racekeeper/internal/domain/definition"
	"github.com/rpggio/racekeeper/internal/domain/race"
)

var (
	// ErrUsage indicates a malformed or unknown command.
	ErrUsage = errors.New("invalid command")
	// ErrUnknownPosition indicates the caller has not reported a position.
	ErrUnknownPosition = errors.New("player position unknown")
)

const genericFailure = "Something went wrong, please try again later."

// Message turns a domain error into the text shown to a player.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if msg, ok := describe(err); ok {
		return msg
	}
	return genericFailure
}

// describe reports false for errors that are not part of the domain, such
// as storage failures.
func describe(err error) (string, bool) {
	msg := ""
	switch {
	case errors.Is(err, definition.ErrAlreadyAuthoring):
		msg = "A race is already being created or edited. Use '/race save' to save it or '/race cancel' to discard it."
	case errors.Is(err, definition.ErrNotAuthoring):
		msg = "No race is being created or edited. Use '/race create' to start."
	case errors.Is(err, definition.ErrNothingToSave):
		msg = "There is no race to save."
	case errors.Is(err, definition.ErrNothingToCancel):
		msg = "There is no race creation to cancel."
	case errors.Is(err, definition.ErrMissingName):
		msg = "The race needs a name before it can be saved. Use '/race set name {name}'."
	case errors.Is(err, definition.ErrMissingFinish):
		msg = "The race needs a finish point before it can be saved. Use '/race set finish radius {value}'."
	case errors.Is(err, definition.ErrDuplicateName):
		msg = "A race with that name already exists."
	case errors.Is(err, definition.ErrNotFound), errors.Is(err, race.ErrDefinitionNotFound):
		msg = "No saved race has that name. Use '/race list' to see saved races."
	case errors.Is(err, definition.ErrUnknownOption):
		msg = "Unknown option. Use name, min, max, seconds or laps."
	case errors.Is(err, definition.ErrInvalidValue):
		msg = "Invalid value: " + err.Error() + "."
	case errors.Is(err, course.ErrInvalidRadius):
		msg = "The radius must be a positive number."
	case errors.Is(err, course.ErrIndexOutOfRange):
		msg = "Checkpoint index out of range."
	case errors.Is(err, course.ErrFinishNotSet):
		msg = "The finish point has not been set yet."
	case errors.Is(err, race.ErrAlreadyActive):
		msg = "A race is already active."
	case errors.Is(err, race.ErrNoActiveRace):
		msg = "There is no active race."
	case errors.Is(err, race.ErrAlreadyJoined):
		msg = "You have already joined the race."
	case errors.Is(err, race.ErrFull):
		msg = "The race is full."
	case errors.Is(err, race.ErrRaceInProgress):
		msg = "The race has already started."
	case errors.Is(err, race.ErrRaceNotStarted):
		msg = "The race has not started yet."
	case errors.Is(err, race.ErrNotParticipant):
		msg = "That player is not in the race."
	case errors.Is(err, ErrUnknownPosition):
		msg = "Your position is unknown. Move before placing points."
	default:
		return "", false
	}
	return msg, true
}
