package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/racekeeper/internal/command"
	"github.com/rpggio/racekeeper/internal/domain/activity"
	"github.com/rpggio/racekeeper/internal/domain/course"
	"github.com/rpggio/racekeeper/internal/domain/definition"
	"github.com/rpggio/racekeeper/internal/domain/race"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrUnknownMethod indicates a tool or RPC method the handler does not serve.
var ErrUnknownMethod = errors.New("unknown method")

var errPlayerNotConnected = errors.New("player not connected")

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, definition.ErrNotFound), errors.Is(err, race.ErrDefinitionNotFound):
		return &APIError{Code: "RACE_NOT_FOUND", Message: "no saved race has that name", RecoveryHint: "Call list_races"}
	case errors.Is(err, race.ErrAlreadyActive):
		return &APIError{Code: "RACE_ALREADY_ACTIVE", Message: "a race is already active", RecoveryHint: "Abort or finish the current race first"}
	case errors.Is(err, race.ErrNoActiveRace):
		return &APIError{Code: "NO_ACTIVE_RACE", Message: "there is no active race", RecoveryHint: "Start a race with '/race start <name>'"}
	case errors.Is(err, race.ErrRaceNotStarted):
		return &APIError{Code: "RACE_NOT_STARTED", Message: "the race has not started yet"}
	case errors.Is(err, race.ErrRaceInProgress):
		return &APIError{Code: "RACE_IN_PROGRESS", Message: "the race is already in progress"}
	case errors.Is(err, race.ErrFull):
		return &APIError{Code: "RACE_FULL", Message: "the race is full"}
	case errors.Is(err, race.ErrAlreadyJoined):
		return &APIError{Code: "ALREADY_JOINED", Message: "player already joined"}
	case errors.Is(err, race.ErrNotParticipant):
		return &APIError{Code: "NOT_PARTICIPANT", Message: "player is not in the race"}
	case errors.Is(err, definition.ErrAlreadyAuthoring):
		return &APIError{Code: "ALREADY_AUTHORING", Message: "a race is already being created or edited", RecoveryHint: "Save or cancel it first"}
	case errors.Is(err, definition.ErrNotAuthoring), errors.Is(err, definition.ErrNothingToSave), errors.Is(err, definition.ErrNothingToCancel):
		return &APIError{Code: "NOT_AUTHORING", Message: "no race is being created or edited", RecoveryHint: "Use '/race create' or '/race edit <name>'"}
	case errors.Is(err, definition.ErrMissingName):
		return &APIError{Code: "MISSING_NAME", Message: "race name required", RecoveryHint: "Use '/race set name <name>'"}
	case errors.Is(err, definition.ErrMissingFinish), errors.Is(err, course.ErrFinishNotSet):
		return &APIError{Code: "MISSING_FINISH", Message: "finish point required", RecoveryHint: "Use '/race set finish radius <r>'"}
	case errors.Is(err, definition.ErrDuplicateName):
		return &APIError{Code: "DUPLICATE_NAME", Message: "race name already exists"}
	case errors.Is(err, definition.ErrInvalidValue), errors.Is(err, definition.ErrUnknownOption),
		errors.Is(err, course.ErrInvalidRadius), errors.Is(err, course.ErrIndexOutOfRange):
		return &APIError{Code: "INVALID_VALUE", Message: err.Error()}
	case errors.Is(err, command.ErrUsage):
		return &APIError{Code: "USAGE", Message: "malformed race command", RecoveryHint: "Read racekeeper://docs/commands"}
	case errors.Is(err, command.ErrUnknownPosition):
		return &APIError{Code: "UNKNOWN_POSITION", Message: "player position unknown", RecoveryHint: "Call report_position first"}
	case errors.Is(err, errPlayerNotConnected):
		return &APIError{Code: "PLAYER_NOT_CONNECTED", Message: "player not connected", RecoveryHint: "Call connect_player first"}
	case errors.Is(err, activity.ErrUnknownType), errors.Is(err, activity.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error(), RecoveryHint: "Read racekeeper://docs/lifecycle for event types"}
	case errors.Is(err, race.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: "player id required"}
	default:
		return nil
	}
}
