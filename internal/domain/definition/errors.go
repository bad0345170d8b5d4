package definition

import "errors"

var (
	// ErrAlreadyAuthoring indicates a definition is already being created or edited.
	ErrAlreadyAuthoring = errors.New("a race is already being created or edited")
	// ErrNotAuthoring indicates no definition is open for authoring.
	ErrNotAuthoring = errors.New("no race is being created or edited")
	// ErrNothingToSave indicates save was requested with nothing open.
	ErrNothingToSave = errors.New("no race to save")
	// ErrNothingToCancel indicates cancel was requested with nothing open.
	ErrNothingToCancel = errors.New("no race to cancel")
	// ErrMissingName indicates the definition has no name.
	ErrMissingName = errors.New("race name required")
	// ErrMissingFinish indicates the definition has no finish point.
	ErrMissingFinish = errors.New("race finish point required")
	// ErrDuplicateName indicates another saved race already uses the name.
	ErrDuplicateName = errors.New("race name already exists")
	// ErrNotFound indicates no saved race has the name.
	ErrNotFound = errors.New("race not found")
	// ErrInvalidValue indicates an option value failed validation.
	ErrInvalidValue = errors.New("invalid option value")
	// ErrUnknownOption indicates an option key that does not exist.
	ErrUnknownOption = errors.New("unknown race option")
)
