package course

import "errors"

var (
	// ErrInvalidRadius indicates a radius that is not a positive finite number.
	ErrInvalidRadius = errors.New("radius must be a positive number")
	// ErrIndexOutOfRange indicates a checkpoint index outside the course.
	ErrIndexOutOfRange = errors.New("checkpoint index out of range")
	// ErrFinishNotSet indicates the finish point has not been placed yet.
	ErrFinishNotSet = errors.New("finish point not set")
)
