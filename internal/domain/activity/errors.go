package activity

import "errors"

var (
	// ErrInvalidInput indicates an entry or filter that cannot be used.
	ErrInvalidInput = errors.New("invalid activity input")
	// ErrUnknownType indicates an activity type outside the logged set.
	ErrUnknownType = errors.New("unknown activity type")
)
