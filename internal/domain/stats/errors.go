package stats

import "errors"

// ErrInvalidInput indicates an empty player id.
var ErrInvalidInput = errors.New("invalid stats input")
