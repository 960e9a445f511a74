package registry

import "errors"

// ErrNoFreeCode is returned when code generation keeps colliding with live rooms
var ErrNoFreeCode = errors.New("could not generate an unused room code")
