package adapter

import "errors"

// ErrUnknownEasing is returned when an easing name is not recognized.
var ErrUnknownEasing = errors.New("unknown easing")
