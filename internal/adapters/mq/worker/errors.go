package worker

import "errors"

// Sentinel kinds for dispatcher errors.
var (
	ErrStopped      = errors.New("dispatcher stopped")
	ErrHandlerPanic = errors.New("command handler panicked")
)
