package roster

import "errors"

// Sentinel error kinds for roster operations.
var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrInvalidLabel   = errors.New("invalid label")
	ErrEmptyRoster    = errors.New("roster needs at least one player")
)
