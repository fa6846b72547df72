package service

import "errors"

// Sentinel error kinds returned by the session service.
var (
	ErrNotStarted     = errors.New("session not started")
	ErrStopped        = errors.New("session stopped")
	ErrBackpressure   = errors.New("session busy, retry later")
	ErrInvalidLayout  = errors.New("surface height must be positive")
	ErrUnknownCommand = errors.New("unknown command")
)
