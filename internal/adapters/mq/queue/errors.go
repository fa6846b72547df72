package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrQueueFull = errors.New("command queue full")
	ErrClosed    = errors.New("command queue closed")
)
