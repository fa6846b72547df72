package control

import "errors"

// Error constants.
var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("usage")
	ErrPlayerNotFound = errors.New("player not found")
	ErrTransport      = errors.New("transport failure")
)

// APIError is a non-2xx answer from the session API.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}
