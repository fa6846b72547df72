package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/sideline/internal/app"
	"github.com/okian/sideline/internal/domain/roster"
	"github.com/okian/sideline/internal/report"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = errors.New("not found")
)

// mailUnavailableMessage is the single user-facing alert of the app.
const mailUnavailableMessage = "Mail services are not available"

// kindError tags an error with the operation that failed and its kind.
type kindError struct {
	op   string
	kind error
	err  error
}

func (e *kindError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("%s: %v", e.op, e.kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.op, e.kind, e.err)
}

func (e *kindError) Unwrap() []error {
	if e.err == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.err}
}

// WrapKind wraps err as kind for op. errors.Is matches both.
func WrapKind(op string, kind, err error) error {
	return &kindError{op: op, kind: kind, err: err}
}

// NewKind reports kind for op without a cause.
func NewKind(op string, kind error) error {
	return &kindError{op: op, kind: kind}
}

// writeServiceError maps session and report errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, report.ErrMailUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Code: "mail_unavailable", Message: mailUnavailableMessage})
	case errors.Is(err, roster.ErrPlayerNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, roster.ErrInvalidLabel), errors.Is(err, service.ErrInvalidLayout):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, service.ErrBackpressure, err))
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, service.ErrStopped):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	case errors.Is(err, report.ErrSendFailed):
		writeError(w, http.StatusBadGateway, "send_failed", err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusGatewayTimeout, "timeout", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
