package api

import (
	"context"
	"net/http"

	"github.com/okian/sideline/internal/domain/model"
)

// ClockDependencies defines the match clock controls.
type ClockDependencies interface {
	StartClock(ctx context.Context) (model.Result, error)
	PauseClock(ctx context.Context) (model.Result, error)
	ResetClock(ctx context.Context) (model.Result, error)
	SetClock(ctx context.Context, text string) (model.Result, error)
}

// ClockHandler handles clock requests.
type ClockHandler struct {
	deps ClockDependencies
}

// NewClockHandler creates a new clock handler.
func NewClockHandler(deps ClockDependencies) *ClockHandler {
	return &ClockHandler{deps: deps}
}

type setClockRequest struct {
	Time string `json:"time"`
}

// HandleStart handles POST /clock/start requests.
func (h *ClockHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "api.clock_start", h.deps.StartClock)
}

// HandlePause handles POST /clock/pause requests.
func (h *ClockHandler) HandlePause(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "api.clock_pause", h.deps.PauseClock)
}

// HandleReset handles POST /clock/reset requests.
func (h *ClockHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "api.clock_reset", h.deps.ResetClock)
}

// HandleSet handles POST /clock/set requests. Malformed times are answered
// with applied=false, not an error.
func (h *ClockHandler) HandleSet(w http.ResponseWriter, r *http.Request) {
	const op = "api.clock_set"
	var req setClockRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.SetClock(commandContext(r), req.Time)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newCommandResponse(res))
}

func (h *ClockHandler) run(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context) (model.Result, error)) {
	res, err := fn(commandContext(r))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newCommandResponse(res))
}
