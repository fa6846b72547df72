package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/okian/sideline/internal/domain/model"
	"github.com/okian/sideline/internal/domain/roster"
)

// PlayerDependencies defines the per-player gestures.
type PlayerDependencies interface {
	DragEnd(ctx context.Context, id uuid.UUID, t roster.Translation) (model.Result, error)
	Tap(ctx context.Context, id uuid.UUID, boundary *float64) (model.Result, error)
	SetLabel(ctx context.Context, id uuid.UUID, l roster.Label, boundary *float64) (model.Result, error)
}

// PlayersHandler handles drag, tap and label requests.
type PlayersHandler struct {
	deps PlayerDependencies
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps PlayerDependencies) *PlayersHandler {
	return &PlayersHandler{deps: deps}
}

type dragRequest struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

type tapRequest struct {
	BoundaryY *float64 `json:"boundary_y,omitempty"`
}

type labelRequest struct {
	Label     string   `json:"label"`
	BoundaryY *float64 `json:"boundary_y,omitempty"`
}

// HandleDrag handles POST /players/{id}/drag requests.
func (h *PlayersHandler) HandleDrag(w http.ResponseWriter, r *http.Request) {
	const op = "api.drag"
	id, err := playerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	var req dragRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.DragEnd(commandContext(r), id, roster.Translation{DX: req.DX, DY: req.DY})
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newCommandResponse(res))
}

// HandleTap handles POST /players/{id}/tap requests.
func (h *PlayersHandler) HandleTap(w http.ResponseWriter, r *http.Request) {
	const op = "api.tap"
	id, err := playerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	var req tapRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.Tap(commandContext(r), id, req.BoundaryY)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newCommandResponse(res))
}

// HandleLabel handles POST /players/{id}/label requests. "None" clears the
// label.
func (h *PlayersHandler) HandleLabel(w http.ResponseWriter, r *http.Request) {
	const op = "api.label"
	id, err := playerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	var req labelRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	label, err := roster.ParseLabel(req.Label)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.SetLabel(commandContext(r), id, label, req.BoundaryY)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newCommandResponse(res))
}
