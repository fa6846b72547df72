package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/sideline/internal/domain/model"
	"github.com/okian/sideline/internal/domain/roster"
	"github.com/okian/sideline/internal/domain/types"
)

// SessionDependencies defines the reads and layout updates of a session.
type SessionDependencies interface {
	Snapshot(ctx context.Context) (types.Snapshot, error)
	SetSurface(ctx context.Context, height float64) (model.Result, error)
}

// SessionHandler serves the session snapshot, label list and layout.
type SessionHandler struct {
	deps SessionDependencies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps SessionDependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

// HandleGetSession handles GET /session requests.
func (h *SessionHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_session"
	snap, err := h.deps.Snapshot(r.Context())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type labelsResponse struct {
	Labels []roster.Label `json:"labels"`
}

// HandleGetLabels handles GET /labels requests with the picker entries.
func (h *SessionHandler) HandleGetLabels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, labelsResponse{Labels: roster.Labels()})
}

type layoutRequest struct {
	Height float64 `json:"height"`
}

// HandleLayout handles POST /layout requests.
func (h *SessionHandler) HandleLayout(w http.ResponseWriter, r *http.Request) {
	const op = "api.layout"
	var req layoutRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Height <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("height must be positive")))
		return
	}
	res, err := h.deps.SetSurface(commandContext(r), req.Height)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newCommandResponse(res))
}
