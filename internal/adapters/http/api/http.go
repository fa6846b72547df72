// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/sideline/internal/domain/model"
	"github.com/okian/sideline/internal/domain/roster"
	"github.com/okian/sideline/internal/domain/types"
	"github.com/okian/sideline/internal/report"
)

const (
	// CommandIDHeader carries an optional client id for idempotent retries.
	CommandIDHeader = "X-Command-ID"

	maxBodyBytes = 1 << 20
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the session implementation.
type Dependencies interface {
	Snapshot(ctx context.Context) (types.Snapshot, error)
	SetSurface(ctx context.Context, height float64) (model.Result, error)

	DragEnd(ctx context.Context, id uuid.UUID, t roster.Translation) (model.Result, error)
	Tap(ctx context.Context, id uuid.UUID, boundary *float64) (model.Result, error)
	SetLabel(ctx context.Context, id uuid.UUID, l roster.Label, boundary *float64) (model.Result, error)

	StartClock(ctx context.Context) (model.Result, error)
	PauseClock(ctx context.Context) (model.Result, error)
	ResetClock(ctx context.Context) (model.Result, error)
	SetClock(ctx context.Context, text string) (model.Result, error)

	AppendLog(ctx context.Context, line string) (model.Result, error)
	ReplaceLog(ctx context.Context, text string) (model.Result, error)
	Report(ctx context.Context) (report.Report, error)
	MailAvailable() bool
	SendReport(ctx context.Context) (report.Report, error)
}

// Server wires HTTP routes for the session API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	sessionHandler *SessionHandler
	playersHandler *PlayersHandler
	clockHandler   *ClockHandler
	reportHandler  *ReportHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		sessionHandler: NewSessionHandler(deps),
		playersHandler: NewPlayersHandler(deps),
		clockHandler:   NewClockHandler(deps),
		reportHandler:  NewReportHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /session", MetricsMiddleware(s.sessionHandler.HandleGetSession, "session"))
	mux.HandleFunc("GET /labels", MetricsMiddleware(s.sessionHandler.HandleGetLabels, "labels"))
	mux.HandleFunc("POST /layout", MetricsMiddleware(s.sessionHandler.HandleLayout, "layout"))

	mux.HandleFunc("POST /players/{id}/drag", MetricsMiddleware(s.playersHandler.HandleDrag, "drag"))
	mux.HandleFunc("POST /players/{id}/tap", MetricsMiddleware(s.playersHandler.HandleTap, "tap"))
	mux.HandleFunc("POST /players/{id}/label", MetricsMiddleware(s.playersHandler.HandleLabel, "label"))

	mux.HandleFunc("POST /clock/start", MetricsMiddleware(s.clockHandler.HandleStart, "clock_start"))
	mux.HandleFunc("POST /clock/pause", MetricsMiddleware(s.clockHandler.HandlePause, "clock_pause"))
	mux.HandleFunc("POST /clock/reset", MetricsMiddleware(s.clockHandler.HandleReset, "clock_reset"))
	mux.HandleFunc("POST /clock/set", MetricsMiddleware(s.clockHandler.HandleSet, "clock_set"))

	mux.HandleFunc("GET /report", MetricsMiddleware(s.reportHandler.HandleGetReport, "report"))
	mux.HandleFunc("PUT /report", MetricsMiddleware(s.reportHandler.HandlePutReport, "report"))
	mux.HandleFunc("POST /report/lines", MetricsMiddleware(s.reportHandler.HandleAppendLine, "report_lines"))
	mux.HandleFunc("POST /report/send", MetricsMiddleware(s.reportHandler.HandleSendReport, "report_send"))
}

// commandResponse is returned by every mutating endpoint.
type commandResponse struct {
	Applied   bool            `json:"applied"`
	Duplicate bool            `json:"duplicate"`
	Lines     []string        `json:"lines,omitempty"`
	Session   *types.Snapshot `json:"session,omitempty"`
}

func newCommandResponse(res model.Result) commandResponse {
	return commandResponse{
		Applied:   res.Applied,
		Duplicate: res.Duplicate,
		Lines:     res.Lines,
		Session:   res.Snapshot,
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// commandContext tags the request context with the client command id.
func commandContext(r *http.Request) context.Context {
	return model.WithCommandID(r.Context(), strings.TrimSpace(r.Header.Get(CommandIDHeader)))
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched
// when optional is true.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(body).Decode(v)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF) && optional:
		return nil
	case errors.Is(err, io.EOF):
		return errors.New("empty body")
	default:
		return fmt.Errorf("invalid json: %w", err)
	}
}

// playerID parses the {id} path segment.
func playerID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid player id %q", r.PathValue("id"))
	}
	return id, nil
}
