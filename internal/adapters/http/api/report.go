package api

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/okian/sideline/internal/domain/model"
	"github.com/okian/sideline/internal/report"
)

// ReportDependencies defines the log and report operations.
type ReportDependencies interface {
	AppendLog(ctx context.Context, line string) (model.Result, error)
	ReplaceLog(ctx context.Context, text string) (model.Result, error)
	Report(ctx context.Context) (report.Report, error)
	MailAvailable() bool
	SendReport(ctx context.Context) (report.Report, error)
}

// ReportHandler handles report review, edit and send requests.
type ReportHandler struct {
	deps ReportDependencies
}

// NewReportHandler creates a new report handler.
func NewReportHandler(deps ReportDependencies) *ReportHandler {
	return &ReportHandler{deps: deps}
}

type reportResponse struct {
	report.Report
	MailAvailable bool `json:"mail_available"`
}

type reportTextRequest struct {
	Text string `json:"text"`
}

type appendLineRequest struct {
	Line string `json:"line"`
}

type sendResponse struct {
	Status  string `json:"status"`
	Subject string `json:"subject"`
	Lines   int    `json:"lines"`
}

// HandleGetReport handles GET /report requests.
func (h *ReportHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_report"
	rep, err := h.deps.Report(r.Context())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, reportResponse{Report: rep, MailAvailable: h.deps.MailAvailable()})
}

// HandlePutReport handles PUT /report requests. The body is the edited
// report text, either text/plain or JSON {"text": "..."}.
func (h *ReportHandler) HandlePutReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_report"
	text, err := readReportText(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.ReplaceLog(commandContext(r), text)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newCommandResponse(res))
}

// HandleAppendLine handles POST /report/lines requests.
func (h *ReportHandler) HandleAppendLine(w http.ResponseWriter, r *http.Request) {
	const op = "api.append_line"
	var req appendLineRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.AppendLog(commandContext(r), req.Line)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newCommandResponse(res))
}

// HandleSendReport handles POST /report/send requests.
func (h *ReportHandler) HandleSendReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.send_report"
	rep, err := h.deps.SendReport(r.Context())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, sendResponse{Status: "sent", Subject: rep.Subject, Lines: len(rep.Lines)})
}

func readReportText(w http.ResponseWriter, r *http.Request) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req reportTextRequest
		if err := decodeJSON(w, r, &req, false); err != nil {
			return "", err
		}
		return req.Text, nil
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", errors.New("report too large")
		}
		return "", err
	}
	return string(raw), nil
}
