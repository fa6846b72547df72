// Package control drives a running sideline session over HTTP.
package control

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/sideline/internal/domain/types"
	"github.com/okian/sideline/internal/report"
)

const commandIDHeader = "X-Command-ID"

// Result mirrors the API answer to a mutating call.
type Result struct {
	Applied   bool            `json:"applied"`
	Duplicate bool            `json:"duplicate"`
	Lines     []string        `json:"lines"`
	Session   *types.Snapshot `json:"session"`
}

// ReportView is the report as the API serves it.
type ReportView struct {
	report.Report
	MailAvailable bool `json:"mail_available"`
}

// Client wraps http.Client with the session API routes. Every mutating call
// carries a fresh command id, reused across Retries attempts.
type Client struct {
	baseURL string
	client  *http.Client
	retries int
	newID   func() string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) { cl.client = c }
}

// WithRetries sets how many times a failed transport call is retried.
func WithRetries(n int) ClientOption {
	return func(cl *Client) {
		if n >= 0 {
			cl.retries = n
		}
	}
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		retries: 1,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session fetches the current snapshot.
func (c *Client) Session(ctx context.Context) (types.Snapshot, error) {
	var snap types.Snapshot
	err := c.do(ctx, http.MethodGet, "/session", "", nil, "", &snap)
	return snap, err
}

// Layout reports the surface height.
func (c *Client) Layout(ctx context.Context, height float64) (Result, error) {
	return c.command(ctx, "/layout", map[string]float64{"height": height})
}

// Drag moves a player by dx, dy.
func (c *Client) Drag(ctx context.Context, id uuid.UUID, dx, dy float64) (Result, error) {
	return c.command(ctx, "/players/"+id.String()+"/drag", map[string]float64{"dx": dx, "dy": dy})
}

// Tap taps a player.
func (c *Client) Tap(ctx context.Context, id uuid.UUID) (Result, error) {
	return c.command(ctx, "/players/"+id.String()+"/tap", nil)
}

// Label picks a formation label for a player.
func (c *Client) Label(ctx context.Context, id uuid.UUID, label string) (Result, error) {
	return c.command(ctx, "/players/"+id.String()+"/label", map[string]string{"label": label})
}

// Clock sends start, pause or reset.
func (c *Client) Clock(ctx context.Context, action string) (Result, error) {
	return c.command(ctx, "/clock/"+action, nil)
}

// SetClock sets the clock manually from "mm:ss".
func (c *Client) SetClock(ctx context.Context, text string) (Result, error) {
	return c.command(ctx, "/clock/set", map[string]string{"time": text})
}

// AppendLine appends a free-form log line.
func (c *Client) AppendLine(ctx context.Context, line string) (Result, error) {
	return c.command(ctx, "/report/lines", map[string]string{"line": line})
}

// ReplaceReport replaces the log with edited text.
func (c *Client) ReplaceReport(ctx context.Context, text string) (Result, error) {
	var res Result
	err := c.do(ctx, http.MethodPut, "/report", c.newID(), strings.NewReader(text), "text/plain; charset=utf-8", &res)
	return res, err
}

// Report fetches the Match Report.
func (c *Client) Report(ctx context.Context) (ReportView, error) {
	var rep ReportView
	err := c.do(ctx, http.MethodGet, "/report", "", nil, "", &rep)
	return rep, err
}

// SendReport asks the service to mail the report.
func (c *Client) SendReport(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/report/send", "", nil, "", nil)
}

// Stats fetches service statistics.
func (c *Client) Stats(ctx context.Context) (map[string]interface{}, error) {
	var stats map[string]interface{}
	err := c.do(ctx, http.MethodGet, "/stats", "", nil, "", &stats)
	return stats, err
}

// PlayerID resolves a player by name or id.
func (c *Client) PlayerID(ctx context.Context, ref string) (uuid.UUID, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}
	snap, err := c.Session(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	for _, p := range snap.Players {
		if strings.EqualFold(p.Name, ref) {
			return p.ID, nil
		}
	}
	return uuid.Nil, fmt.Errorf("%w: %q", ErrPlayerNotFound, ref)
}

func (c *Client) command(ctx context.Context, path string, body any) (Result, error) {
	var (
		res     Result
		payload []byte
		err     error
	)
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return res, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}
	id := c.newID()
	for attempt := 0; ; attempt++ {
		res = Result{}
		err = c.do(ctx, http.MethodPost, path, id, bytes.NewReader(payload), "application/json", &res)
		if err == nil || !retryable(err) || attempt >= c.retries || ctx.Err() != nil {
			return res, err
		}
	}
}

func (c *Client) do(ctx context.Context, method, path, commandID string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if commandID != "" {
		req.Header.Set(commandIDHeader, commandID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(data, apiErr) != nil || apiErr.Message == "" {
			apiErr.Code = "http_" + fmt.Sprint(resp.StatusCode)
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// retryable reports whether err is a transport failure or a transient
// server answer.
func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusTooManyRequests ||
			(apiErr.Status == http.StatusServiceUnavailable && apiErr.Code != "mail_unavailable")
	}
	return errors.Is(err, ErrTransport)
}
