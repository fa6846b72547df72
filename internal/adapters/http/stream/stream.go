// Package stream pushes session snapshots to read-only observers over
// websockets.
package stream

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/okian/sideline/internal/domain/types"
	"github.com/okian/sideline/pkg/logger"
	"github.com/okian/sideline/pkg/metrics"
)

// Source is the part of the session an observer can see.
type Source interface {
	Latest() types.Snapshot
	Subscribe(buffer int) (<-chan types.Snapshot, func())
}

// Config holds websocket connection settings.
type Config struct {
	WriteTimeout    time.Duration
	PongTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	Buffer          int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConfig returns default websocket settings.
func DefaultConfig() Config {
	return Config{
		WriteTimeout:    10 * time.Second,
		PongTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  512,
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		Buffer:          16,
	}
}

// Handler upgrades GET /ws requests and forwards snapshots.
type Handler struct {
	source   Source
	config   Config
	upgrader websocket.Upgrader
	logger   logger.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithConfig replaces the connection settings.
func WithConfig(c Config) Option {
	return func(h *Handler) { h.config = c }
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// NewHandler creates a stream handler over source.
func NewHandler(source Source, opts ...Option) *Handler {
	h := &Handler{source: source, config: DefaultConfig()}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Get().Named("stream")
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  h.config.ReadBufferSize,
		WriteBufferSize: h.config.WriteBufferSize,
		CheckOrigin:     h.config.CheckOrigin,
	}
	return h
}

// ServeHTTP upgrades the connection and blocks until the observer leaves.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		metrics.RecordErrorByComponent("stream", "upgrade")
		h.logger.Debug(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	updates, unsubscribe := h.source.Subscribe(h.config.Buffer)
	defer unsubscribe()

	h.logger.Info(ctx, "observer connected", logger.String("connection_id", id))
	go h.readPump(conn, cancel)
	err = h.writePump(ctx, conn, updates)
	h.logger.Info(ctx, "observer disconnected",
		logger.String("connection_id", id),
		logger.Any("reason", err),
	)
}

// readPump discards client frames; it exists to process pongs and detect
// close.
func (h *Handler) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(h.config.MaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(h.config.PongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.config.PongTimeout))
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

var errSessionClosed = errors.New("session closed")

func (h *Handler) writePump(ctx context.Context, conn *websocket.Conn, updates <-chan types.Snapshot) error {
	ping := time.NewTicker(h.config.PingInterval)
	defer ping.Stop()

	latest := h.source.Latest()
	if err := h.send(conn, latest); err != nil {
		return err
	}
	sent := latest.Version

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, errSessionClosed.Error()),
					time.Now().Add(h.config.WriteTimeout))
				return errSessionClosed
			}
			if snap.Version <= sent {
				continue
			}
			if err := h.send(conn, snap); err != nil {
				return err
			}
			sent = snap.Version
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(h.config.WriteTimeout)); err != nil {
				return err
			}
		}
	}
}

func (h *Handler) send(conn *websocket.Conn, snap types.Snapshot) error {
	_ = conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
	return conn.WriteJSON(snap)
}
