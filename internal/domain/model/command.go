// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/okian/sideline/internal/domain/roster"
	"github.com/okian/sideline/internal/domain/types"
)

// Kind names a session command. Values double as metric labels.
type Kind string

// Command kinds.
const (
	KindLayout     Kind = "layout"
	KindDrag       Kind = "drag"
	KindTap        Kind = "tap"
	KindLabel      Kind = "label"
	KindClockStart Kind = "clock_start"
	KindClockPause Kind = "clock_pause"
	KindClockReset Kind = "clock_reset"
	KindClockSet   Kind = "clock_set"
	KindClockTick  Kind = "clock_tick"
	KindLogAppend  Kind = "log_append"
	KindLogReplace Kind = "log_replace"
	KindSnapshot   Kind = "snapshot"
)

// Command is a single user action or clock tick waiting for the dispatcher.
// Only the fields relevant to Kind are read.
type Command struct {
	ID   string // optional client id for idempotent retries
	Kind Kind

	PlayerID    uuid.UUID
	Translation roster.Translation
	Label       roster.Label
	Boundary    *float64 // overrides the stored field/bench boundary
	Height      float64  // surface height for KindLayout
	Text        string   // manual time, log line or edited report
	Run         uint64   // clock run a tick belongs to

	Issued time.Time

	// Reply receives exactly one Result when set. It must be buffered.
	Reply chan Result
}

// Mutates reports whether applying the command can change session state.
func (c *Command) Mutates() bool {
	return c.Kind != KindSnapshot
}

// Result is the dispatcher's answer to a Command.
type Result struct {
	// Applied is false when the command was accepted but changed nothing,
	// e.g. a malformed manual time or a repeated command id.
	Applied bool

	// Duplicate marks a command id that was already applied.
	Duplicate bool

	// Changes lists roster transitions produced by the command.
	Changes []roster.Change

	// Lines are the log lines recorded by the command.
	Lines []string

	// Snapshot is the session right after the command.
	Snapshot *types.Snapshot

	Err error
}
