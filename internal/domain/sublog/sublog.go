// Package sublog keeps the ordered substitution log of a match and renders
// roster changes as report lines.
package sublog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/okian/sideline/internal/domain/clock"
	"github.com/okian/sideline/internal/domain/roster"
)

// Log is an append-only list of lines that can also be replaced wholesale
// when the report is edited. It is not safe for concurrent use.
type Log struct {
	lines []string
}

// New returns an empty log.
func New() *Log {
	return &Log{}
}

// Append adds line at the end.
func (l *Log) Append(line string) {
	l.lines = append(l.lines, line)
}

// ReplaceAll overwrites the log with lines.
func (l *Log) ReplaceAll(lines []string) {
	l.lines = slices.Clone(lines)
}

// ReplaceText splits edited report text on newlines and replaces the log.
// Empty lines are kept.
func (l *Log) ReplaceText(text string) {
	l.lines = strings.Split(text, "\n")
}

// Lines returns a copy of the log.
func (l *Log) Lines() []string {
	return slices.Clone(l.lines)
}

// Text joins the log with newlines.
func (l *Log) Text() string {
	return strings.Join(l.lines, "\n")
}

// Len returns the number of lines.
func (l *Log) Len() int {
	return len(l.lines)
}

// Render formats c as a log line stamped with the elapsed match time.
func Render(c roster.Change, elapsed int) string {
	at := clock.Format(elapsed)
	switch c.Kind {
	case roster.Substitution:
		return fmt.Sprintf("%s is subbed in for %s in position %s at %s", c.Player, c.Other, c.To, at)
	case roster.Move:
		return fmt.Sprintf("%s is moved from %s to %s at %s", c.Player, c.From, c.To, at)
	case roster.Assignment:
		return fmt.Sprintf("%s is moved to %s at %s", c.Player, c.To, at)
	default:
		return fmt.Sprintf("%s: %s at %s", c.Kind, c.Player, at)
	}
}

// Record renders every change and appends it in order.
func (l *Log) Record(elapsed int, changes ...roster.Change) {
	for _, c := range changes {
		l.Append(Render(c, elapsed))
	}
}
