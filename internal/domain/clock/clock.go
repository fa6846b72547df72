// Package clock implements the match clock: elapsed seconds, a running flag,
// manual "mm:ss" overrides and the one-second tick source that advances it.
package clock

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const secondsPerMinute = 60

// Clock is the session clock. Each Start opens a new run; ticks carry the
// run they were scheduled for and are ignored once that run has been paused
// or reset. Clock is not safe for concurrent use.
type Clock struct {
	elapsed int
	running bool
	run     uint64
}

// New returns an idle clock at 00:00.
func New() *Clock {
	return &Clock{}
}

// Elapsed returns the elapsed seconds.
func (c *Clock) Elapsed() int { return c.elapsed }

// Running reports whether the clock is counting.
func (c *Clock) Running() bool { return c.running }

// Run identifies the current run. It changes on every Start.
func (c *Clock) Run() uint64 { return c.run }

// Start begins a new run and returns its id. ok is false when the clock was
// already running, in which case the current run continues.
func (c *Clock) Start() (run uint64, ok bool) {
	if c.running {
		return c.run, false
	}
	c.run++
	c.running = true
	return c.run, true
}

// Pause stops counting and keeps the elapsed time.
func (c *Clock) Pause() bool {
	if !c.running {
		return false
	}
	c.running = false
	return true
}

// Reset stops counting and goes back to zero.
func (c *Clock) Reset() {
	c.running = false
	c.elapsed = 0
}

// Tick adds one second if run is the active run.
func (c *Clock) Tick(run uint64) bool {
	if !c.running || run != c.run {
		return false
	}
	c.elapsed++
	return true
}

// SetManual replaces the elapsed time with text parsed as "mm:ss". Malformed
// input leaves the clock untouched and returns false. Running-ness is kept.
func (c *Clock) SetManual(text string) bool {
	secs, ok := ParseManual(text)
	if !ok {
		return false
	}
	c.elapsed = secs
	return true
}

// ParseManual parses "mm:ss" into seconds. Seconds must be in [0, 60) and
// the total must fit in an int. Empty fields around colons are skipped, so
// "5:07:" is read as 5:07.
func ParseManual(text string) (int, bool) {
	parts := strings.FieldsFunc(text, func(r rune) bool { return r == ':' })
	if len(parts) != 2 {
		return 0, false
	}
	mins, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	secs, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	if mins < 0 || secs < 0 || secs >= secondsPerMinute {
		return 0, false
	}
	if mins > (math.MaxInt-secs)/secondsPerMinute {
		return 0, false
	}
	return mins*secondsPerMinute + secs, true
}

// Format renders seconds as zero-padded "mm:ss".
func Format(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/secondsPerMinute, seconds%secondsPerMinute)
}
