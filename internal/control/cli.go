package control

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/okian/sideline/internal/domain/types"
)

const (
	defaultBaseURL = "http://localhost:9080"
	defaultTimeout = 10 * time.Second
)

// Config holds the CLI flags.
type Config struct {
	BaseURL string        // Base URL of the service
	Timeout time.Duration // HTTP request timeout
	Retries int           // Retries for transient failures
	JSON    bool          // Print raw JSON instead of text
}

// ParseFlags reads global flags and returns the remaining arguments.
func ParseFlags(args []string, stderr io.Writer) (*Config, []string, error) {
	cfg := &Config{}
	fs := flag.NewFlagSet("sidelinectl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.BaseURL, "url", envOr("SIDELINE_URL", defaultBaseURL), "Base URL of the service")
	fs.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	fs.IntVar(&cfg.Retries, "retries", 1, "Retries for transient failures")
	fs.BoolVar(&cfg.JSON, "json", false, "Print raw JSON")
	fs.Usage = func() { ShowHelp(stderr) }
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return cfg, fs.Args(), nil
}

// Run executes one CLI command against the service.
func Run(ctx context.Context, cfg *Config, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", ErrUsage)
	}
	c := NewClient(cfg.BaseURL, cfg.Timeout, WithRetries(cfg.Retries))
	p := printer{out: out, json: cfg.JSON}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "state":
		snap, err := c.Session(ctx)
		if err != nil {
			return err
		}
		return p.session(snap)

	case "stats":
		stats, err := c.Stats(ctx)
		if err != nil {
			return err
		}
		return p.raw(stats)

	case "layout":
		if len(rest) != 1 {
			return fmt.Errorf("%w: layout HEIGHT", ErrUsage)
		}
		h, err := strconv.ParseFloat(rest[0], 64)
		if err != nil {
			return fmt.Errorf("%w: layout HEIGHT: %w", ErrUsage, err)
		}
		return p.result(c.Layout(ctx, h))

	case "drag":
		if len(rest) != 3 {
			return fmt.Errorf("%w: drag PLAYER DX DY", ErrUsage)
		}
		dx, errX := strconv.ParseFloat(rest[1], 64)
		dy, errY := strconv.ParseFloat(rest[2], 64)
		if errX != nil || errY != nil {
			return fmt.Errorf("%w: drag PLAYER DX DY", ErrUsage)
		}
		id, err := c.PlayerID(ctx, rest[0])
		if err != nil {
			return err
		}
		return p.result(c.Drag(ctx, id, dx, dy))

	case "tap":
		if len(rest) != 1 {
			return fmt.Errorf("%w: tap PLAYER", ErrUsage)
		}
		id, err := c.PlayerID(ctx, rest[0])
		if err != nil {
			return err
		}
		return p.result(c.Tap(ctx, id))

	case "swap":
		if len(rest) != 2 {
			return fmt.Errorf("%w: swap PLAYER PLAYER", ErrUsage)
		}
		a, err := c.PlayerID(ctx, rest[0])
		if err != nil {
			return err
		}
		b, err := c.PlayerID(ctx, rest[1])
		if err != nil {
			return err
		}
		if _, err := c.Tap(ctx, a); err != nil {
			return err
		}
		return p.result(c.Tap(ctx, b))

	case "label":
		if len(rest) != 2 {
			return fmt.Errorf("%w: label PLAYER LABEL", ErrUsage)
		}
		id, err := c.PlayerID(ctx, rest[0])
		if err != nil {
			return err
		}
		return p.result(c.Label(ctx, id, rest[1]))

	case "clock":
		return runClock(ctx, c, p, rest)

	case "log":
		if len(rest) == 0 {
			return fmt.Errorf("%w: log TEXT...", ErrUsage)
		}
		return p.result(c.AppendLine(ctx, strings.Join(rest, " ")))

	case "report":
		rep, err := c.Report(ctx)
		if err != nil {
			return err
		}
		if p.json {
			return p.raw(rep)
		}
		_, err = fmt.Fprintf(out, "%s\n\n%s\n", rep.Subject, rep.Body)
		return err

	case "report-edit":
		if len(rest) != 1 {
			return fmt.Errorf("%w: report-edit FILE|-", ErrUsage)
		}
		text, err := readInput(rest[0])
		if err != nil {
			return err
		}
		return p.result(c.ReplaceReport(ctx, text))

	case "report-send":
		if err := c.SendReport(ctx); err != nil {
			return err
		}
		_, err := fmt.Fprintln(out, "report sent")
		return err

	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}
}

func runClock(ctx context.Context, c *Client, p printer, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: clock start|pause|reset|set MM:SS", ErrUsage)
	}
	switch args[0] {
	case "start", "pause", "reset":
		return p.result(c.Clock(ctx, args[0]))
	case "set":
		if len(args) != 2 {
			return fmt.Errorf("%w: clock set MM:SS", ErrUsage)
		}
		return p.result(c.SetClock(ctx, args[1]))
	default:
		return fmt.Errorf("%w: clock %q", ErrUnknownCommand, args[0])
	}
}

func readInput(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read report text: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

type printer struct {
	out  io.Writer
	json bool
}

func (p printer) raw(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p printer) result(res Result, err error) error {
	if err != nil {
		return err
	}
	if p.json {
		return p.raw(res)
	}
	status := "ignored"
	switch {
	case res.Duplicate:
		status = "duplicate"
	case res.Applied:
		status = "applied"
	}
	if _, err := fmt.Fprintln(p.out, status); err != nil {
		return err
	}
	for _, line := range res.Lines {
		if _, err := fmt.Fprintln(p.out, "  "+line); err != nil {
			return err
		}
	}
	if res.Session != nil {
		return p.session(*res.Session)
	}
	return nil
}

func (p printer) session(snap types.Snapshot) error {
	if p.json {
		return p.raw(snap)
	}
	state := "stopped"
	if snap.Clock.Running {
		state = "running"
	}
	fmt.Fprintf(p.out, "clock %s (%s)  boundary %.0f  version %d\n", snap.Clock.Display, state, snap.Boundary, snap.Version)
	for _, pl := range snap.Players {
		where := "bench"
		if pl.OnField {
			where = "field"
		}
		mark := " "
		if pl.Selected {
			mark = "*"
		}
		fmt.Fprintf(p.out, "%s %-10s %-4s %-5s (%.0f,%.0f)\n", mark, pl.Name, pl.Label, where, pl.Position.X, pl.Position.Y)
	}
	_, err := fmt.Fprintf(p.out, "log: %d lines\n", len(snap.Log))
	return err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// ShowHelp prints usage information.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `sidelinectl drives a running sideline session.

Usage:
  sidelinectl [flags] COMMAND [ARGS]

Flags:
  -url string       Base URL of the service (default $SIDELINE_URL or http://localhost:9080)
  -timeout duration HTTP request timeout (default 10s)
  -retries int      Retries for transient failures (default 1)
  -json             Print raw JSON

Commands:
  state                        Show players, clock and log size
  stats                        Show service statistics
  layout HEIGHT                Report the surface height
  drag PLAYER DX DY            Move a player by a drag translation
  tap PLAYER                   Tap a player
  swap PLAYER PLAYER           Tap two players in turn
  label PLAYER LABEL           Pick a label (GK CB LB RB CM CAM CDM LW RW ST None)
  clock start|pause|reset      Control the match clock
  clock set MM:SS              Set the clock manually
  log TEXT...                  Append a line to the log
  report                       Show the Match Report
  report-edit FILE|-           Replace the log with edited text
  report-send                  Mail the Match Report

PLAYER is a player name or id.
`)
}
