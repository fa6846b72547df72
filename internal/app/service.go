// Package service owns the match session: the roster and its selection, the
// match clock, the substitution log and the field/bench boundary. Every
// operation becomes a command that a single dispatcher applies in arrival
// order, so session state is only ever touched from one goroutine.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	commandqueue "github.com/okian/sideline/internal/adapters/mq/queue"
	"github.com/okian/sideline/internal/adapters/mq/worker"
	"github.com/okian/sideline/internal/domain/clock"
	"github.com/okian/sideline/internal/domain/dedupe"
	"github.com/okian/sideline/internal/domain/model"
	"github.com/okian/sideline/internal/domain/roster"
	"github.com/okian/sideline/internal/domain/sublog"
	"github.com/okian/sideline/internal/domain/types"
	"github.com/okian/sideline/internal/report"
	"github.com/okian/sideline/pkg/logger"
	"github.com/okian/sideline/pkg/metrics"
)

const (
	defaultQueueSize     = 1024
	defaultDedupeSize    = 4096
	defaultSurfaceHeight = 800
	stopTimeout          = 5 * time.Second
)

// Service is the session controller.
type Service struct {
	mu sync.RWMutex

	// Session state. Only the dispatcher goroutine reads or writes these
	// once the service is started.
	roster   *roster.Roster
	clock    *clock.Clock
	log      *sublog.Log
	boundary float64
	version  uint64

	// Core components
	deduper    dedupe.Deduper
	queue      *commandqueue.InMemoryQueue
	dispatcher *worker.InMemoryWorker
	ticker     *clock.Ticker
	emitTick   clock.TickFunc
	mailer     report.Mailer
	clk        clockwork.Clock
	observers  *observers
	last       atomic.Pointer[types.Snapshot]

	// Mutating commands queued under a client id, closed once applied.
	inflightMu sync.Mutex
	inflight   map[string]chan struct{}

	// Configuration
	queueSize     int
	dedupeSize    int
	surfaceHeight float64
	playerNames   []string

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		queueSize:     defaultQueueSize,
		dedupeSize:    defaultDedupeSize,
		surfaceHeight: defaultSurfaceHeight,
		playerNames:   append([]string(nil), roster.DefaultNames...),
		mailer:        report.Unavailable{},
		clk:           clockwork.NewRealClock(),
		observers:     newObservers(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start seeds a fresh session and starts the dispatcher.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("session")
	}

	r, err := roster.New(roster.SeedsFor(s.playerNames))
	if err != nil {
		return fmt.Errorf("seed roster: %w", err)
	}
	s.roster = r
	s.clock = clock.New()
	s.log = sublog.New()
	s.boundary = s.surfaceHeight / 2
	s.version = 0

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.inflight = make(map[string]chan struct{})
	q := commandqueue.NewInMemoryQueue(commandqueue.WithCapacity(s.queueSize))
	s.queue = q
	s.ticker = clock.NewTicker(s.clk)
	s.emitTick = func(run uint64) {
		// Never blocks: the ticker goroutine must not wait on the dispatcher.
		if err := q.Enqueue(context.Background(), &model.Command{Kind: model.KindClockTick, Run: run}); err != nil {
			s.logger.Debug(context.Background(), "tick dropped", logger.Int("run", int(run)), logger.Error(err))
		}
	}

	snap := s.snapshot()
	s.last.Store(&snap)
	s.observers.reopen()

	s.dispatcher = worker.NewInMemoryWorker(q, s,
		worker.WithName("dispatcher"),
		worker.WithLogger(s.logger.Named("dispatcher")),
	)
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	go s.dispatcher.Run(runCtx)

	metrics.UpdateClock(0, false)

	s.started = true
	s.logger.Info(ctx, "session started",
		logger.Int("players", len(s.playerNames)),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Float64("boundary", s.boundary),
		logger.Bool("mail", s.mailer.Available()),
	)
	return nil
}

// Stop drains pending commands, stops the clock ticker and ends every
// subscription.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping session...")

	_ = s.queue.Close()

	waitCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()
	select {
	case <-s.dispatcher.Done():
	case <-waitCtx.Done():
		s.logger.Warn(ctx, "dispatcher did not drain in time")
		_ = s.dispatcher.Shutdown(ctx)
	}

	s.ticker.Stop()
	s.cancel()
	s.observers.closeAll()
	s.releaseInflight()

	s.started = false
	s.logger.Info(ctx, "session stopped")
}

// submit queues cmd and waits for the dispatcher's result.
func (s *Service) submit(ctx context.Context, cmd *model.Command) (model.Result, error) {
	s.mu.RLock()
	started, q := s.started, s.queue
	s.mu.RUnlock()
	if !started {
		return model.Result{}, ErrNotStarted
	}

	cmd.ID = model.CommandIDFrom(ctx)
	tracked := cmd.ID != "" && cmd.Mutates()
	if tracked {
		dup, wait := s.track(ctx, cmd.ID)
		if wait != nil {
			// The original is still queued; answer once it has run.
			select {
			case <-wait:
				return s.submit(ctx, cmd)
			case <-ctx.Done():
				return model.Result{}, ctx.Err()
			}
		}
		if dup {
			metrics.RecordCommandDuplicate()
			s.logger.Debug(ctx, "duplicate command", logger.String("command_id", cmd.ID), logger.String("kind", string(cmd.Kind)))
			snap := s.Latest()
			return model.Result{Duplicate: true, Snapshot: &snap}, nil
		}
	}

	cmd.Issued = s.clk.Now()
	cmd.Reply = make(chan model.Result, 1)
	if err := q.Enqueue(ctx, cmd); err != nil {
		if tracked {
			s.settle(ctx, cmd, false)
		}
		switch {
		case errors.Is(err, commandqueue.ErrQueueFull):
			return model.Result{}, fmt.Errorf("%w: %w", ErrBackpressure, err)
		case errors.Is(err, commandqueue.ErrClosed):
			return model.Result{}, fmt.Errorf("%w: %w", ErrStopped, err)
		default:
			return model.Result{}, err
		}
	}

	select {
	case res := <-cmd.Reply:
		return res, res.Err
	case <-ctx.Done():
		return model.Result{}, ctx.Err()
	}
}

// track records id. It reports whether id was already recorded and, when
// the command holding id has not run yet, a channel closed once it has.
func (s *Service) track(ctx context.Context, id string) (bool, <-chan struct{}) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()

	if wait, ok := s.inflight[id]; ok {
		return true, wait
	}
	if s.deduper.SeenAndRecord(ctx, id) {
		return true, nil
	}
	s.inflight[id] = make(chan struct{})
	return false, nil
}

// settle releases retries waiting on cmd. A command that did not apply
// cleanly has its id forgotten so a retry runs it again.
func (s *Service) settle(ctx context.Context, cmd *model.Command, ok bool) {
	if cmd.ID == "" || !cmd.Mutates() {
		return
	}
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()

	if !ok {
		s.deduper.Unrecord(ctx, cmd.ID)
	}
	if wait, found := s.inflight[cmd.ID]; found {
		close(wait)
		delete(s.inflight, cmd.ID)
	}
}

// releaseInflight wakes retries whose original was never dispatched.
func (s *Service) releaseInflight() {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()

	for id, wait := range s.inflight {
		close(wait)
		delete(s.inflight, id)
	}
}

// SetSurface records a new surface layout; the boundary becomes height/2.
func (s *Service) SetSurface(ctx context.Context, height float64) (model.Result, error) {
	return s.submit(ctx, &model.Command{Kind: model.KindLayout, Height: height})
}

// DragEnd moves a player by the drag translation.
func (s *Service) DragEnd(ctx context.Context, id uuid.UUID, t roster.Translation) (model.Result, error) {
	return s.submit(ctx, &model.Command{Kind: model.KindDrag, PlayerID: id, Translation: t})
}

// Tap toggles a player in the selection; the second distinct tap swaps the
// pair. boundary overrides the stored boundary when not nil.
func (s *Service) Tap(ctx context.Context, id uuid.UUID, boundary *float64) (model.Result, error) {
	return s.submit(ctx, &model.Command{Kind: model.KindTap, PlayerID: id, Boundary: boundary})
}

// SetLabel assigns a formation label to a player.
func (s *Service) SetLabel(ctx context.Context, id uuid.UUID, l roster.Label, boundary *float64) (model.Result, error) {
	return s.submit(ctx, &model.Command{Kind: model.KindLabel, PlayerID: id, Label: l, Boundary: boundary})
}

// StartClock starts the match clock. Applied is false if it was running.
func (s *Service) StartClock(ctx context.Context) (model.Result, error) {
	return s.submit(ctx, &model.Command{Kind: model.KindClockStart})
}

// PauseClock pauses the match clock.
func (s *Service) PauseClock(ctx context.Context) (model.Result, error) {
	return s.submit(ctx, &model.Command{Kind: model.KindClockPause})
}

// ResetClock stops the match clock and sets it to 00:00.
func (s *Service) ResetClock(ctx context.Context) (model.Result, error) {
	return s.submit(ctx, &model.Command{Kind: model.KindClockReset})
}

// SetClock sets the elapsed time from "mm:ss". Malformed text is not an
// error; the result is simply not applied.
func (s *Service) SetClock(ctx context.Context, text string) (model.Result, error) {
	return s.submit(ctx, &model.Command{Kind: model.KindClockSet, Text: text})
}

// AppendLog adds a free-form line to the substitution log.
func (s *Service) AppendLog(ctx context.Context, line string) (model.Result, error) {
	return s.submit(ctx, &model.Command{Kind: model.KindLogAppend, Text: line})
}

// ReplaceLog replaces the log with edited report text, one line per row.
func (s *Service) ReplaceLog(ctx context.Context, text string) (model.Result, error) {
	return s.submit(ctx, &model.Command{Kind: model.KindLogReplace, Text: text})
}

// Snapshot returns the session as seen by the dispatcher, after every
// command queued before it.
func (s *Service) Snapshot(ctx context.Context) (types.Snapshot, error) {
	res, err := s.submit(ctx, &model.Command{Kind: model.KindSnapshot})
	if err != nil {
		return types.Snapshot{}, err
	}
	return *res.Snapshot, nil
}

// Latest returns the last published snapshot without queueing.
func (s *Service) Latest() types.Snapshot {
	if snap := s.last.Load(); snap != nil {
		return *snap
	}
	return types.Snapshot{}
}

// Log returns the substitution log.
func (s *Service) Log(ctx context.Context) ([]string, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Log, nil
}

// Report composes the Match Report from the current log.
func (s *Service) Report(ctx context.Context) (report.Report, error) {
	lines, err := s.Log(ctx)
	if err != nil {
		return report.Report{}, err
	}
	return report.Compose(lines), nil
}

// MailAvailable reports whether SendReport can deliver.
func (s *Service) MailAvailable() bool {
	return s.mailer.Available()
}

// SendReport mails the Match Report. Without a mail capability it fails
// with report.ErrMailUnavailable and changes nothing.
func (s *Service) SendReport(ctx context.Context) (report.Report, error) {
	if !s.mailer.Available() {
		metrics.RecordReportSent("unavailable")
		return report.Report{}, report.ErrMailUnavailable
	}
	r, err := s.Report(ctx)
	if err != nil {
		return report.Report{}, err
	}
	if err := s.mailer.Send(ctx, r); err != nil {
		metrics.RecordReportSent("error")
		s.logger.Error(ctx, "report not sent", logger.Error(err))
		return r, err
	}
	metrics.RecordReportSent("sent")
	s.logger.Info(ctx, "report sent", logger.Int("lines", len(r.Lines)))
	return r, nil
}

// Subscribe registers a read-only observer. The channel receives a snapshot
// after every applied command and is closed by the returned cancel func or
// by Stop. Slow observers miss frames.
func (s *Service) Subscribe(buffer int) (<-chan types.Snapshot, func()) {
	return s.observers.add(buffer)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":       s.started,
		"queueSize":     s.queueSize,
		"dedupeSize":    s.dedupeSize,
		"observers":     s.observers.count(),
		"mailAvailable": s.mailer.Available(),
	}

	if s.started {
		snap := s.Latest()
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["dedupeEntries"] = s.deduper.Size()
		stats["version"] = snap.Version
		stats["clockElapsed"] = snap.Clock.Elapsed
		stats["clockRunning"] = snap.Clock.Running
		stats["logLines"] = len(snap.Log)

		metrics.UpdateQueueSize(queueLen)
	}

	return stats
}
