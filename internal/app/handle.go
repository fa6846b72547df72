package service

import (
	"context"
	"fmt"

	"github.com/okian/sideline/internal/domain/clock"
	"github.com/okian/sideline/internal/domain/model"
	"github.com/okian/sideline/internal/domain/roster"
	"github.com/okian/sideline/internal/domain/types"
	"github.com/okian/sideline/pkg/logger"
	"github.com/okian/sideline/pkg/metrics"
)

// Handle applies one command. It runs on the dispatcher goroutine only.
// A command id is settled once the command has run, even if it panicked.
func (s *Service) Handle(ctx context.Context, cmd *model.Command) (res model.Result) {
	finished := false
	defer func() { s.settle(ctx, cmd, finished && res.Err == nil) }()
	res = s.apply(ctx, cmd)
	finished = true
	return res
}

func (s *Service) apply(ctx context.Context, cmd *model.Command) model.Result {
	var res model.Result

	switch cmd.Kind {
	case model.KindLayout:
		if cmd.Height <= 0 {
			res.Err = fmt.Errorf("%w: %v", ErrInvalidLayout, cmd.Height)
			break
		}
		s.boundary = cmd.Height / 2
		res.Applied = true
		s.logger.Debug(ctx, "surface laid out", logger.Float64("boundary", s.boundary))

	case model.KindDrag:
		if err := s.roster.DragEnd(cmd.PlayerID, cmd.Translation); err != nil {
			res.Err = err
			break
		}
		res.Applied = true

	case model.KindTap:
		res = s.tap(ctx, cmd)

	case model.KindLabel:
		change, err := s.roster.SetLabel(cmd.PlayerID, cmd.Label, s.boundaryFor(cmd))
		if err != nil {
			res.Err = err
			break
		}
		res.Applied = true
		if change != nil {
			res.Changes = []roster.Change{*change}
			res.Lines = s.record(res.Changes)
		}

	case model.KindClockStart:
		if run, ok := s.clock.Start(); ok {
			s.ticker.Start(run, s.emitTick)
			res.Applied = true
			s.logger.Debug(ctx, "clock started", logger.Int("elapsed", s.clock.Elapsed()))
		}

	case model.KindClockPause:
		if s.clock.Pause() {
			s.ticker.Stop()
			res.Applied = true
			s.logger.Debug(ctx, "clock paused", logger.Int("elapsed", s.clock.Elapsed()))
		}

	case model.KindClockReset:
		s.ticker.Stop()
		s.clock.Reset()
		res.Applied = true
		s.logger.Debug(ctx, "clock reset")

	case model.KindClockSet:
		res.Applied = s.clock.SetManual(cmd.Text)
		if !res.Applied {
			s.logger.Debug(ctx, "manual time ignored", logger.String("text", cmd.Text))
		}

	case model.KindClockTick:
		if s.clock.Tick(cmd.Run) {
			res.Applied = true
			metrics.RecordClockTick()
		} else {
			metrics.RecordStaleTick()
		}

	case model.KindLogAppend:
		s.log.Append(cmd.Text)
		res.Applied = true
		res.Lines = []string{cmd.Text}
		metrics.RecordLogLine("manual")

	case model.KindLogReplace:
		s.log.ReplaceText(cmd.Text)
		res.Applied = true
		s.logger.Debug(ctx, "log replaced", logger.Int("lines", s.log.Len()))

	case model.KindSnapshot:

	default:
		res.Err = fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Kind)
	}

	if res.Err == nil && res.Applied {
		s.version++
		metrics.RecordCommandApplied(string(cmd.Kind))
		metrics.UpdateClock(s.clock.Elapsed(), s.clock.Running())
	}

	snap := s.snapshot()
	res.Snapshot = &snap
	if res.Err == nil && res.Applied {
		s.last.Store(&snap)
		s.observers.publish(snap)
	}
	return res
}

// tap runs the selection state machine and records any swap.
func (s *Service) tap(ctx context.Context, cmd *model.Command) model.Result {
	pending := len(s.roster.Selection())
	wasSelected := s.roster.IsSelected(cmd.PlayerID)

	changes, err := s.roster.Tap(cmd.PlayerID, s.boundaryFor(cmd))
	if err != nil {
		return model.Result{Err: err}
	}

	res := model.Result{Applied: true, Changes: changes}
	if !wasSelected && pending == 1 {
		metrics.RecordSwap()
		res.Lines = s.record(changes)
		s.logger.Debug(ctx, "players swapped",
			logger.String("player", cmd.PlayerID.String()),
			logger.Int("lines", len(res.Lines)),
		)
	}
	return res
}

// record stamps changes with the current match time and appends them.
func (s *Service) record(changes []roster.Change) []string {
	before := s.log.Len()
	s.log.Record(s.clock.Elapsed(), changes...)
	for _, c := range changes {
		metrics.RecordLogLine(c.Kind.String())
	}
	return s.log.Lines()[before:]
}

func (s *Service) boundaryFor(cmd *model.Command) float64 {
	if cmd.Boundary != nil {
		return *cmd.Boundary
	}
	return s.boundary
}

// snapshot builds a read-only view of the session.
func (s *Service) snapshot() types.Snapshot {
	players := s.roster.Players()
	views := make([]types.PlayerView, len(players))
	for i, p := range players {
		views[i] = types.PlayerView{
			ID:       p.ID,
			Name:     p.Name,
			Label:    p.Label,
			Position: p.Position,
			OnField:  roster.OnField(p, s.boundary),
			Selected: s.roster.IsSelected(p.ID),
		}
	}
	return types.Snapshot{
		Version: s.version,
		Players: views,
		Clock: types.ClockView{
			Elapsed: s.clock.Elapsed(),
			Display: clock.Format(s.clock.Elapsed()),
			Running: s.clock.Running(),
		},
		Boundary: s.boundary,
		Log:      s.log.Lines(),
	}
}
