// Package worker runs the single dispatcher that applies session commands
// one at a time in arrival order.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/sideline/internal/domain/model"
	"github.com/okian/sideline/pkg/logger"
	"github.com/okian/sideline/pkg/metrics"
)

// Command abstracts what the dispatcher reads off the queue.
type Command = model.Command

// Handler applies one command to session state. It is only ever called from
// the dispatcher goroutine.
type Handler interface {
	Handle(ctx context.Context, c *Command) model.Result
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, c *Command) model.Result

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, c *Command) model.Result { return f(ctx, c) }

// Queue defines how the dispatcher receives commands.
type Queue interface {
	Dequeue(ctx context.Context) <-chan *Command
}

// Worker consumes commands and hands them to a Handler.
type Worker interface {
	// Run starts the dispatch loop until ctx is canceled, Shutdown is called
	// or the queue is closed and drained.
	Run(ctx context.Context)

	// Shutdown stops the loop without draining the queue.
	Shutdown(ctx context.Context) error

	// Done is closed when Run has returned.
	Done() <-chan struct{}
}

// InMemoryWorker is the dispatcher.
type InMemoryWorker struct {
	queue   Queue
	handler Handler
	name    string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a dispatcher with configuration options.
func NewInMemoryWorker(queue Queue, handler Handler, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		handler:  handler,
		name:     "dispatcher",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}

	return w
}

// Run starts the dispatch loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	commands := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case cmd, ok := <-commands:
			if !ok {
				return
			}
			w.dispatch(ctx, cmd)
		}
	}
}

// Shutdown stops the dispatcher and waits for the loop to exit.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

// dispatch applies cmd and delivers the result to its reply channel.
func (w *InMemoryWorker) dispatch(ctx context.Context, cmd *Command) {
	start := time.Now()
	res := w.apply(ctx, cmd)
	metrics.RecordCommandLatency(float64(time.Since(start).Microseconds()) / 1e3)

	if res.Err != nil {
		metrics.RecordErrorByComponent("dispatcher", string(cmd.Kind))
		w.logger.Debug(ctx, "command rejected",
			logger.String("kind", string(cmd.Kind)),
			logger.String("command_id", cmd.ID),
			logger.Error(res.Err),
		)
	}

	if cmd.Reply == nil {
		return
	}
	select {
	case cmd.Reply <- res:
	default:
		w.logger.Warn(ctx, "reply dropped", logger.String("kind", string(cmd.Kind)))
	}
}

// apply runs the handler, turning a panic into an error result so one bad
// command cannot take the session down.
func (w *InMemoryWorker) apply(ctx context.Context, cmd *Command) (res model.Result) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error(ctx, "command handler panicked",
				logger.String("kind", string(cmd.Kind)),
				logger.Any("panic", r),
			)
			res = model.Result{Err: fmt.Errorf("%w: %v", ErrHandlerPanic, r)}
		}
	}()
	return w.handler.Handle(ctx, cmd)
}
