package clock

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// TickInterval is the real-time cadence of the match clock.
const TickInterval = time.Second

// TickFunc receives the run a tick was scheduled for.
type TickFunc func(run uint64)

// Ticker emits one tick per second for a single run at a time. It never
// touches a Clock itself; callers route ticks to whoever owns the Clock so
// that Clock.Tick can drop ticks from a cancelled run.
// In production use clockwork.NewRealClock(); in tests a FakeClock.
type Ticker struct {
	clock clockwork.Clock

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewTicker creates an idle ticker on the given clock.
func NewTicker(c clockwork.Clock) *Ticker {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	return &Ticker{clock: c}
}

// Start cancels any previous run and begins emitting ticks for run.
func (t *Ticker) Start(run uint64, emit TickFunc) {
	t.Stop()

	t.mu.Lock()
	defer t.mu.Unlock()
	stop := make(chan struct{})
	done := make(chan struct{})
	t.stop, t.done = stop, done

	tk := t.clock.NewTicker(TickInterval)
	go func() {
		defer close(done)
		defer tk.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tk.Chan():
				select {
				case <-stop:
					return
				default:
				}
				emit(run)
			}
		}
	}()
}

// Stop cancels the current run and waits for its goroutine to exit.
func (t *Ticker) Stop() {
	t.mu.Lock()
	stop, done := t.stop, t.done
	t.stop, t.done = nil, nil
	t.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Active reports whether a run is being ticked.
func (t *Ticker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}
