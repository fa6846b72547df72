package service

import (
	"sync"

	"github.com/okian/sideline/internal/domain/types"
	"github.com/okian/sideline/pkg/metrics"
)

const defaultObserverBuffer = 16

// observers fans snapshots out to read-only subscribers. A subscriber that
// falls behind misses frames instead of stalling the dispatcher.
type observers struct {
	mu     sync.Mutex
	next   int
	subs   map[int]chan types.Snapshot
	closed bool
}

func newObservers() *observers {
	return &observers{subs: make(map[int]chan types.Snapshot)}
}

func (o *observers) add(buffer int) (<-chan types.Snapshot, func()) {
	if buffer <= 0 {
		buffer = defaultObserverBuffer
	}
	ch := make(chan types.Snapshot, buffer)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		close(ch)
		return ch, func() {}
	}
	id := o.next
	o.next++
	o.subs[id] = ch
	metrics.UpdateObservers(len(o.subs))

	return ch, func() { o.remove(id) }
}

func (o *observers) remove(id int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if ch, ok := o.subs[id]; ok {
		delete(o.subs, id)
		close(ch)
		metrics.UpdateObservers(len(o.subs))
	}
}

func (o *observers) publish(snap types.Snapshot) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, ch := range o.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

func (o *observers) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.subs)
}

// closeAll ends every subscription. Later subscriptions get a closed channel.
func (o *observers) closeAll() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for id, ch := range o.subs {
		delete(o.subs, id)
		close(ch)
	}
	o.closed = true
	metrics.UpdateObservers(0)
}

// reopen allows subscriptions again after a restart.
func (o *observers) reopen() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = false
}
