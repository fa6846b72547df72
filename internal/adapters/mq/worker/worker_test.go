package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	worker "github.com/okian/sideline/internal/adapters/mq/worker"
	model "github.com/okian/sideline/internal/domain/model"
	logging "github.com/okian/sideline/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	ch chan *model.Command
}

func newMockQueue() *mockQueue {
	return &mockQueue{ch: make(chan *model.Command, 10)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan *model.Command {
	return mq.ch
}

// recordingHandler remembers the order commands were applied in and checks
// that no two run at once.
type recordingHandler struct {
	mu      sync.Mutex
	active  int
	overlap bool
	applied []string
}

func (h *recordingHandler) Handle(ctx context.Context, c *model.Command) model.Result {
	h.mu.Lock()
	h.active++
	if h.active > 1 {
		h.overlap = true
	}
	h.mu.Unlock()

	time.Sleep(time.Millisecond)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.active--
	switch c.Text {
	case "boom":
		panic("boom")
	case "fail":
		return model.Result{Err: errors.New("rejected")}
	}
	h.applied = append(h.applied, c.ID)
	return model.Result{Applied: true}
}

func (h *recordingHandler) order() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.applied...)
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a dispatcher", t, func() {
		if err := logging.Init(); err != nil {
			t.Fatalf("init logger: %v", err)
		}
		q := newMockQueue()
		h := &recordingHandler{}

		convey.Convey("When creating it with options", func() {
			w := worker.NewInMemoryWorker(q, h, worker.WithName("session"), worker.WithLogger(logging.Discard()))

			convey.Convey("Then it should be created successfully", func() {
				convey.So(w, convey.ShouldNotBeNil)
				convey.So(w.Done(), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When running", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			w := worker.NewInMemoryWorker(q, h)
			go w.Run(ctx)

			convey.Convey("And commands arrive", func() {
				replies := make([]chan model.Result, 5)
				for i := range replies {
					replies[i] = make(chan model.Result, 1)
					q.ch <- &model.Command{ID: string(rune('a' + i)), Kind: model.KindTap, Reply: replies[i]}
				}
				for _, r := range replies {
					res := <-r
					convey.So(res.Applied, convey.ShouldBeTrue)
				}

				convey.Convey("Then they are applied one at a time in arrival order", func() {
					convey.So(h.order(), convey.ShouldResemble, []string{"a", "b", "c", "d", "e"})
					convey.So(h.overlap, convey.ShouldBeFalse)
				})
			})

			convey.Convey("And the handler rejects a command", func() {
				reply := make(chan model.Result, 1)
				q.ch <- &model.Command{Kind: model.KindLabel, Text: "fail", Reply: reply}
				res := <-reply

				convey.Convey("Then the error is delivered to the caller", func() {
					convey.So(res.Err, convey.ShouldNotBeNil)
					convey.So(res.Applied, convey.ShouldBeFalse)
				})
			})

			convey.Convey("And the handler panics", func() {
				reply := make(chan model.Result, 1)
				q.ch <- &model.Command{Kind: model.KindDrag, Text: "boom", Reply: reply}
				res := <-reply

				next := make(chan model.Result, 1)
				q.ch <- &model.Command{ID: "after", Kind: model.KindDrag, Reply: next}

				convey.Convey("Then the panic becomes an error and dispatch continues", func() {
					convey.So(errors.Is(res.Err, worker.ErrHandlerPanic), convey.ShouldBeTrue)
					convey.So((<-next).Applied, convey.ShouldBeTrue)
				})
			})

			convey.Convey("And a command has no reply channel", func() {
				q.ch <- &model.Command{ID: "tick", Kind: model.KindClockTick}
				reply := make(chan model.Result, 1)
				q.ch <- &model.Command{ID: "after", Kind: model.KindSnapshot, Reply: reply}
				<-reply

				convey.Convey("Then it is still applied", func() {
					convey.So(h.order(), convey.ShouldResemble, []string{"tick", "after"})
				})
			})

			convey.Convey("And when shutting down", func() {
				err := w.Shutdown(context.Background())

				convey.Convey("Then it should shutdown gracefully", func() {
					convey.So(err, convey.ShouldBeNil)
					convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
				})
			})
		})

		convey.Convey("When the queue is closed", func() {
			w := worker.NewInMemoryWorker(q, h)
			q.ch <- &model.Command{ID: "last", Kind: model.KindTap}
			close(q.ch)
			go w.Run(context.Background())

			convey.Convey("Then it drains and stops", func() {
				select {
				case <-w.Done():
				case <-time.After(time.Second):
					t.Error("dispatcher did not stop")
				}
				convey.So(h.order(), convey.ShouldResemble, []string{"last"})
			})
		})

		convey.Convey("When context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			w := worker.NewInMemoryWorker(q, h)
			go w.Run(ctx)
			cancel()

			convey.Convey("Then worker should stop", func() {
				select {
				case <-w.Done():
				case <-time.After(time.Second):
					t.Error("dispatcher did not stop")
				}
			})
		})
	})
}
