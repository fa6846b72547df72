package dedupe_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	dedupe "github.com/okian/sideline/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		Convey("When creating a deduper with default options", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it should start empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When recording command ids", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("And the id is new", func() {
				seen := d.SeenAndRecord(ctx, "tap-1")

				Convey("Then it should return false and record the id", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And the id was already seen", func() {
				d.SeenAndRecord(ctx, "tap-1")
				seen := d.SeenAndRecord(ctx, "tap-1")

				Convey("Then it should return true without growing", func() {
					So(seen, ShouldBeTrue)
					So(d.Size(), ShouldEqual, 1)
				})
			})
		})

		Convey("When unrecording ids", func() {
			d := dedupe.NewInMemoryDeduper()
			d.SeenAndRecord(ctx, "drag-1")
			d.SeenAndRecord(ctx, "drag-2")

			Convey("And the id exists", func() {
				d.Unrecord(ctx, "drag-1")

				Convey("Then it should be forgotten and accepted again", func() {
					So(d.Size(), ShouldEqual, 1)
					So(d.SeenAndRecord(ctx, "drag-1"), ShouldBeFalse)
					So(d.SeenAndRecord(ctx, "drag-2"), ShouldBeTrue)
				})
			})

			Convey("And the id doesn't exist", func() {
				d.Unrecord(ctx, "missing")

				Convey("Then it should not affect the size", func() {
					So(d.Size(), ShouldEqual, 2)
				})
			})
		})

		Convey("When using bounded mode", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
			for _, id := range []string{"a", "b", "c"} {
				So(d.SeenAndRecord(ctx, id), ShouldBeFalse)
			}

			Convey("And the deduper is at capacity", func() {
				So(d.SeenAndRecord(ctx, "d"), ShouldBeFalse)

				Convey("Then it should evict the oldest id", func() {
					So(d.Size(), ShouldEqual, 3)
					So(d.SeenAndRecord(ctx, "b"), ShouldBeTrue)
					So(d.SeenAndRecord(ctx, "c"), ShouldBeTrue)
					So(d.SeenAndRecord(ctx, "d"), ShouldBeTrue)
				})

				Convey("Then the evicted id is treated as new", func() {
					So(d.SeenAndRecord(ctx, "a"), ShouldBeFalse)
				})
			})

			Convey("And an id in the middle is unrecorded", func() {
				d.Unrecord(ctx, "b")
				d.SeenAndRecord(ctx, "d")
				d.SeenAndRecord(ctx, "e")

				Convey("Then eviction still follows insertion order", func() {
					So(d.Size(), ShouldEqual, 3)
					So(d.SeenAndRecord(ctx, "c"), ShouldBeTrue)
					So(d.SeenAndRecord(ctx, "d"), ShouldBeTrue)
					So(d.SeenAndRecord(ctx, "e"), ShouldBeTrue)
				})
			})
		})

		Convey("When using unbounded mode", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
			for i := 0; i < 10000; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("cmd-%d", i))
			}

			Convey("Then nothing is evicted", func() {
				So(d.Size(), ShouldEqual, 10000)
				So(d.SeenAndRecord(ctx, "cmd-0"), ShouldBeTrue)
			})
		})
	})

	Convey("Given a deduper with concurrent access", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(-1))
		const goroutines = 10
		const perGoroutine = 100

		Convey("When every goroutine records the same ids", func() {
			var wg sync.WaitGroup
			var mu sync.Mutex
			fresh := 0
			for g := 0; g < goroutines; g++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < perGoroutine; i++ {
						if !d.SeenAndRecord(ctx, fmt.Sprintf("cmd-%d", i)) {
							mu.Lock()
							fresh++
							mu.Unlock()
						}
					}
				}()
			}
			wg.Wait()

			Convey("Then each id is new exactly once", func() {
				So(fresh, ShouldEqual, perGoroutine)
				So(d.Size(), ShouldEqual, perGoroutine)
			})
		})
	})

	Convey("Given a deduper with edge cases", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1))

		Convey("When recording empty and very long ids", func() {
			long := strings.Repeat("x", 10000)

			Convey("Then both are tracked like any other id", func() {
				So(d.SeenAndRecord(ctx, ""), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, ""), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, long), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, long), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})
	})
}
