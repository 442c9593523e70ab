package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/estatecamp/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		ctx := context.Background()

		Convey("When creating a deduper with default options", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it should be empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When recording keys", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then a new key should not be seen", func() {
				So(d.SeenAndRecord(ctx, "lead-1@1"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("Then a repeated key should be seen", func() {
				d.SeenAndRecord(ctx, "lead-1@1")
				So(d.SeenAndRecord(ctx, "lead-1@1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("Then a new revision of the same lead is a new key", func() {
				d.SeenAndRecord(ctx, "lead-1@1")
				So(d.SeenAndRecord(ctx, "lead-1@2"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 2)
			})
		})

		Convey("When unrecording keys", func() {
			d := dedupe.NewInMemoryDeduper()
			d.SeenAndRecord(ctx, "job-1")

			Convey("Then the key can be recorded again", func() {
				d.Unrecord(ctx, "job-1")
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "job-1"), ShouldBeFalse)
			})

			Convey("Then unknown keys are ignored", func() {
				d.Unrecord(ctx, "job-404")
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When using bounded mode with eviction", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
			for _, k := range []string{"job-1", "job-2", "job-3"} {
				So(d.SeenAndRecord(ctx, k), ShouldBeFalse)
			}

			Convey("And a fourth key arrives", func() {
				So(d.SeenAndRecord(ctx, "job-4"), ShouldBeFalse)

				Convey("Then the oldest key is evicted and the rest are kept", func() {
					So(d.Size(), ShouldEqual, 3)
					So(d.SeenAndRecord(ctx, "job-2"), ShouldBeTrue)
					So(d.SeenAndRecord(ctx, "job-3"), ShouldBeTrue)
					So(d.SeenAndRecord(ctx, "job-4"), ShouldBeTrue)
					So(d.SeenAndRecord(ctx, "job-1"), ShouldBeFalse)
				})
			})

			Convey("And a middle key is unrecorded", func() {
				d.Unrecord(ctx, "job-2")
				So(d.SeenAndRecord(ctx, "job-4"), ShouldBeFalse)

				Convey("Then nothing needs evicting", func() {
					So(d.Size(), ShouldEqual, 3)
					So(d.SeenAndRecord(ctx, "job-1"), ShouldBeTrue)
				})
			})
		})

		Convey("When using unbounded mode", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
			const n = 1000
			for i := 0; i < n; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("job-%d", i))
			}

			Convey("Then nothing is evicted", func() {
				So(d.Size(), ShouldEqual, int64(n))
				So(d.SeenAndRecord(ctx, "job-0"), ShouldBeTrue)
			})
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given a deduper shared by many goroutines", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(10_000))
		const goroutines = 10
		const perGoroutine = 100

		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			fresh int
		)
		// Every goroutine races on the same key set; each key must be fresh exactly once.
		for g := 0; g < goroutines; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < perGoroutine; i++ {
					if !d.SeenAndRecord(context.Background(), fmt.Sprintf("job-%d", i)) {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then each key is recorded once", func() {
			So(fresh, ShouldEqual, perGoroutine)
			So(d.Size(), ShouldEqual, int64(perGoroutine))
		})
	})
}
