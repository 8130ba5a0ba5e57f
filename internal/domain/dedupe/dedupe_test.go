package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/tourney/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("When a fact key is new", func() {
			seen := d.SeenAndRecord(ctx, "run-1")

			Convey("Then it is recorded", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a fact key is delivered twice", func() {
			d.SeenAndRecord(ctx, "run-1")
			seen := d.SeenAndRecord(ctx, "run-1")

			Convey("Then the second delivery is reported as seen", func() {
				So(seen, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a key is unrecorded", func() {
			d.SeenAndRecord(ctx, "run-1")
			d.Unrecord(ctx, "run-1")
			d.Unrecord(ctx, "missing")

			Convey("Then it can be delivered again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "run-1"), ShouldBeFalse)
			})
		})
	})

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for _, k := range []string{"a", "b", "c", "d"} {
			So(d.SeenAndRecord(ctx, k), ShouldBeFalse)
		}

		Convey("Then the oldest key is evicted first", func() {
			So(d.Size(), ShouldEqual, 3)
			So(d.SeenAndRecord(ctx, "b"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "c"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "d"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "a"), ShouldBeFalse)
			So(d.Size(), ShouldEqual, 3)
		})

		Convey("Then an unrecorded key frees its slot", func() {
			d.Unrecord(ctx, "c")
			So(d.SeenAndRecord(ctx, "e"), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, "b"), ShouldBeTrue)
			So(d.Size(), ShouldEqual, 3)
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		const n = 1000
		for i := 0; i < n; i++ {
			So(d.SeenAndRecord(ctx, fmt.Sprintf("m-%d", i)), ShouldBeFalse)
		}

		Convey("Then nothing is evicted", func() {
			So(d.Size(), ShouldEqual, int64(n))
			So(d.SeenAndRecord(ctx, "m-0"), ShouldBeTrue)
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given a deduper shared by goroutines", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1000))
		const workers = 10
		const perWorker = 100

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				for j := 0; j < perWorker; j++ {
					d.SeenAndRecord(context.Background(), fmt.Sprintf("fact-%d-%d", id, j))
				}
			}(i)
		}
		wg.Wait()

		Convey("Then every key is recorded once", func() {
			So(d.Size(), ShouldEqual, int64(workers*perWorker))
		})
	})
}
