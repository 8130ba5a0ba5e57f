package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	queue "github.com/okian/tourney/internal/adapters/mq/queue"
	worker "github.com/okian/tourney/internal/adapters/mq/worker"
	model "github.com/okian/tourney/internal/domain/model"
	logging "github.com/okian/tourney/pkg/logger"
)

func init() {
	_ = logging.Init()
}

type recordingApplier struct {
	mu      sync.Mutex
	applied []string
	fail    map[string]error
	active  int
	overlap bool
}

func newRecordingApplier() *recordingApplier {
	return &recordingApplier{fail: map[string]error{}}
}

func (a *recordingApplier) Apply(_ context.Context, f queue.Fact) error {
	a.mu.Lock()
	a.active++
	if a.active > 1 {
		a.overlap = true
	}
	a.mu.Unlock()

	time.Sleep(time.Millisecond)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.active--
	if err, ok := a.fail[f.Player()]; ok {
		return err
	}
	a.applied = append(a.applied, f.Key)
	return nil
}

func (a *recordingApplier) keys() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.applied...)
}

func fact(player string, hour int) queue.Fact {
	end := time.Date(2026, 8, 1, hour, 0, 0, 0, time.UTC)
	return queue.RunFact(&model.Run{Player: player, Build: "HuFi", KillerType: "mon", Start: end.Add(-time.Hour), End: end})
}

func TestWorker(t *testing.T) {
	convey.Convey("Given a worker draining a queue", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		applier := newRecordingApplier()
		w := worker.New(q, applier, worker.WithName("ledger-writer"))
		go w.Run(ctx)

		convey.Convey("When facts are enqueued", func() {
			var want []string
			for i := 0; i < 20; i++ {
				f := fact("ann", i)
				want = append(want, f.Key)
				convey.So(q.Enqueue(ctx, f), convey.ShouldBeTrue)
			}
			convey.So(q.Close(), convey.ShouldBeNil)
			convey.So(w.Wait(ctx), convey.ShouldBeNil)

			convey.Convey("Then they are applied one at a time in arrival order", func() {
				convey.So(applier.keys(), convey.ShouldResemble, want)
				convey.So(applier.overlap, convey.ShouldBeFalse)
				convey.So(w.Processed(), convey.ShouldEqual, int64(20))
				convey.So(w.Failed(), convey.ShouldEqual, int64(0))
			})
		})

		convey.Convey("When applying a fact fails", func() {
			applier.fail["bob"] = errors.New("database is locked")
			q.Enqueue(ctx, fact("bob", 1))
			q.Enqueue(ctx, fact("ann", 2))
			convey.So(q.Close(), convey.ShouldBeNil)
			convey.So(w.Wait(ctx), convey.ShouldBeNil)

			convey.Convey("Then the worker keeps going", func() {
				convey.So(w.Failed(), convey.ShouldEqual, int64(1))
				convey.So(w.Processed(), convey.ShouldEqual, int64(1))
			})
		})

		convey.Convey("When shutting down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()

			convey.Convey("Then it stops and a second shutdown is harmless", func() {
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a worker whose context is cancelled", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		q := queue.NewInMemoryQueue()
		w := worker.New(q, newRecordingApplier())
		go w.Run(ctx)
		cancel()

		convey.Convey("Then Run returns", func() {
			wctx, wcancel := context.WithTimeout(context.Background(), time.Second)
			defer wcancel()
			convey.So(w.Wait(wctx), convey.ShouldBeNil)
		})
	})
}
