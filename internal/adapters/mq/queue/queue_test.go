package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/okian/tourney/internal/domain/model"
)

func testRun(player string, hour int) *model.Run {
	end := time.Date(2026, 8, 1, hour, 0, 0, 0, time.UTC)
	return &model.Run{Player: player, Build: "HuFi", KillerType: "mon", Start: end.Add(-time.Hour), End: end}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if c := q.Capacity(); c != 2 {
		t.Errorf("expected capacity 2, got %d", c)
	}

	f := RunFact(testRun("ann", 1))
	if !q.Enqueue(ctx, f) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.Key != f.Key || got.Kind() != "run" || got.Player() != "ann" {
		t.Errorf("unexpected fact %+v", got)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if !q.Enqueue(ctx, RunFact(testRun("ann", i+1))) {
			t.Fatalf("enqueue %d failed", i)
		}
	}
	if q.Enqueue(ctx, RunFact(testRun("ann", 3))) {
		t.Error("expected enqueue to fail when full")
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if q.Enqueue(ctx, RunFact(testRun("ann", 1))) {
		t.Error("expected enqueue to fail with a cancelled context")
	}
}

func TestInMemoryQueue_PreservesOrder(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(50))
	ctx := context.Background()

	var keys []string
	for i := 0; i < 20; i++ {
		var f Fact
		if i%2 == 0 {
			f = RunFact(testRun("ann", i))
		} else {
			f = MilestoneFact(&model.Milestone{
				Player: "ann", Type: "unique", Text: fmt.Sprintf("killed Boris %d.", i),
				Time: time.Date(2026, 8, 1, i, 0, 0, 0, time.UTC),
			})
		}
		keys = append(keys, f.Key)
		if !q.Enqueue(ctx, f) {
			t.Fatalf("enqueue %d failed", i)
		}
	}
	if err := q.Close(); err != nil {
		t.Fatal(err)
	}

	var got []string
	for f := range q.Dequeue(ctx) {
		got = append(got, f.Key)
	}
	if len(got) != len(keys) {
		t.Fatalf("expected %d facts, got %d", len(keys), len(got))
	}
	for i := range keys {
		if got[i] != keys[i] {
			t.Fatalf("fact %d out of order", i)
		}
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if !q.Enqueue(ctx, RunFact(testRun("ann", 1))) {
		t.Error("expected enqueue to succeed")
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if q.Enqueue(ctx, RunFact(testRun("ann", 2))) {
		t.Error("expected enqueue to fail after closing")
	}

	// the queued fact is still delivered, then the channel closes
	ch := q.Dequeue(ctx)
	timeout := time.After(time.Second)
	delivered := 0
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				if delivered != 1 {
					t.Errorf("expected 1 delivered fact, got %d", delivered)
				}
				if err := q.Close(); err != nil {
					t.Errorf("expected second close to succeed, got error: %v", err)
				}
				return
			}
			delivered++
		case <-timeout:
			t.Fatal("expected dequeue channel to be closed within timeout")
		}
	}
}
