// Package queue holds facts between their delivery and the single writer
// that applies them.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/tourney/internal/domain/model"
	"github.com/okian/tourney/pkg/metrics"
)

const defaultQueueCapacity = 10000

// Fact is one delivered run or milestone. Exactly one of Run and Milestone is set.
type Fact struct {
	Key       string
	Run       *model.Run
	Milestone *model.Milestone
	Received  time.Time
}

// RunFact wraps a run.
func RunFact(r *model.Run) Fact {
	return Fact{Key: r.Key(), Run: r, Received: time.Now()}
}

// MilestoneFact wraps a milestone.
func MilestoneFact(m *model.Milestone) Fact {
	return Fact{Key: m.Key(), Milestone: m, Received: time.Now()}
}

// Kind is "run" or "milestone".
func (f Fact) Kind() string {
	if f.Run != nil {
		return "run"
	}
	return "milestone"
}

// Player is the player the fact belongs to.
func (f Fact) Player() string {
	if f.Run != nil {
		return f.Run.Player
	}
	if f.Milestone != nil {
		return f.Milestone.Player
	}
	return ""
}

// Queue provides non-blocking enqueue and channel-based dequeue in arrival order.
type Queue interface {
	// Enqueue adds a fact. It returns false when the queue is full or closed.
	Enqueue(ctx context.Context, f Fact) bool

	// Dequeue returns a channel of facts, closed when the queue is closed
	// and drained.
	Dequeue(ctx context.Context) <-chan Fact

	Len(ctx context.Context) int
	Capacity() int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue with a buffered channel.
type InMemoryQueue struct {
	facts    chan Fact
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.facts = make(chan Fact, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0, q.capacity)
	return q
}

// Enqueue adds a fact without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, f Fact) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueRejected("closed")
		return false
	}
	if ctx.Err() != nil {
		metrics.RecordQueueRejected("context_cancelled")
		return false
	}

	select {
	case q.facts <- f:
		metrics.UpdateQueueSize(len(q.facts), q.capacity)
		return true
	default:
		metrics.RecordQueueRejected("queue_full")
		return false
	}
}

// Dequeue returns a channel that receives facts as they arrive.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Fact {
	out := make(chan Fact)
	go func() {
		defer close(out)
		for f := range q.facts {
			select {
			case out <- f:
				metrics.UpdateQueueSize(len(q.facts), q.capacity)
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the number of waiting facts.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.facts)
	metrics.UpdateQueueSize(size, q.capacity)
	return size
}

// Capacity returns the queue bound.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close stops accepting facts. Facts already queued are still delivered.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.facts)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
