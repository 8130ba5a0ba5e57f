// Package worker applies queued facts one at a time. There is exactly one
// worker per ledger: it is the single writer.
package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/tourney/internal/adapters/mq/queue"
	"github.com/okian/tourney/pkg/logger"
)

// Applier applies one fact in its own transaction.
type Applier interface {
	Apply(ctx context.Context, f queue.Fact) error
}

// Queue defines how the worker receives facts.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Fact
}

// Worker drains the queue into the applier.
type Worker struct {
	queue   Queue
	applier Applier
	name    string

	processed atomic.Int64
	failed    atomic.Int64

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// New creates a worker.
func New(q Queue, applier Applier, opts ...Option) *Worker {
	w := &Worker{
		queue:    q,
		applier:  applier,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run applies facts until ctx is cancelled, Shutdown is called or the queue
// is closed and drained.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	facts := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case f, ok := <-facts:
			if !ok {
				return
			}
			w.process(ctx, f)
		}
	}
}

func (w *Worker) process(ctx context.Context, f queue.Fact) {
	start := time.Now()
	if err := w.applier.Apply(ctx, f); err != nil {
		w.failed.Add(1)
		w.logger.Error(ctx, "fact not applied",
			logger.String("kind", f.Kind()),
			logger.String("player", f.Player()),
			logger.String("key", f.Key),
			logger.Error(err))
		return
	}
	w.processed.Add(1)
	w.logger.Debug(ctx, "fact applied",
		logger.String("kind", f.Kind()),
		logger.String("player", f.Player()),
		logger.Duration("took", time.Since(start)))
}

// Shutdown stops the worker after the fact in progress.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	return w.Wait(ctx)
}

// Wait blocks until Run has returned.
func (w *Worker) Wait(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Processed is the number of facts applied successfully.
func (w *Worker) Processed() int64 { return w.processed.Load() }

// Failed is the number of facts whose application returned an error.
func (w *Worker) Failed() int64 { return w.failed.Load() }
