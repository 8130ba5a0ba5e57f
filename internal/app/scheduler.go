package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/okian/tourney/pkg/logger"
)

// Ticker is the timer callback the scheduler drives.
type Ticker interface {
	OnInterval(ctx context.Context, elapsed time.Duration) error
}

// Scheduler runs the recomputation pass at a fixed interval. The job runs in
// singleton mode, so a slow pass delays the next tick instead of overlapping it.
type Scheduler struct {
	cron   gocron.Scheduler
	ticker Ticker
	log    logger.Logger

	mu   sync.Mutex
	last time.Time
}

// NewScheduler registers the recomputation job. immediately runs the first
// pass on Start instead of one interval later.
func NewScheduler(t Ticker, interval time.Duration, immediately bool) (*Scheduler, error) {
	log := logger.Named("scheduler")
	cron, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(cronLogger{log: log}),
	)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	s := &Scheduler{cron: cron, ticker: t, log: log, last: time.Now()}

	opts := []gocron.JobOption{
		gocron.WithName("recompute"),
		gocron.WithTags("ledger"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if immediately {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}
	if _, err := cron.NewJob(gocron.DurationJob(interval), gocron.NewTask(s.tick), opts...); err != nil {
		return nil, fmt.Errorf("register recompute job: %w", err)
	}
	return s, nil
}

func (s *Scheduler) tick() {
	ctx := context.Background()
	s.mu.Lock()
	now := time.Now()
	elapsed := now.Sub(s.last)
	s.last = now
	s.mu.Unlock()

	if err := s.ticker.OnInterval(ctx, elapsed); err != nil {
		// retried at the next tick
		s.log.Error(ctx, "recomputation pass failed", logger.Error(err))
	}
}

// Start starts the scheduler.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop waits for a running pass and shuts the scheduler down.
func (s *Scheduler) Stop() error {
	if err := s.cron.Shutdown(); err != nil {
		return fmt.Errorf("shutdown scheduler: %w", err)
	}
	return nil
}

// cronLogger adapts the service logger to gocron.
type cronLogger struct {
	log logger.Logger
}

func (c cronLogger) Debug(msg string, args ...any) {
	c.log.Debug(context.Background(), msg, logger.Any("args", args))
}

func (c cronLogger) Error(msg string, args ...any) {
	c.log.Error(context.Background(), msg, logger.Any("args", args))
}

func (c cronLogger) Info(msg string, args ...any) {
	c.log.Info(context.Background(), msg, logger.Any("args", args))
}

func (c cronLogger) Warn(msg string, args ...any) {
	c.log.Warn(context.Background(), msg, logger.Any("args", args))
}
