// Package service runs the tournament ledger: it accepts facts from the
// ingestion callbacks, applies them through a single writer, runs the
// periodic recomputation pass and serves the read projections.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/tourney/internal/adapters/mq/queue"
	"github.com/okian/tourney/internal/adapters/mq/worker"
	"github.com/okian/tourney/internal/adapters/repository"
	"github.com/okian/tourney/internal/domain/dedupe"
	"github.com/okian/tourney/internal/domain/model"
	"github.com/okian/tourney/internal/domain/scoring"
	"github.com/okian/tourney/pkg/logger"
	"github.com/okian/tourney/pkg/metrics"
)

// Status tells what happened to a submitted fact.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusDuplicate Status = "duplicate"
)

// Service owns the ledger. Every write, fact or pass, happens under one lock.
type Service struct {
	// writeMu serializes every ledger transaction.
	writeMu sync.Mutex
	mu      sync.RWMutex

	store     *repository.Store
	ownsStore bool
	engine    *scoring.Engine
	deduper   dedupe.Deduper
	queue     queue.Queue
	writer    *worker.Worker
	scheduler *Scheduler

	dbPath           string
	queueSize        int
	dedupeSize       int
	interval         time.Duration
	recomputeOnStart bool
	scoringOpts      []scoring.Option

	lastCycle scoring.CycleReport
	started   bool

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dbPath:           "tourney.db",
		queueSize:        10_000,
		dedupeSize:       100_000,
		interval:         7 * time.Minute,
		recomputeOnStart: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the store and starts the writer and the scheduler.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}

	if s.store == nil {
		st, err := repository.Open(ctx, s.dbPath)
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		s.store = st
		s.ownsStore = true
	}
	s.engine = scoring.NewEngine(s.scoringOpts...)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.writer = worker.New(s.queue, s, worker.WithName("ledger-writer"))
	go s.writer.Run(context.WithoutCancel(ctx))

	if s.interval > 0 {
		sched, err := NewScheduler(s, s.interval, s.recomputeOnStart)
		if err != nil {
			return err
		}
		sched.Start()
		s.scheduler = sched
	}

	s.started = true
	s.logger.Info(ctx, "ledger service started",
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Duration("recomputeInterval", s.interval))
	return nil
}

// Stop stops the scheduler, lets the writer drain the queue and closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	sched, q, w := s.scheduler, s.queue, s.writer
	s.scheduler = nil
	s.mu.Unlock()

	s.log().Info(ctx, "stopping ledger service...")
	var errs []error
	if sched != nil {
		errs = append(errs, sched.Stop())
	}
	errs = append(errs, q.Close())
	errs = append(errs, w.Wait(ctx))

	// wait out a pass or clan change that is still running
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	if s.ownsStore {
		errs = append(errs, s.store.Close())
		s.store = nil
		s.ownsStore = false
	}
	s.mu.Unlock()

	s.log().Info(ctx, "ledger service stopped")
	return errors.Join(errs...)
}

func (s *Service) running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// OnRunCompleted accepts a completed run. The run is validated, deduplicated
// and queued for the writer.
func (s *Service) OnRunCompleted(ctx context.Context, r *model.Run) (Status, error) {
	r.Normalize()
	if err := r.Validate(); err != nil {
		metrics.RecordFactMalformed("run")
		s.log().Warn(ctx, "discarding malformed run", logger.Error(err))
		return "", err
	}
	return s.submit(ctx, queue.RunFact(r))
}

// OnMilestone accepts a milestone like OnRunCompleted.
func (s *Service) OnMilestone(ctx context.Context, m *model.Milestone) (Status, error) {
	m.Normalize()
	if err := m.Validate(); err != nil {
		metrics.RecordFactMalformed("milestone")
		s.log().Warn(ctx, "discarding malformed milestone", logger.Error(err))
		return "", err
	}
	return s.submit(ctx, queue.MilestoneFact(m))
}

func (s *Service) submit(ctx context.Context, f queue.Fact) (Status, error) {
	if !s.running() {
		return "", ErrNotStarted
	}
	if s.deduper.SeenAndRecord(ctx, f.Key) {
		metrics.RecordFactDuplicate(f.Kind())
		s.log().Debug(ctx, "duplicate fact skipped",
			logger.String("kind", f.Kind()),
			logger.String("player", f.Player()))
		return StatusDuplicate, nil
	}
	if !s.queue.Enqueue(ctx, f) {
		s.deduper.Unrecord(ctx, f.Key)
		return "", ErrBackpressure
	}
	return StatusQueued, nil
}

// Apply applies one fact in its own transaction. It is called by the writer;
// a failed fact is forgotten by the deduper so re-delivery is accepted.
func (s *Service) Apply(ctx context.Context, f queue.Fact) error {
	_, err := s.ApplyNow(ctx, f)
	if err != nil && !errors.Is(err, scoring.ErrMalformedFact) {
		if s.deduper != nil {
			s.deduper.Unrecord(ctx, f.Key)
		}
		return err
	}
	return nil
}

// ApplyNow applies f synchronously and reports whether it was new.
// Malformed facts are logged and returned as ErrMalformedFact.
func (s *Service) ApplyNow(ctx context.Context, f queue.Fact) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	st, err := s.ledger()
	if err != nil {
		return false, err
	}

	start := time.Now()
	var applied bool
	err = st.InTx(ctx, func(tx *repository.Tx) error {
		var err error
		if f.Run != nil {
			applied, err = s.engine.ApplyRun(ctx, tx, f.Run)
		} else {
			applied, err = s.engine.ApplyMilestone(ctx, tx, f.Milestone)
		}
		return err
	})

	switch {
	case errors.Is(err, scoring.ErrMalformedFact):
		metrics.RecordFactMalformed(f.Kind())
		s.log().Warn(ctx, "discarding malformed fact", logger.String("kind", f.Kind()), logger.Error(err))
		return false, err
	case err != nil:
		metrics.RecordFactFailed(f.Kind())
		metrics.RecordErrorByComponent("service", "apply")
		return false, fmt.Errorf("apply %s of %s: %w", f.Kind(), f.Player(), err)
	case !applied:
		metrics.RecordFactDuplicate(f.Kind())
	default:
		metrics.RecordFactIngested(f.Kind(), float64(time.Since(start).Microseconds())/1000)
	}
	return applied, nil
}

// OnInterval is the timer callback: it runs one recomputation pass.
func (s *Service) OnInterval(ctx context.Context, elapsed time.Duration) error {
	s.log().Debug(ctx, "recomputation tick", logger.Duration("elapsed", elapsed))
	_, err := s.RecomputeNow(ctx)
	return err
}

// RecomputeNow runs one recomputation pass. A failed pass is rolled back and
// the previous provisional state stays in place.
func (s *Service) RecomputeNow(ctx context.Context) (scoring.CycleReport, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	st, err := s.ledger()
	if err != nil {
		return scoring.CycleReport{}, err
	}

	var report scoring.CycleReport
	err = st.InTx(ctx, func(tx *repository.Tx) error {
		var err error
		report, err = s.engine.Recompute(ctx, tx)
		return err
	})
	if err != nil {
		metrics.RecordRecomputeFailure()
		metrics.RecordErrorByComponent("recompute", "pass")
		return report, err
	}

	metrics.RecordRecompute(float64(report.Duration.Microseconds())/1000, report.FinishedAt.Unix(), report.Awards, report.Points)
	s.mu.Lock()
	s.lastCycle = report
	s.mu.Unlock()

	if counts, err := st.Counts(ctx); err == nil {
		metrics.UpdatePlayers(counts.Players)
		metrics.UpdateClans(counts.Clans)
	}
	return report, nil
}

// ledger returns the open store.
func (s *Service) ledger() (*repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil || s.engine == nil {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.logger == nil {
		return logger.Named("service")
	}
	return s.logger
}

// CreateClan creates the clan led by captain, replacing its roster.
func (s *Service) CreateClan(ctx context.Context, name, captain string) error {
	return s.write(ctx, func(tx *repository.Tx) error { return tx.CreateClan(ctx, name, captain) })
}

// AddToClan enrolls player in captain's clan.
func (s *Service) AddToClan(ctx context.Context, captain, player string) error {
	return s.write(ctx, func(tx *repository.Tx) error { return tx.AddToClan(ctx, captain, player) })
}

// RemoveFromClan releases player from their clan.
func (s *Service) RemoveFromClan(ctx context.Context, player string) error {
	return s.write(ctx, func(tx *repository.Tx) error { return tx.RemoveFromClan(ctx, player) })
}

func (s *Service) write(ctx context.Context, fn func(*repository.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	st, err := s.ledger()
	if err != nil {
		return err
	}
	return st.InTx(ctx, fn)
}
