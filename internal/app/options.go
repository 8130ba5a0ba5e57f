package service

import (
	"time"

	"github.com/okian/tourney/internal/adapters/repository"
	"github.com/okian/tourney/internal/config"
	"github.com/okian/tourney/internal/domain/scoring"
	"github.com/okian/tourney/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDBPath sets the SQLite file the service opens on Start.
func WithDBPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.dbPath = path
		}
	}
}

// WithStore makes the service use an already open store. The caller keeps
// ownership and closes it.
func WithStore(st *repository.Store) Option {
	return func(s *Service) {
		s.store = st
	}
}

// WithQueueSize sets the maximum number of facts waiting for the writer.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithRecomputeInterval sets the cadence of the recomputation pass. Zero
// disables the scheduler.
func WithRecomputeInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.interval = d
		}
	}
}

// WithRecomputeOnStart runs a pass as soon as the scheduler starts.
func WithRecomputeOnStart(on bool) Option {
	return func(s *Service) {
		s.recomputeOnStart = on
	}
}

// WithScoring passes options to the scoring engine.
func WithScoring(opts ...scoring.Option) Option {
	return func(s *Service) {
		s.scoringOpts = append(s.scoringOpts, opts...)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithConfig applies the ledger, queue, scheduler and ruleset settings of cfg.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg == nil {
			return
		}
		for _, opt := range []Option{
			WithDBPath(cfg.DBPath),
			WithQueueSize(cfg.EventQueueSize),
			WithDedupeSize(cfg.DedupeSize),
			WithRecomputeInterval(cfg.RecomputeInterval),
			WithRecomputeOnStart(cfg.RecomputeOnStart),
		} {
			opt(s)
		}

		windows := make([]scoring.ChoiceWindow, 0, len(cfg.ChoiceBuilds))
		for _, w := range cfg.ChoiceBuilds {
			windows = append(windows, scoring.ChoiceWindow{Build: w.Build, From: w.From, Until: w.Until})
		}
		s.scoringOpts = append(s.scoringOpts,
			scoring.WithMaxRunes(cfg.MaxRunes),
			scoring.WithGhostKillMinXL(cfg.GhostKillMinXL),
			scoring.WithChoiceWindows(windows...),
		)
		if len(cfg.Uniques) > 0 {
			s.scoringOpts = append(s.scoringOpts, scoring.WithUniques(cfg.Uniques))
		}
	}
}
