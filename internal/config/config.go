// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load(ctx) layers files and environment on top of the defaults.
// - Errors returned from this package wrap ErrLoadConfig or ErrInvalidConfig.
package config

import (
	"context"
	"time"
)

// ChoiceWindow grants the seasonal "choice" bonus to wins with Build that end
// in [From, Until).
type ChoiceWindow struct {
	Build string    `koanf:"build"`
	From  time.Time `koanf:"from"`
	Until time.Time `koanf:"until"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite database file backing the ledger store.
	DBPath string `koanf:"db_path"`

	// RecomputeInterval is the cadence of the provisional recomputation pass.
	RecomputeInterval time.Duration `koanf:"recompute_interval"`

	// RecomputeOnStart runs one pass as soon as the scheduler starts.
	RecomputeOnStart bool `koanf:"recompute_on_start"`

	// EventQueueSize bounds the in-memory fact queue.
	EventQueueSize int `koanf:"queue_size"`

	// DedupeSize sets the size of the in-memory fact key cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxListLimit caps ?limit on list endpoints.
	MaxListLimit int `koanf:"max_list_limit"`

	// MaxRunes is the number of distinct rune kinds in the ruleset.
	MaxRunes int `koanf:"max_runes"`

	// GhostKillMinXL is the experience level above which a ghost kill pays team points.
	GhostKillMinXL int `koanf:"ghost_kill_min_xl"`

	// Uniques overrides the built-in unique monster names.
	Uniques []string `koanf:"uniques"`

	// ChoiceBuilds lists the seasonal choice windows.
	ChoiceBuilds []ChoiceWindow `koanf:"choice_builds"`
}

// New creates a Config populated with defaults. Context is accepted first to
// satisfy the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		DBPath:            "tourney.db",
		RecomputeInterval: 7 * time.Minute,
		RecomputeOnStart:  true,
		EventQueueSize:    10_000,
		DedupeSize:        100_000,
		MaxListLimit:      100,
		MaxRunes:          15,
		GhostKillMinXL:    5,
	}
}
