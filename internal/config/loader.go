package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "TOURNEY_"

// Load builds a Config by layering defaults, optional files, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if TOURNEY_CONFIG is set
//  3. env (prefix TOURNEY_), optionally seeded from the .env file named by TOURNEY_ENV_FILE
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	// A .env file only fills variables that are not already set.
	if path := os.Getenv(envPrefix + "ENV_FILE"); path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("%w: env file %s: %v", ErrLoadConfig, path, err)
		}
	}

	k := koanf.New(".")

	if path := os.Getenv(envPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// TOURNEY_RECOMPUTE_INTERVAL -> recompute_interval. Underscores are kept
	// so keys match the koanf tags on the struct.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.DBPath) == "":
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	case c.RecomputeInterval <= 0:
		return fmt.Errorf("%w: recompute_interval must be positive", ErrInvalidConfig)
	case c.EventQueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.MaxListLimit <= 0:
		return fmt.Errorf("%w: max_list_limit must be positive", ErrInvalidConfig)
	case c.MaxRunes <= 0:
		return fmt.Errorf("%w: max_runes must be positive", ErrInvalidConfig)
	case c.GhostKillMinXL < 0:
		return fmt.Errorf("%w: ghost_kill_min_xl must not be negative", ErrInvalidConfig)
	}
	for i, w := range c.ChoiceBuilds {
		if strings.TrimSpace(w.Build) == "" {
			return fmt.Errorf("%w: choice_builds[%d]: empty build", ErrInvalidConfig, i)
		}
		if !w.From.Before(w.Until) {
			return fmt.Errorf("%w: choice_builds[%d]: from must be before until", ErrInvalidConfig, i)
		}
	}
	return nil
}
