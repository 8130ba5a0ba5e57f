package scoring

import "github.com/okian/tourney/internal/domain/model"

const (
	// DefaultMaxRunes is the number of distinct rune kinds in the game.
	DefaultMaxRunes = 15
	// DefaultGhostKillMinXL is the experience level a ghost kill must exceed to pay.
	DefaultGhostKillMinXL = 5
)

// Option configures the engine and its processors.
type Option func(*options)

type options struct {
	maxRunes       int
	ghostKillMinXL int
	windows        []ChoiceWindow
	uniques        model.Uniques
}

func newOptions(opts ...Option) options {
	o := options{
		maxRunes:       DefaultMaxRunes,
		ghostKillMinXL: DefaultGhostKillMinXL,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.uniques == nil {
		o.uniques = model.NewUniques(nil)
	}
	return o
}

// WithMaxRunes sets the rune count of an all-rune win.
func WithMaxRunes(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxRunes = n
		}
	}
}

// WithGhostKillMinXL sets the level a ghost kill must exceed to pay its owner.
func WithGhostKillMinXL(xl int) Option {
	return func(o *options) {
		if xl >= 0 {
			o.ghostKillMinXL = xl
		}
	}
}

// WithChoiceWindows enables the seasonal choice bonus.
func WithChoiceWindows(windows ...ChoiceWindow) Option {
	return func(o *options) {
		o.windows = append(o.windows, windows...)
	}
}

// WithUniques replaces the unique monster names.
func WithUniques(names []string) Option {
	return func(o *options) {
		if len(names) > 0 {
			o.uniques = model.NewUniques(names)
		}
	}
}
