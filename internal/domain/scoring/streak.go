package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/tourney/pkg/logger"
	"github.com/okian/tourney/pkg/metrics"
)

// StreakTracker moves players between NoStreak and Active(n, t).
//
//	NoStreak    --win-->     Active(1, t)
//	Active(n,_) --win-->     Active(n+1, t)
//	Active      --non-win--> NoStreak
type StreakTracker struct {
	log logger.Logger
}

// NewStreakTracker creates a tracker.
func NewStreakTracker() *StreakTracker {
	return &StreakTracker{log: logger.Named("streaks")}
}

// Win extends the player's active streak with a win ending at end and
// returns the new length. A new personal best of two or more wins is stored.
func (s *StreakTracker) Win(ctx context.Context, st StreakStore, player string, end time.Time) (int, error) {
	prev, last, err := st.ActiveStreak(ctx, player)
	if err != nil {
		return 0, err
	}
	if prev > 0 && end.Before(last) {
		return 0, fmt.Errorf("%w: %s win at %s precedes streak end %s", ErrInvariant, player, end, last)
	}
	n, err := st.IncrementActiveStreak(ctx, player, end)
	if err != nil {
		return 0, err
	}
	if n != prev+1 {
		return 0, fmt.Errorf("%w: %s streak went from %d to %d", ErrInvariant, player, prev, n)
	}
	metrics.RecordStreakExtended()

	if n >= 2 {
		best, err := st.BestStreak(ctx, player)
		if err != nil {
			return 0, err
		}
		if n > best {
			if err := st.SetBestStreak(ctx, player, n, end); err != nil {
				return 0, err
			}
			s.log.Debug(ctx, "new best streak", logger.String("player", player), logger.Int("length", n))
		}
	}
	return n, nil
}

// Loss ends the player's active streak.
func (s *StreakTracker) Loss(ctx context.Context, st StreakStore, player string) error {
	cleared, err := st.ClearActiveStreak(ctx, player)
	if err != nil {
		return err
	}
	if cleared {
		metrics.RecordStreakBroken()
	}
	return nil
}

// Length returns the player's active streak length, 0 when not on a streak.
func (s *StreakTracker) Length(ctx context.Context, st StreakReader, player string) (int, error) {
	n, _, err := st.ActiveStreak(ctx, player)
	return n, err
}

// PriorWins returns the builds of the wins in the streak before the win
// ending at end.
func (s *StreakTracker) PriorWins(ctx context.Context, st StreakStore, player string, end time.Time) ([]string, error) {
	builds, err := st.StreakBuilds(ctx, player, end)
	if err != nil || len(builds) == 0 {
		return nil, err
	}
	return builds[:len(builds)-1], nil
}
