package scoring_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tourney/internal/adapters/repository"
	"github.com/okian/tourney/internal/domain/model"
	"github.com/okian/tourney/internal/domain/scoring"
	"github.com/okian/tourney/internal/domain/types"
	"github.com/okian/tourney/pkg/logger"
)

func init() {
	_ = logger.Init()
}

var epoch = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

// ledger is a real SQLite store plus an engine, driven one transaction per call.
var _ scoring.StreakReader = (*repository.Store)(nil)

type ledger struct {
	ctx    context.Context
	store  *repository.Store
	engine *scoring.Engine
}

func newLedger(t *testing.T, opts ...scoring.Option) *ledger {
	t.Helper()
	ctx := context.Background()
	s, err := repository.Open(ctx, filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return &ledger{ctx: ctx, store: s, engine: scoring.NewEngine(opts...)}
}

func (l *ledger) apply(r *model.Run) bool {
	var applied bool
	err := l.store.InTx(l.ctx, func(tx *repository.Tx) error {
		var err error
		applied, err = l.engine.ApplyRun(l.ctx, tx, r)
		return err
	})
	So(err, ShouldBeNil)
	return applied
}

func (l *ledger) milestone(m *model.Milestone) bool {
	var applied bool
	err := l.store.InTx(l.ctx, func(tx *repository.Tx) error {
		var err error
		applied, err = l.engine.ApplyMilestone(l.ctx, tx, m)
		return err
	})
	So(err, ShouldBeNil)
	return applied
}

func (l *ledger) recompute() scoring.CycleReport {
	var report scoring.CycleReport
	err := l.store.InTx(l.ctx, func(tx *repository.Tx) error {
		var err error
		report, err = l.engine.Recompute(l.ctx, tx)
		return err
	})
	So(err, ShouldBeNil)
	return report
}

func (l *ledger) detail(player string) types.PlayerDetail {
	d, err := l.store.PlayerDetail(l.ctx, player)
	So(err, ShouldBeNil)
	return d
}

func (l *ledger) streak(player string) int {
	n, err := l.engine.StreakLength(l.ctx, l.store, player)
	So(err, ShouldBeNil)
	return n
}

// points maps source tag to points for one temporality of the player's
// audit trail, team or personal.
func (l *ledger) points(player string, team, temporary bool) map[string]int {
	trail, err := l.store.PlayerAudit(l.ctx, player, team)
	So(err, ShouldBeNil)
	out := map[string]int{}
	for _, line := range trail.Lines {
		if line.Temporary == temporary {
			out[line.Source] = line.Points
		}
	}
	return out
}

func (l *ledger) banners(player string) map[string]types.Banner {
	out := map[string]types.Banner{}
	for _, b := range l.detail(player).Banners {
		out[b.Name] = b
	}
	return out
}

// game builds a run ending hour hours after epoch. ktyp "winning" makes it a win.
func game(player, build, ktyp string, hour int) *model.Run {
	return &model.Run{
		Player:     player,
		Build:      build,
		KillerType: ktyp,
		Killer:     "an orc",
		XL:         12,
		Score:      int64(1000 + hour),
		Turns:      int64(20000 + hour),
		Duration:   int64(7200 + hour),
		Start:      epoch.Add(time.Duration(hour)*time.Hour - 30*time.Minute),
		End:        epoch.Add(time.Duration(hour) * time.Hour),
	}
}

func win(player, build string, hour int) *model.Run {
	r := game(player, build, "winning", hour)
	r.Killer = ""
	r.XL = 27
	r.Runes = 3
	return r
}

func death(player, build string, hour int) *model.Run {
	return game(player, build, "mon", hour)
}

func event(player, kind, text string, minute int) *model.Milestone {
	return &model.Milestone{
		Player: player,
		Build:  "HuFi",
		XL:     10,
		Type:   kind,
		Text:   text,
		Start:  epoch,
		Time:   epoch.Add(time.Duration(minute) * time.Minute),
	}
}

func runeFind(player, rune string, minute int) *model.Milestone {
	return event(player, "rune", fmt.Sprintf("found a %s rune of Zot.", rune), minute)
}
