package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/tourney/internal/adapters/repository"
	"github.com/okian/tourney/internal/domain/model"
	"github.com/okian/tourney/pkg/logger"
)

func init() {
	_ = logger.Init()
}

var base = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

func openStore(t *testing.T) *repository.Store {
	t.Helper()
	s, err := repository.Open(context.Background(), filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func run(player, build, ktyp string, endHour int) *model.Run {
	r := &model.Run{
		Player:     player,
		Build:      build,
		KillerType: ktyp,
		XL:         27,
		Score:      int64(1000 * endHour),
		Turns:      int64(10000 + endHour),
		Duration:   int64(3600 + endHour),
		Start:      base.Add(time.Duration(endHour-1) * time.Hour),
		End:        base.Add(time.Duration(endHour) * time.Hour),
	}
	r.Normalize()
	return r
}

func insertRuns(t *testing.T, s *repository.Store, runs ...*model.Run) {
	t.Helper()
	require.NoError(t, s.InTx(context.Background(), func(tx *repository.Tx) error {
		for _, r := range runs {
			if err := tx.EnsurePlayer(context.Background(), r.Player); err != nil {
				return err
			}
			if _, err := tx.InsertRun(context.Background(), r); err != nil {
				return err
			}
		}
		return nil
	}))
}

func TestOpenIsRepeatable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	s, err := repository.Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = repository.Open(ctx, path, repository.WithBusyTimeout(time.Second), repository.WithMaxOpenConns(2))
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestInsertRunDeduplicatesByFactKey(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	r := run("alice", "HuFi", "winning", 1)

	var first, second bool
	require.NoError(t, s.InTx(ctx, func(tx *repository.Tx) error {
		require.NoError(t, tx.EnsurePlayer(ctx, "alice"))
		var err error
		first, err = tx.InsertRun(ctx, r)
		require.NoError(t, err)
		second, err = tx.InsertRun(ctx, r)
		return err
	}))

	assert.True(t, first)
	assert.False(t, second)
	n, err := s.CountWins(ctx, model.WinFilter{Player: "ALICE"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	boom := errors.New("boom")

	err := s.InTx(ctx, func(tx *repository.Tx) error {
		require.NoError(t, tx.EnsurePlayer(ctx, "alice"))
		return boom
	})
	require.ErrorIs(t, err, boom)

	players, err := s.Players(ctx)
	require.NoError(t, err)
	assert.Empty(t, players)
}

func TestLedgerConservation(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	require.NoError(t, s.InTx(ctx, func(tx *repository.Tx) error {
		require.NoError(t, tx.EnsurePlayer(ctx, "Alice"))
		require.NoError(t, tx.EnsurePlayer(ctx, "alice"))
		require.NoError(t, tx.InsertAudit(ctx, model.Award{Player: "alice", Source: "unique", Points: 5}))
		require.NoError(t, tx.AddScoreBase(ctx, "alice", 5))
		require.NoError(t, tx.InsertAudit(ctx, model.Award{Player: "ALICE", Source: "ghost", Points: 2, Team: true}))
		require.NoError(t, tx.AddTeamScoreBase(ctx, "alice", 2))
		return nil
	}))

	violations, err := s.ConservationViolations(ctx)
	require.NoError(t, err)
	assert.Empty(t, violations)

	players, err := s.Players(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice"}, players)

	require.NoError(t, s.InTx(ctx, func(tx *repository.Tx) error {
		return tx.AddScoreBase(ctx, "alice", 1)
	}))
	violations, err = s.ConservationViolations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice"}, violations)

	err = s.InTx(ctx, func(tx *repository.Tx) error {
		return tx.AddScoreBase(ctx, "nobody", 1)
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProvisionalFlush(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	require.NoError(t, s.InTx(ctx, func(tx *repository.Tx) error {
		require.NoError(t, tx.EnsurePlayer(ctx, "bob"))
		require.NoError(t, tx.InsertAudit(ctx, model.Award{Player: "bob", Source: "my_1st_win", Points: 100}))
		require.NoError(t, tx.AddScoreBase(ctx, "bob", 100))
		require.NoError(t, tx.InsertAudit(ctx, model.Award{Player: "bob", Source: "fastest_realtime:1", Points: 200, Temporary: true}))
		_, err := tx.InsertBanner(ctx, "bob", "orb", 10, false)
		require.NoError(t, err)
		_, err = tx.InsertBanner(ctx, "bob", "fastest_realtime:1", 200, true)
		require.NoError(t, err)
		return tx.SetFullScores(ctx, "bob", 200, 0)
	}))

	totals, err := s.ProvisionalTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, [2]int{200, 0}, totals["bob"])

	detail, err := s.PlayerDetail(ctx, "BOB")
	require.NoError(t, err)
	assert.Equal(t, 100, detail.ScoreBase)
	assert.Equal(t, 300, detail.ScoreFull)
	assert.Len(t, detail.Banners, 2)

	require.NoError(t, s.InTx(ctx, func(tx *repository.Tx) error {
		require.NoError(t, tx.FlushProvisionalAudit(ctx))
		return tx.FlushProvisionalBanners(ctx)
	}))

	totals, err = s.ProvisionalTotals(ctx)
	require.NoError(t, err)
	assert.Empty(t, totals)

	has, err := s.HasBanner(ctx, "bob", "orb")
	require.NoError(t, err)
	assert.True(t, has)
	has, err = s.HasBanner(ctx, "bob", "fastest_realtime:1")
	require.NoError(t, err)
	assert.False(t, has)

	audit, err := s.PlayerAudit(ctx, "bob", false)
	require.NoError(t, err)
	assert.Equal(t, 100, audit.Total(false))
	assert.Equal(t, 0, audit.Total(true))
}

func TestInsertBannerIsAwardOnce(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	var first, second bool
	require.NoError(t, s.InTx(ctx, func(tx *repository.Tx) error {
		require.NoError(t, tx.EnsurePlayer(ctx, "carol"))
		var err error
		first, err = tx.InsertBanner(ctx, "carol", "runic_literacy", 5, false)
		require.NoError(t, err)
		second, err = tx.InsertBanner(ctx, "Carol", "runic_literacy", 5, false)
		return err
	}))
	assert.True(t, first)
	assert.False(t, second)
}

func TestStreakState(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	insertRuns(t, s,
		run("dave", "HuFi", "winning", 1),
		run("dave", "MiBe", "mon", 2),
		run("dave", "DEFE", "winning", 3),
		run("dave", "GrWz", "winning", 4),
	)

	builds, err := s.StreakBuilds(ctx, "dave", base.Add(4*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"DEFE", "GrWz"}, builds)

	builds, err = s.StreakBuilds(ctx, "dave", base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"HuFi"}, builds)

	require.NoError(t, s.InTx(ctx, func(tx *repository.Tx) error {
		n, err := tx.IncrementActiveStreak(ctx, "dave", base.Add(3*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		n, err = tx.IncrementActiveStreak(ctx, "dave", base.Add(4*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		return tx.SetBestStreak(ctx, "dave", 2, base.Add(4*time.Hour))
	}))

	n, at, err := s.ActiveStreak(ctx, "dave")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, at.Equal(base.Add(4*time.Hour)))

	require.NoError(t, s.InTx(ctx, func(tx *repository.Tx) error {
		cleared, err := tx.ClearActiveStreak(ctx, "dave")
		assert.True(t, cleared)
		return err
	}))
	n, _, err = s.ActiveStreak(ctx, "dave")
	require.NoError(t, err)
	assert.Zero(t, n)

	best, err := s.BestStreak(ctx, "dave")
	require.NoError(t, err)
	assert.Equal(t, 2, best)

	entries, err := s.StreakEntries(ctx, false, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "dave", entries[0].Player)
}

func TestCountWinsFilters(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	allRunes := run("erin", "HuFi", "winning", 5)
	allRunes.Runes = 15
	insertRuns(t, s,
		run("erin", "HuFi", "winning", 1),
		run("frank", "MiBe", "winning", 2),
		run("frank", "MiBe", "mon", 3),
		allRunes,
	)

	cases := []struct {
		name string
		f    model.WinFilter
		want int
	}{
		{"all wins", model.WinFilter{}, 3},
		{"player", model.WinFilter{Player: "frank"}, 1},
		{"before", model.WinFilter{Before: base.Add(2 * time.Hour)}, 1},
		{"min runes", model.WinFilter{MinRunes: 15}, 1},
		{"race and class", model.WinFilter{Race: "Hu", Class: "Fi"}, 2},
		{"min runes before", model.WinFilter{MinRunes: 15, Before: allRunes.End}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n, err := s.CountWins(ctx, tc.f)
			require.NoError(t, err)
			assert.Equal(t, tc.want, n)
		})
	}

	builds, err := s.WinBuilds(ctx, "erin", allRunes.End, allRunes.Key())
	require.NoError(t, err)
	assert.Equal(t, []string{"HuFi"}, builds)
}

func TestWinsEndingTogether(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	first := run("gus", "HuFi", "winning", 1)
	second := run("gus", "MiBe", "winning", 1)
	insertRuns(t, s, first, second)

	n, err := s.CountWins(ctx, model.WinFilter{Before: second.End, BeforeKey: second.Key()})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.CountWins(ctx, model.WinFilter{Before: first.End, BeforeKey: first.Key()})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	builds, err := s.WinBuilds(ctx, "gus", second.End, second.Key())
	require.NoError(t, err)
	assert.Equal(t, []string{"HuFi"}, builds)
}

func TestRankings(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	slow := run("gina", "HuFi", "winning", 9)
	slow.Duration = 9000
	fast := run("gina", "MiBe", "winning", 3)
	fast.Duration = 1000
	other := run("hank", "HuFi", "winning", 4)
	other.Duration = 2000
	insertRuns(t, s, slow, fast, other)

	rows, err := s.FastestRealtimeWins(ctx, 3)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "gina", rows[0].Player)
	assert.EqualValues(t, 1000, rows[0].Value)
	assert.Equal(t, "hank", rows[1].Player)

	_, err = s.FastestRealtimeWins(ctx, 0)
	assert.ErrorIs(t, err, repository.ErrInvalidLimit)

	// gina's HuFi at hour 9 outscores hank's HuFi; MiBe is hers alone.
	combos, err := s.ComboHighscoreCounts(ctx)
	require.NoError(t, err)
	require.Len(t, combos, 1)
	assert.Equal(t, "gina", combos[0].Player)
	assert.EqualValues(t, 2, combos[0].Value)

	orb, err := s.FeatHolders(ctx, "orb")
	require.NoError(t, err)
	assert.Equal(t, []string{"gina", "hank"}, orb)
	atheists, err := s.FeatHolders(ctx, "atheist")
	require.NoError(t, err)
	assert.Equal(t, []string{"gina", "hank"}, atheists)

	_, err = s.FeatHolders(ctx, "juggler")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMilestoneFacts(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	kill := &model.Milestone{Player: "ivy", Build: "HuFi", XL: 2, Type: "unique", Text: "killed Sigmund.", Start: base, Time: base.Add(time.Minute)}
	zig := &model.Milestone{Player: "ivy", Type: "zig.exit", Text: "left a Ziggurat at level 4.", Start: base, Time: base.Add(time.Hour)}

	require.NoError(t, s.InTx(ctx, func(tx *repository.Tx) error {
		require.NoError(t, tx.EnsurePlayer(ctx, "ivy"))
		ok, err := tx.InsertMilestone(ctx, kill)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = tx.InsertMilestone(ctx, kill)
		require.NoError(t, err)
		assert.False(t, ok)
		require.NoError(t, tx.RecordUniqueKill(ctx, kill, "Sigmund"))
		depth, _ := zig.ZigguratDepth()
		require.NoError(t, tx.RecordZiggurat(ctx, zig, depth))
		return tx.RecordZiggurat(ctx, zig, 2)
	}))

	n, err := s.CountUniqueKills(ctx, "ivy", "sigmund")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	scythe, err := s.FeatHolders(ctx, "scythe")
	require.NoError(t, err)
	assert.Equal(t, []string{"ivy"}, scythe)

	zigs, err := s.ZigguratDives(ctx, 3)
	require.NoError(t, err)
	require.Len(t, zigs, 1)
	assert.EqualValues(t, 9, zigs[0].Value)
}

func TestClans(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	require.NoError(t, s.InTx(ctx, func(tx *repository.Tx) error {
		require.NoError(t, tx.CreateClan(ctx, "Zot Squad", "zed"))
		require.NoError(t, tx.AddToClan(ctx, "zed", "amy"))
		require.NoError(t, tx.AddToClan(ctx, "ZED", "abe"))
		return nil
	}))

	roster, err := s.ClanRoster(ctx, "zed")
	require.NoError(t, err)
	assert.Equal(t, []string{"zed", "abe", "amy"}, roster)

	err = s.InTx(ctx, func(tx *repository.Tx) error { return tx.AddToClan(ctx, "nobody", "amy") })
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, s.InTx(ctx, func(tx *repository.Tx) error {
		require.NoError(t, tx.SetFullScores(ctx, "amy", 40, 10))
		require.NoError(t, tx.InsertClanAudit(ctx, "zed", "clan_uniq_killer:1", 100, true))
		return tx.SetClanTotal(ctx, "zed", 100)
	}))
	detail, err := s.ClanDetail(ctx, "zed")
	require.NoError(t, err)
	assert.Equal(t, 150, detail.Total)
	assert.Equal(t, "zed", detail.Members[0].Player)
	require.Len(t, detail.Audit, 1)

	// Re-creating the clan releases the old members.
	require.NoError(t, s.InTx(ctx, func(tx *repository.Tx) error {
		return tx.CreateClan(ctx, "Zot Squad II", "zed")
	}))
	roster, err = s.ClanRoster(ctx, "zed")
	require.NoError(t, err)
	assert.Equal(t, []string{"zed"}, roster)

	require.NoError(t, s.InTx(ctx, func(tx *repository.Tx) error {
		return tx.RemoveFromClan(ctx, "zed")
	}))
	clans, err := s.Clans(ctx)
	require.NoError(t, err)
	assert.Empty(t, clans)
}
