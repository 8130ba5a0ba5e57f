// Package scoring is the ledger and recomputation engine: it turns run and
// milestone facts into permanent points, banners and streak state, and
// rebuilds the ranking-dependent provisional awards on demand.
//
// Every operation takes the Store it works against, normally one open
// transaction, so a caller decides what is atomic.
package scoring

import (
	"context"
	"time"

	"github.com/okian/tourney/internal/domain/model"
)

// LedgerStore holds player scores and the point audit trail.
type LedgerStore interface {
	EnsurePlayer(ctx context.Context, player string) error
	InsertAudit(ctx context.Context, a model.Award) error
	AddScoreBase(ctx context.Context, player string, points int) error
	AddTeamScoreBase(ctx context.Context, player string, points int) error
	FlushProvisionalAudit(ctx context.Context) error
	SetFullScores(ctx context.Context, player string, you, team int) error
}

// BannerStore holds (player, banner) achievement flags.
type BannerStore interface {
	EnsurePlayer(ctx context.Context, player string) error
	HasBanner(ctx context.Context, player, banner string) (bool, error)
	InsertBanner(ctx context.Context, player, banner string, prestige int, temp bool) (bool, error)
	FlushProvisionalBanners(ctx context.Context) error
}

// StreakReader reads a player's active streak.
type StreakReader interface {
	ActiveStreak(ctx context.Context, player string) (int, time.Time, error)
}

// StreakStore holds active and best streaks.
type StreakStore interface {
	StreakReader
	IncrementActiveStreak(ctx context.Context, player string, end time.Time) (int, error)
	ClearActiveStreak(ctx context.Context, player string) (bool, error)
	BestStreak(ctx context.Context, player string) (int, error)
	SetBestStreak(ctx context.Context, player string, length int, end time.Time) error
	StreakBuilds(ctx context.Context, player string, end time.Time) ([]string, error)
}

// FactStore records facts and answers the first-occurrence queries the
// processors rely on. Counts include the fact being processed.
type FactStore interface {
	InsertRun(ctx context.Context, r *model.Run) (bool, error)
	InsertMilestone(ctx context.Context, m *model.Milestone) (bool, error)

	UpdateMostRecentCharacter(ctx context.Context, player, build string, at time.Time) error
	RecordUniqueKill(ctx context.Context, m *model.Milestone, unique string) error
	CountUniqueKills(ctx context.Context, player, unique string) (int, error)
	RecordRuneFind(ctx context.Context, m *model.Milestone, rune string) error
	CountRuneFinds(ctx context.Context, player, rune string) (int, error)
	CountDistinctRunes(ctx context.Context, player string) (int, error)
	RecordZiggurat(ctx context.Context, m *model.Milestone, depth int) error

	CountWins(ctx context.Context, f model.WinFilter) (int, error)
	WinBuilds(ctx context.Context, player string, before time.Time, key string) ([]string, error)
	IsGodRepeated(ctx context.Context, player, god string) (bool, error)
	RecordWonGod(ctx context.Context, player, god string) error
	DidRenounceGod(ctx context.Context, player string, start time.Time) (bool, error)
	RecordDeathToUnique(ctx context.Context, r *model.Run, unique string) error
	CountDeathsToDistinctUniques(ctx context.Context, player string) (int, error)
	LookupDeathsToDistinctUniques(ctx context.Context, player string) (int, error)
	UpdateDeathsToDistinctUniques(ctx context.Context, player string, n int, at time.Time) error
	RegisterMaxedSkill(ctx context.Context, player, skill string) (bool, error)
}

// RankingStore answers the ranked queries of the recomputation pass.
type RankingStore interface {
	Players(ctx context.Context) ([]string, error)

	TopGameScores(ctx context.Context, limit int) ([]model.Ranked, error)
	FastestRealtimeWins(ctx context.Context, limit int) ([]model.Ranked, error)
	FastestTurncountWins(ctx context.Context, limit int) ([]model.Ranked, error)
	PacificWins(ctx context.Context, limit int) ([]model.Ranked, error)
	ComboHighscoreCounts(ctx context.Context) ([]model.Ranked, error)
	ComboWinHighscoreCounts(ctx context.Context) ([]model.Ranked, error)
	SpeciesHighscoreCounts(ctx context.Context) ([]model.Ranked, error)
	ClassHighscoreCounts(ctx context.Context) ([]model.Ranked, error)
	BestStreakRanking(ctx context.Context, limit int) ([]model.Ranked, error)
	TopUniqueKillers(ctx context.Context, limit int) ([]model.Ranked, error)
	XL1Dives(ctx context.Context, limit int) ([]model.Ranked, error)
	ZigguratDives(ctx context.Context, limit int) ([]model.Ranked, error)
	RuneDives(ctx context.Context, limit int) ([]model.Ranked, error)
	DeathsToUniques(ctx context.Context, limit int) ([]model.Ranked, error)
	TopFullScores(ctx context.Context, limit int) ([]model.Ranked, error)
	FeatHolders(ctx context.Context, feat string) ([]string, error)

	ConservationViolations(ctx context.Context) ([]string, error)
	ProvisionalTotals(ctx context.Context) (map[string][2]int, error)
}

// ClanStore holds clan audit entries and totals.
type ClanStore interface {
	Clans(ctx context.Context) ([]model.Clan, error)
	FlushClanPoints(ctx context.Context) error
	InsertClanAudit(ctx context.Context, captain, source string, points int, temp bool) error
	ClanUniqueKills(ctx context.Context) ([]model.Ranked, error)
	ClanComboCounts(ctx context.Context) ([]model.Ranked, error)
	SetClanTotal(ctx context.Context, captain string, extra int) error
}

// Store is everything the engine needs from one transaction.
type Store interface {
	LedgerStore
	BannerStore
	StreakStore
	FactStore
	RankingStore
	ClanStore
}
