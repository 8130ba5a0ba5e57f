package scoring

import (
	"context"

	"github.com/okian/tourney/internal/domain/model"
)

// trophyDepth is how many rows a trophy rule reads first. Shared trophies
// read further while the rows still tie with the last paid place.
const trophyDepth = 5

// Trophy is a rank-dependent provisional award. Tag holds a %d for the place.
type Trophy struct {
	Tag    string
	Points []int
	Share  bool // equal values share a place
	Team   bool // credited to the team score

	rows func(ctx context.Context, c *cycleCache) ([]model.Ranked, error)
}

var (
	bigSchedule   = []int{200, 100, 50}
	smallSchedule = []int{50, 20, 10}
	clanSchedule  = []int{100, 50, 20}
)

func limited(q func(RankingStore, context.Context, int) ([]model.Ranked, error)) func(context.Context, *cycleCache) ([]model.Ranked, error) {
	return func(ctx context.Context, c *cycleCache) ([]model.Ranked, error) {
		return q(c.st, ctx, trophyDepth)
	}
}

// sharedLimited reads rows until every row tying with a paid place is seen.
func sharedLimited(paid int, q func(RankingStore, context.Context, int) ([]model.Ranked, error)) func(context.Context, *cycleCache) ([]model.Ranked, error) {
	return func(ctx context.Context, c *cycleCache) ([]model.Ranked, error) {
		for limit := trophyDepth; ; limit *= 2 {
			rows, err := q(c.st, ctx, limit)
			if err != nil {
				return nil, err
			}
			if len(rows) < limit || rows[len(rows)-1].Value != rows[paid-1].Value {
				return rows, nil
			}
		}
	}
}

// Trophies are evaluated in this order by every pass.
var Trophies = []Trophy{
	{Tag: "top_score_Nth:%d", Points: bigSchedule, Share: true, rows: sharedLimited(len(bigSchedule), RankingStore.TopGameScores)},
	{Tag: "fastest_realtime:%d", Points: bigSchedule, rows: limited(RankingStore.FastestRealtimeWins)},
	{Tag: "fastest_turncount:%d", Points: bigSchedule, rows: limited(RankingStore.FastestTurncountWins)},
	{Tag: "max_combo_hs_Nth:%d", Points: bigSchedule, Share: true, rows: func(ctx context.Context, c *cycleCache) ([]model.Ranked, error) {
		return c.comboHighscores(ctx)
	}},
	{Tag: "max_streak_Nth:%d", Points: bigSchedule, rows: limited(RankingStore.BestStreakRanking)},
	{Tag: "top_uniq_killer:%d", Points: smallSchedule, rows: limited(RankingStore.TopUniqueKillers)},
	{Tag: "top_pacific_win:%d", Points: bigSchedule, Team: true, rows: limited(RankingStore.PacificWins)},
	{Tag: "xl1_dive_Nth:%d", Points: smallSchedule, Team: true, rows: limited(RankingStore.XL1Dives)},
	{Tag: "zig_rank:%d", Points: bigSchedule, Team: true, rows: limited(RankingStore.ZigguratDives)},
	{Tag: "rune_dive_rank:%d", Points: smallSchedule, Team: true, rows: limited(RankingStore.RuneDives)},
	{Tag: "deaths_to_uniques_Nth:%d", Points: smallSchedule, Team: true, rows: limited(RankingStore.DeathsToUniques)},
}

// clanTrophies are ranked over clans; Ranked.Player holds the captain.
var clanTrophies = []Trophy{
	{Tag: "clan_uniq_killer:%d", Points: clanSchedule, Share: true, rows: func(ctx context.Context, c *cycleCache) ([]model.Ranked, error) {
		return c.st.ClanUniqueKills(ctx)
	}},
	{Tag: "clan_combo_hs:%d", Points: clanSchedule, Share: true, rows: func(ctx context.Context, c *cycleCache) ([]model.Ranked, error) {
		return c.st.ClanComboCounts(ctx)
	}},
}

// miscRule pays Multiplier points per unit of an unbounded count.
type miscRule struct {
	Tag        string
	Multiplier int
	rows       func(ctx context.Context, c *cycleCache) ([]model.Ranked, error)
}

var miscRules = []miscRule{
	{Tag: "combo_hs:%d", Multiplier: 5, rows: func(ctx context.Context, c *cycleCache) ([]model.Ranked, error) {
		return c.comboHighscores(ctx)
	}},
	{Tag: "combo_hs_win:%d", Multiplier: 5, rows: func(ctx context.Context, c *cycleCache) ([]model.Ranked, error) {
		return c.st.ComboWinHighscoreCounts(ctx)
	}},
	{Tag: "species_hs:%d", Multiplier: 10, rows: func(ctx context.Context, c *cycleCache) ([]model.Ranked, error) {
		return c.st.SpeciesHighscoreCounts(ctx)
	}},
	{Tag: "class_hs:%d", Multiplier: 10, rows: func(ctx context.Context, c *cycleCache) ([]model.Ranked, error) {
		return c.st.ClassHighscoreCounts(ctx)
	}},
}

// Feat is a permanent banner granted to everyone who performed a rare feat.
type Feat struct {
	Banner   string
	Prestige int
}

// Feats are re-granted by every pass.
var Feats = []Feat{
	{Banner: "moose", Prestige: 9},
	{Banner: "atheist", Prestige: 11},
	{Banner: "scythe", Prestige: 9},
	{Banner: "orb", Prestige: 10},
	{Banner: "free_will", Prestige: 12},
	{Banner: "ghostbuster", Prestige: 3},
	{Banner: "shopaholic", Prestige: 3},
}

// Places assigns a zero-based place to every row. Without sharing the place
// is the row index. With sharing a row equal to the one above takes its
// place, and the next different row takes its own index (1, 1, 1, 4).
func Places(rows []model.Ranked, share bool) []int {
	places := make([]int, len(rows))
	for i := range rows {
		if share && i > 0 && rows[i].Value == rows[i-1].Value {
			places[i] = places[i-1]
			continue
		}
		places[i] = i
	}
	return places
}
