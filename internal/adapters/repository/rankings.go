package repository

import (
	"context"
	"fmt"

	"github.com/okian/tourney/internal/domain/model"
)

// Ranking queries return rows already in rank order; ties on the sort key are
// broken by time and then by player so every pass sees the same order.

func (c conn) ranked(ctx context.Context, query string, args ...any) ([]model.Ranked, error) {
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ranking query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Ranked
	for rows.Next() {
		var r model.Ranked
		var at int64
		if err := rows.Scan(&r.Player, &r.Value, &at); err != nil {
			return nil, fmt.Errorf("scan ranking: %w", err)
		}
		r.At = unixTime(at)
		out = append(out, r)
	}
	return out, rows.Err()
}

func checkLimit(limit int) error {
	if limit <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	return nil
}

// TopGameScores returns the highest scoring runs. A player may appear more than once.
func (c conn) TopGameScores(ctx context.Context, limit int) ([]model.Ranked, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	return c.ranked(ctx, `
		SELECT player, score, end_time FROM runs
		 ORDER BY score DESC, end_time, id LIMIT ?`, limit)
}

// bestWinPerPlayer ranks each player's best win by column, ascending.
func (c conn) bestWinPerPlayer(ctx context.Context, column string, limit int) ([]model.Ranked, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	return c.ranked(ctx, fmt.Sprintf(`
		SELECT player, %[1]s, end_time FROM (
		    SELECT player, %[1]s, end_time, id,
		           ROW_NUMBER() OVER (PARTITION BY player ORDER BY %[1]s, end_time, id) AS rn
		      FROM runs WHERE won = 1)
		 WHERE rn = 1
		 ORDER BY %[1]s, end_time, id LIMIT ?`, column), limit)
}

// FastestRealtimeWins ranks each player's shortest win by real time.
func (c conn) FastestRealtimeWins(ctx context.Context, limit int) ([]model.Ranked, error) {
	return c.bestWinPerPlayer(ctx, "duration", limit)
}

// FastestTurncountWins ranks each player's shortest win by turns.
func (c conn) FastestTurncountWins(ctx context.Context, limit int) ([]model.Ranked, error) {
	return c.bestWinPerPlayer(ctx, "turns", limit)
}

// PacificWins ranks each player's win with the fewest kills.
func (c conn) PacificWins(ctx context.Context, limit int) ([]model.Ranked, error) {
	return c.bestWinPerPlayer(ctx, "kills", limit)
}

func (c conn) highscoreCounts(ctx context.Context, view string) ([]model.Ranked, error) {
	return c.ranked(ctx, fmt.Sprintf(`
		SELECT player, COUNT(*) AS n, MAX(end_time) FROM %s
		 GROUP BY player
		 ORDER BY n DESC, player`, view))
}

// ComboHighscoreCounts counts race+class high scores held per player.
func (c conn) ComboHighscoreCounts(ctx context.Context) ([]model.Ranked, error) {
	return c.highscoreCounts(ctx, "combo_highscores")
}

// ComboWinHighscoreCounts counts winning race+class high scores held per player.
func (c conn) ComboWinHighscoreCounts(ctx context.Context) ([]model.Ranked, error) {
	return c.highscoreCounts(ctx, "combo_win_highscores")
}

// SpeciesHighscoreCounts counts species high scores held per player.
func (c conn) SpeciesHighscoreCounts(ctx context.Context) ([]model.Ranked, error) {
	return c.highscoreCounts(ctx, "species_highscores")
}

// ClassHighscoreCounts counts class high scores held per player.
func (c conn) ClassHighscoreCounts(ctx context.Context) ([]model.Ranked, error) {
	return c.highscoreCounts(ctx, "class_highscores")
}

// BestStreakRanking ranks recorded best streaks of two or more wins.
func (c conn) BestStreakRanking(ctx context.Context, limit int) ([]model.Ranked, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	return c.ranked(ctx, `
		SELECT player, ngames, streak_time FROM streaks
		 WHERE ngames >= 2
		 ORDER BY ngames DESC, streak_time, player LIMIT ?`, limit)
}

// ActiveStreakRanking ranks the streaks still running.
func (c conn) ActiveStreakRanking(ctx context.Context, limit int) ([]model.Ranked, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	return c.ranked(ctx, `
		SELECT player, streak, streak_time FROM active_streaks
		 ORDER BY streak DESC, streak_time, player LIMIT ?`, limit)
}

// TopUniqueKillers ranks players by distinct uniques killed, first to get there wins ties.
func (c conn) TopUniqueKillers(ctx context.Context, limit int) ([]model.Ranked, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	return c.ranked(ctx, `
		SELECT player, nuniques, kill_time FROM kunique_times
		 ORDER BY nuniques DESC, kill_time, player LIMIT ?`, limit)
}

// XL1Dives ranks each player's deepest death at experience level 1.
func (c conn) XL1Dives(ctx context.Context, limit int) ([]model.Ranked, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	return c.ranked(ctx, `
		SELECT player, lvl, end_time FROM (
		    SELECT player, lvl, end_time, id,
		           ROW_NUMBER() OVER (PARTITION BY player ORDER BY lvl DESC, end_time, id) AS rn
		      FROM runs WHERE xl = 1)
		 WHERE rn = 1
		 ORDER BY lvl DESC, end_time, id LIMIT ?`, limit)
}

// ZigguratDives ranks the deepest ziggurat depth per player.
func (c conn) ZigguratDives(ctx context.Context, limit int) ([]model.Ranked, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	return c.ranked(ctx, `
		SELECT player, deepest, zig_time FROM ziggurats
		 ORDER BY deepest DESC, zig_time, player LIMIT ?`, limit)
}

// RuneDives ranks each player's rune found at the lowest experience level.
func (c conn) RuneDives(ctx context.Context, limit int) ([]model.Ranked, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	return c.ranked(ctx, `
		SELECT player, xl, rune_time FROM (
		    SELECT player, xl, rune_time, id,
		           ROW_NUMBER() OVER (PARTITION BY player ORDER BY xl, rune_time, id) AS rn
		      FROM rune_finds)
		 WHERE rn = 1
		 ORDER BY xl, rune_time, id LIMIT ?`, limit)
}

// DeathsToUniques ranks players by distinct uniques that killed them.
func (c conn) DeathsToUniques(ctx context.Context, limit int) ([]model.Ranked, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	return c.ranked(ctx, `
		SELECT player, ndeaths, death_time FROM deaths_to_distinct_uniques
		 ORDER BY ndeaths DESC, death_time, player LIMIT ?`, limit)
}

// TopFullScores ranks players with a positive full score.
func (c conn) TopFullScores(ctx context.Context, limit int) ([]model.Ranked, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	return c.ranked(ctx, `
		SELECT name, score_full, 0 FROM players
		 WHERE score_full > 0
		 ORDER BY score_full DESC, name LIMIT ?`, limit)
}

var featQueries = map[string]string{
	"moose":       `SELECT DISTINCT player FROM double_boris_kills ORDER BY player`,
	"atheist":     `SELECT DISTINCT player FROM atheist_wins ORDER BY player`,
	"scythe":      `SELECT player FROM super_sigmund_kills ORDER BY player`,
	"orb":         `SELECT DISTINCT player FROM runs WHERE won = 1 ORDER BY player`,
	"free_will":   `SELECT DISTINCT player FROM free_will_wins ORDER BY player`,
	"ghostbuster": `SELECT player FROM ghostbusters ORDER BY player`,
	"shopaholic":  `SELECT DISTINCT player FROM compulsive_shoppers ORDER BY player`,
}

// FeatHolders lists the players who performed the named feat.
func (c conn) FeatHolders(ctx context.Context, feat string) ([]string, error) {
	query, ok := featQueries[feat]
	if !ok {
		return nil, fmt.Errorf("feat %q: %w", feat, ErrNotFound)
	}
	return c.strings(ctx, query)
}
