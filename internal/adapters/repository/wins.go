package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/tourney/internal/domain/model"
)

// priorRun matches runs ending before a cutoff, breaking same-second ties by
// insertion order against the run holding the fact key.
const priorRun = `(end_time < ? OR (end_time = ? AND id < (SELECT id FROM runs WHERE fact_key = ?)))`

// CountWins counts wins matching f.
func (c conn) CountWins(ctx context.Context, f model.WinFilter) (int, error) {
	q := &filter{}
	q.where(true, "won = 1").
		where(f.Player != "", "player = ?", f.Player).
		where(f.Race != "", "race = ?", f.Race).
		where(f.Class != "", "class = ?", f.Class).
		where(f.MinRunes > 0, "runes >= ?", f.MinRunes).
		where(!f.Before.IsZero() && f.BeforeKey == "", "end_time < ?", toUnix(f.Before)).
		where(!f.Before.IsZero() && f.BeforeKey != "", priorRun, toUnix(f.Before), toUnix(f.Before), f.BeforeKey)
	query, args := q.build("SELECT COUNT(*) FROM runs", "")
	return c.count(ctx, query, args...)
}

// WinBuilds lists the builds of the player's wins recorded before the run
// with fact key key, which ended at before.
func (c conn) WinBuilds(ctx context.Context, player string, before time.Time, key string) ([]string, error) {
	e := toUnix(before)
	return c.strings(ctx, `
		SELECT charabbrev FROM runs
		 WHERE player = ? AND won = 1 AND `+priorRun+`
		 ORDER BY end_time, id`, player, e, e, key)
}

// IsGodRepeated reports whether the player already won with god.
func (c conn) IsGodRepeated(ctx context.Context, player, god string) (bool, error) {
	n, err := c.count(ctx, `SELECT COUNT(*) FROM player_won_gods WHERE player = ? AND win_god = ?`, player, god)
	return n > 0, err
}

// RecordWonGod remembers that the player won with god.
func (t *Tx) RecordWonGod(ctx context.Context, player, god string) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO player_won_gods (player, win_god) VALUES (?, ?) ON CONFLICT DO NOTHING`, player, god)
	if err != nil {
		return fmt.Errorf("record won god: %w", err)
	}
	return nil
}

// DidRenounceGod reports whether the run started at start saw a god.renounce milestone.
func (c conn) DidRenounceGod(ctx context.Context, player string, start time.Time) (bool, error) {
	n, err := c.count(ctx, `
		SELECT COUNT(*) FROM milestones
		 WHERE player = ? AND start_time = ? AND verb = 'god.renounce'`, player, toUnix(start))
	return n > 0, err
}

// RecordDeathToUnique stores that the run ended at the hands of unique.
func (t *Tx) RecordDeathToUnique(ctx context.Context, r *model.Run, unique string) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO deaths_to_uniques (player, uniq, xl, start_time, end_time) VALUES (?, ?, ?, ?, ?)`,
		r.Player, unique, r.XL, toUnix(r.Start), toUnix(r.End))
	if err != nil {
		return fmt.Errorf("record death to unique: %w", err)
	}
	return nil
}

// CountDeathsToDistinctUniques counts the distinct uniques that killed the player.
func (c conn) CountDeathsToDistinctUniques(ctx context.Context, player string) (int, error) {
	return c.count(ctx, `SELECT COUNT(DISTINCT uniq) FROM deaths_to_uniques WHERE player = ?`, player)
}

// LookupDeathsToDistinctUniques returns the cached distinct count, 0 if none.
func (c conn) LookupDeathsToDistinctUniques(ctx context.Context, player string) (int, error) {
	return c.count(ctx, `
		SELECT COALESCE(MAX(ndeaths), 0) FROM deaths_to_distinct_uniques WHERE player = ?`, player)
}

// UpdateDeathsToDistinctUniques caches the distinct count reached at at.
func (t *Tx) UpdateDeathsToDistinctUniques(ctx context.Context, player string, n int, at time.Time) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO deaths_to_distinct_uniques (player, ndeaths, death_time) VALUES (?, ?, ?)
		ON CONFLICT (player) DO UPDATE SET ndeaths = excluded.ndeaths, death_time = excluded.death_time`,
		player, n, toUnix(at))
	if err != nil {
		return fmt.Errorf("update deaths to distinct uniques: %w", err)
	}
	return nil
}

// RegisterMaxedSkill records that the player maxed skill, reporting false if
// it was already known.
func (t *Tx) RegisterMaxedSkill(ctx context.Context, player, skill string) (bool, error) {
	res, err := t.q.ExecContext(ctx, `
		INSERT INTO player_maxed_skills (player, skill) VALUES (?, ?) ON CONFLICT DO NOTHING`, player, skill)
	if err != nil {
		return false, fmt.Errorf("register maxed skill: %w", err)
	}
	return inserted(res)
}
