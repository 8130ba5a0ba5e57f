package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/tourney/internal/domain/model"
)

// InsertRun stores a completed run. It reports false when a run with the
// same fact key is already stored, in which case nothing is written.
func (t *Tx) InsertRun(ctx context.Context, r *model.Run) (bool, error) {
	res, err := t.q.ExecContext(ctx, `
		INSERT INTO runs (fact_key, player, charabbrev, race, class, god, killertype, killer,
		                  won, xl, lvl, place, score, turns, duration, runes, kills, maxskills,
		                  start_time, end_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (fact_key) DO NOTHING`,
		r.Key(), r.Player, r.Build, r.Race, r.Class, r.God, r.KillerType, r.Killer,
		boolInt(r.Won()), r.XL, r.Depth, r.Place, r.Score, r.Turns, r.Duration, r.Runes, r.Kills, r.MaxSkills,
		toUnix(r.Start), toUnix(r.End))
	if err != nil {
		return false, fmt.Errorf("insert run: %w", err)
	}
	return inserted(res)
}

// InsertMilestone stores a milestone, reporting false for a duplicate.
func (t *Tx) InsertMilestone(ctx context.Context, m *model.Milestone) (bool, error) {
	var noun string
	switch m.Kind() {
	case model.KindUnique:
		noun, _ = m.Unique()
	case model.KindRune:
		noun, _ = m.Rune()
	}
	res, err := t.q.ExecContext(ctx, `
		INSERT INTO milestones (fact_key, player, charabbrev, god, xl, verb, noun, milestone,
		                        start_time, ms_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (fact_key) DO NOTHING`,
		m.Key(), m.Player, m.Build, m.God, m.XL, m.Type, noun, m.Text,
		toUnix(m.Start), toUnix(m.Time))
	if err != nil {
		return false, fmt.Errorf("insert milestone: %w", err)
	}
	return inserted(res)
}

func inserted(res interface{ RowsAffected() (int64, error) }) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// UpdateMostRecentCharacter points the player at the build last seen.
func (t *Tx) UpdateMostRecentCharacter(ctx context.Context, player, build string, at time.Time) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO most_recent_character (player, charabbrev, update_time) VALUES (?, ?, ?)
		ON CONFLICT (player) DO UPDATE SET charabbrev = excluded.charabbrev,
		                                   update_time = excluded.update_time`,
		player, build, toUnix(at))
	if err != nil {
		return fmt.Errorf("update most recent character: %w", err)
	}
	return nil
}

// RecordUniqueKill stores one kill of a unique.
func (t *Tx) RecordUniqueKill(ctx context.Context, m *model.Milestone, unique string) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO kills_of_uniques (player, monster, xl, start_time, kill_time) VALUES (?, ?, ?, ?, ?)`,
		m.Player, unique, m.XL, toUnix(m.Start), toUnix(m.Time))
	if err != nil {
		return fmt.Errorf("record unique kill: %w", err)
	}
	return nil
}

// CountUniqueKills counts the player's kills of unique, the current one included.
func (c conn) CountUniqueKills(ctx context.Context, player, unique string) (int, error) {
	return c.count(ctx, `SELECT COUNT(*) FROM kills_of_uniques WHERE player = ? AND monster = ?`, player, unique)
}

// RecordRuneFind stores one rune pickup.
func (t *Tx) RecordRuneFind(ctx context.Context, m *model.Milestone, rune string) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO rune_finds (player, rune, xl, start_time, rune_time) VALUES (?, ?, ?, ?, ?)`,
		m.Player, rune, m.XL, toUnix(m.Start), toUnix(m.Time))
	if err != nil {
		return fmt.Errorf("record rune find: %w", err)
	}
	return nil
}

// CountRuneFinds counts the player's finds of rune, the current one included.
func (c conn) CountRuneFinds(ctx context.Context, player, rune string) (int, error) {
	return c.count(ctx, `SELECT COUNT(*) FROM rune_finds WHERE player = ? AND rune = ?`, player, rune)
}

// CountDistinctRunes counts the distinct rune kinds the player has found.
func (c conn) CountDistinctRunes(ctx context.Context, player string) (int, error) {
	return c.count(ctx, `SELECT COUNT(DISTINCT rune) FROM rune_finds WHERE player = ?`, player)
}

// RecordZiggurat keeps the deepest ziggurat depth the player has reached.
func (t *Tx) RecordZiggurat(ctx context.Context, m *model.Milestone, depth int) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO ziggurats (player, deepest, place, start_time, zig_time) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (player) DO UPDATE SET deepest = excluded.deepest,
		                                   place = excluded.place,
		                                   start_time = excluded.start_time,
		                                   zig_time = excluded.zig_time
		WHERE excluded.deepest > ziggurats.deepest`,
		m.Player, depth, fmt.Sprintf("Zig:%d", depth/2), toUnix(m.Start), toUnix(m.Time))
	if err != nil {
		return fmt.Errorf("record ziggurat: %w", err)
	}
	return nil
}

func (c conn) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := c.q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}
