package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ActiveStreak returns the player's active streak length and the end time of
// its last win. A player without an active streak has length 0.
func (c conn) ActiveStreak(ctx context.Context, player string) (int, time.Time, error) {
	var n int
	var at int64
	err := c.q.QueryRowContext(ctx,
		`SELECT streak, streak_time FROM active_streaks WHERE player = ?`, player).Scan(&n, &at)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, time.Time{}, nil
	case err != nil:
		return 0, time.Time{}, fmt.Errorf("active streak: %w", err)
	}
	return n, unixTime(at), nil
}

// IncrementActiveStreak starts the streak at 1 or extends it, returning the
// new length.
func (t *Tx) IncrementActiveStreak(ctx context.Context, player string, end time.Time) (int, error) {
	var n int
	err := t.q.QueryRowContext(ctx, `
		INSERT INTO active_streaks (player, streak, streak_time) VALUES (?, 1, ?)
		ON CONFLICT (player) DO UPDATE SET streak = active_streaks.streak + 1,
		                                   streak_time = excluded.streak_time
		RETURNING streak`, player, toUnix(end)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("increment active streak: %w", err)
	}
	return n, nil
}

// ClearActiveStreak ends the player's active streak, reporting whether one existed.
func (t *Tx) ClearActiveStreak(ctx context.Context, player string) (bool, error) {
	res, err := t.q.ExecContext(ctx, `DELETE FROM active_streaks WHERE player = ?`, player)
	if err != nil {
		return false, fmt.Errorf("clear active streak: %w", err)
	}
	return inserted(res)
}

// BestStreak returns the player's longest recorded streak, 0 if none.
func (c conn) BestStreak(ctx context.Context, player string) (int, error) {
	var n int
	err := c.q.QueryRowContext(ctx, `SELECT ngames FROM streaks WHERE player = ?`, player).Scan(&n)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("best streak: %w", err)
	}
	return n, nil
}

// SetBestStreak records a new longest streak ending at end.
func (t *Tx) SetBestStreak(ctx context.Context, player string, length int, end time.Time) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO streaks (player, ngames, streak_time) VALUES (?, ?, ?)
		ON CONFLICT (player) DO UPDATE SET ngames = excluded.ngames, streak_time = excluded.streak_time`,
		player, length, toUnix(end))
	if err != nil {
		return fmt.Errorf("set best streak: %w", err)
	}
	return nil
}

// StreakBuilds returns the builds of the runs in the streak ending at end, in
// order: every run after the player's last non-win before end, up to end.
func (c conn) StreakBuilds(ctx context.Context, player string, end time.Time) ([]string, error) {
	e := toUnix(end)
	return c.strings(ctx, `
		SELECT charabbrev FROM runs
		 WHERE player = ?
		   AND end_time > COALESCE((SELECT MAX(end_time) FROM runs
		                             WHERE player = ? AND end_time < ? AND won = 0), 0)
		   AND end_time <= ?
		 ORDER BY end_time, id`, player, player, e, e)
}
