package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// HasBanner reports whether the player holds banner.
func (c conn) HasBanner(ctx context.Context, player, banner string) (bool, error) {
	var one int
	err := c.q.QueryRowContext(ctx,
		`SELECT 1 FROM player_banners WHERE player = ? AND banner = ?`, player, banner).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("has banner: %w", err)
	}
	return true, nil
}

// InsertBanner grants banner. Granting a held banner is a no-op and reports false.
func (t *Tx) InsertBanner(ctx context.Context, player, banner string, prestige int, temp bool) (bool, error) {
	res, err := t.q.ExecContext(ctx, `
		INSERT INTO player_banners (player, banner, prestige, temp) VALUES (?, ?, ?, ?)
		ON CONFLICT (player, banner) DO NOTHING`,
		player, banner, prestige, boolInt(temp))
	if err != nil {
		return false, fmt.Errorf("insert banner %s/%s: %w", player, banner, err)
	}
	return inserted(res)
}

// FlushProvisionalBanners deletes every provisional banner.
func (t *Tx) FlushProvisionalBanners(ctx context.Context) error {
	if _, err := t.q.ExecContext(ctx, `DELETE FROM player_banners WHERE temp = 1`); err != nil {
		return fmt.Errorf("flush provisional banners: %w", err)
	}
	return nil
}
