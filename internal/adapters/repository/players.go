package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// EnsurePlayer creates the player with zeroed scores if it is unknown.
// Names are case-insensitive; the first spelling seen is kept.
func (t *Tx) EnsurePlayer(ctx context.Context, player string) error {
	_, err := t.q.ExecContext(ctx, `INSERT INTO players (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, player)
	if err != nil {
		return fmt.Errorf("ensure player %s: %w", player, err)
	}
	return nil
}

// canonicalName returns the stored spelling of player.
func (c conn) canonicalName(ctx context.Context, player string) (string, error) {
	var name string
	err := c.q.QueryRowContext(ctx, `SELECT name FROM players WHERE name = ?`, player).Scan(&name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", fmt.Errorf("player %s: %w", player, ErrNotFound)
	case err != nil:
		return "", fmt.Errorf("player %s: %w", player, err)
	}
	return name, nil
}

// Players lists every known player.
func (c conn) Players(ctx context.Context) ([]string, error) {
	return c.strings(ctx, `SELECT name FROM players ORDER BY name`)
}

func (c conn) strings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
