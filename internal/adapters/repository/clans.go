package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/okian/tourney/internal/domain/model"
)

// CreateClan creates or renames the clan led by captain. All previous
// members are released and the captain is enrolled.
func (t *Tx) CreateClan(ctx context.Context, name, captain string) error {
	if err := t.EnsurePlayer(ctx, captain); err != nil {
		return err
	}
	captain, err := t.canonicalName(ctx, captain)
	if err != nil {
		return err
	}
	if _, err := t.q.ExecContext(ctx, `
		INSERT INTO teams (owner, name) VALUES (?, ?)
		ON CONFLICT (owner) DO UPDATE SET name = excluded.name`, captain, name); err != nil {
		return fmt.Errorf("create clan %s: %w", name, err)
	}
	if _, err := t.q.ExecContext(ctx, `UPDATE players SET team_captain = NULL WHERE team_captain = ?`, captain); err != nil {
		return fmt.Errorf("clear clan %s: %w", name, err)
	}
	if _, err := t.q.ExecContext(ctx, `UPDATE players SET team_captain = ? WHERE name = ?`, captain, captain); err != nil {
		return fmt.Errorf("enroll captain %s: %w", captain, err)
	}
	return nil
}

// AddToClan enrolls player in the clan led by captain.
func (t *Tx) AddToClan(ctx context.Context, captain, player string) error {
	owner, err := t.clanOwner(ctx, captain)
	if err != nil {
		return err
	}
	if err := t.EnsurePlayer(ctx, player); err != nil {
		return err
	}
	if _, err := t.q.ExecContext(ctx, `UPDATE players SET team_captain = ? WHERE name = ?`, owner, player); err != nil {
		return fmt.Errorf("add %s to clan: %w", player, err)
	}
	return nil
}

// RemoveFromClan releases player from their clan. Removing a captain
// disbands the clan.
func (t *Tx) RemoveFromClan(ctx context.Context, player string) error {
	if _, err := t.clanOwner(ctx, player); err == nil {
		if _, err := t.q.ExecContext(ctx, `UPDATE players SET team_captain = NULL WHERE team_captain = ?`, player); err != nil {
			return fmt.Errorf("disband clan of %s: %w", player, err)
		}
		if _, err := t.q.ExecContext(ctx, `DELETE FROM teams WHERE owner = ?`, player); err != nil {
			return fmt.Errorf("disband clan of %s: %w", player, err)
		}
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	if _, err := t.q.ExecContext(ctx, `UPDATE players SET team_captain = NULL WHERE name = ?`, player); err != nil {
		return fmt.Errorf("remove %s from clan: %w", player, err)
	}
	return nil
}

func (c conn) clanOwner(ctx context.Context, captain string) (string, error) {
	var owner string
	err := c.q.QueryRowContext(ctx, `SELECT owner FROM teams WHERE owner = ?`, captain).Scan(&owner)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", fmt.Errorf("clan of %s: %w", captain, ErrNotFound)
	case err != nil:
		return "", fmt.Errorf("clan of %s: %w", captain, err)
	}
	return owner, nil
}

// Clans lists every clan.
func (c conn) Clans(ctx context.Context) ([]model.Clan, error) {
	rows, err := c.q.QueryContext(ctx, `SELECT name, owner FROM teams ORDER BY owner`)
	if err != nil {
		return nil, fmt.Errorf("clans: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Clan
	for rows.Next() {
		var cl model.Clan
		if err := rows.Scan(&cl.Name, &cl.Captain); err != nil {
			return nil, fmt.Errorf("scan clan: %w", err)
		}
		out = append(out, cl)
	}
	return out, rows.Err()
}

// ClanRoster lists the members of the clan led by captain, captain first.
func (c conn) ClanRoster(ctx context.Context, captain string) ([]string, error) {
	if _, err := c.clanOwner(ctx, captain); err != nil {
		return nil, err
	}
	return c.strings(ctx, `
		SELECT name FROM players WHERE team_captain = ?
		 ORDER BY (name = team_captain) DESC, name`, captain)
}

// FlushClanPoints deletes every provisional clan audit entry.
func (t *Tx) FlushClanPoints(ctx context.Context) error {
	if _, err := t.q.ExecContext(ctx, `DELETE FROM clan_points WHERE temp = 1`); err != nil {
		return fmt.Errorf("flush clan points: %w", err)
	}
	return nil
}

// InsertClanAudit appends one entry to a clan's audit trail.
func (t *Tx) InsertClanAudit(ctx context.Context, captain, source string, points int, temp bool) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO clan_points (captain, temp, points, point_source) VALUES (?, ?, ?, ?)`,
		captain, boolInt(temp), points, source)
	if err != nil {
		return fmt.Errorf("insert clan audit %s/%s: %w", captain, source, err)
	}
	return nil
}

// ClanUniqueKills ranks clans by distinct uniques killed by their members.
func (c conn) ClanUniqueKills(ctx context.Context) ([]model.Ranked, error) {
	return c.ranked(ctx, `
		SELECT team_captain, kills, 0 FROM clan_unique_kills
		 WHERE kills > 0
		 ORDER BY kills DESC, team_captain`)
}

// ClanComboCounts ranks clans by race+class high scores held by their members.
func (c conn) ClanComboCounts(ctx context.Context) ([]model.Ranked, error) {
	return c.ranked(ctx, `
		SELECT team_captain, combos, 0 FROM combo_hs_clan_scoreboard
		 ORDER BY combos DESC, team_captain`)
}

// SetClanTotal sets the clan total to its members' full scores plus extra.
func (t *Tx) SetClanTotal(ctx context.Context, captain string, extra int) error {
	_, err := t.q.ExecContext(ctx, `
		UPDATE teams
		   SET total_score = COALESCE((SELECT SUM(score_full + team_score_full)
		                                 FROM players WHERE team_captain = ?), 0) + ?
		 WHERE owner = ?`, captain, extra, captain)
	if err != nil {
		return fmt.Errorf("set clan total %s: %w", captain, err)
	}
	return nil
}
