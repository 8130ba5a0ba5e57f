package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/okian/tourney/internal/domain/types"
)

// TopPlayers ranks players by full score.
func (c conn) TopPlayers(ctx context.Context, limit int) ([]types.PlayerEntry, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	rows, err := c.q.QueryContext(ctx, `
		SELECT name, score_full, team_score_full, COALESCE(team_captain, '')
		  FROM players
		 ORDER BY score_full DESC, name
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("top players: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]types.PlayerEntry, 0, limit)
	for rows.Next() {
		e := types.PlayerEntry{Rank: len(out) + 1}
		if err := rows.Scan(&e.Player, &e.Score, &e.TeamScore, &e.Captain); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// PlayerDetail returns the scores and banners of one player.
func (c conn) PlayerDetail(ctx context.Context, player string) (types.PlayerDetail, error) {
	var d types.PlayerDetail
	err := c.q.QueryRowContext(ctx, `
		SELECT name, score_base, team_score_base, score_full, team_score_full, COALESCE(team_captain, '')
		  FROM players WHERE name = ?`, player).
		Scan(&d.Player, &d.ScoreBase, &d.TeamScoreBase, &d.ScoreFull, &d.TeamScoreFull, &d.Captain)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return d, fmt.Errorf("player %s: %w", player, ErrNotFound)
	case err != nil:
		return d, fmt.Errorf("player %s: %w", player, err)
	}

	rows, err := c.q.QueryContext(ctx, `
		SELECT banner, prestige, temp FROM player_banners
		 WHERE player = ? ORDER BY prestige DESC, banner`, player)
	if err != nil {
		return d, fmt.Errorf("banners of %s: %w", player, err)
	}
	defer func() { _ = rows.Close() }()

	d.Banners = []types.Banner{}
	for rows.Next() {
		var b types.Banner
		if err := rows.Scan(&b.Name, &b.Prestige, &b.Temporary); err != nil {
			return d, fmt.Errorf("scan banner: %w", err)
		}
		d.Banners = append(d.Banners, b)
	}
	return d, rows.Err()
}

// PlayerAudit groups the player's audit entries by temporality and source.
// team selects the team point column instead of the personal one.
func (c conn) PlayerAudit(ctx context.Context, player string, team bool) (types.AuditTrail, error) {
	name, err := c.canonicalName(ctx, player)
	if err != nil {
		return types.AuditTrail{}, err
	}
	column := "points"
	if team {
		column = "team_points"
	}
	lines, err := c.auditLines(ctx, fmt.Sprintf(`
		SELECT point_source, temp, SUM(%[1]s), COUNT(*)
		  FROM player_points
		 WHERE player = ? AND %[1]s > 0
		 GROUP BY temp, point_source
		 ORDER BY temp, SUM(%[1]s) DESC, point_source`, column), name)
	if err != nil {
		return types.AuditTrail{}, err
	}
	return types.AuditTrail{Owner: name, Team: team, Lines: lines}, nil
}

func (c conn) auditLines(ctx context.Context, query string, args ...any) ([]types.AuditLine, error) {
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: %w", err)
	}
	defer func() { _ = rows.Close() }()

	lines := []types.AuditLine{}
	for rows.Next() {
		var l types.AuditLine
		if err := rows.Scan(&l.Source, &l.Temporary, &l.Points, &l.Count); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// ClanRanking ranks clans by total score.
func (c conn) ClanRanking(ctx context.Context, limit int) ([]types.ClanEntry, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	rows, err := c.q.QueryContext(ctx, `
		SELECT name, owner, total_score FROM teams
		 ORDER BY total_score DESC, owner LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("clan ranking: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]types.ClanEntry, 0, limit)
	for rows.Next() {
		e := types.ClanEntry{Rank: len(out) + 1}
		if err := rows.Scan(&e.Name, &e.Captain, &e.Total); err != nil {
			return nil, fmt.Errorf("scan clan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ClanDetail returns the roster, member contributions and audit trail of a clan.
func (c conn) ClanDetail(ctx context.Context, captain string) (types.ClanDetail, error) {
	var d types.ClanDetail
	err := c.q.QueryRowContext(ctx, `SELECT name, owner, total_score FROM teams WHERE owner = ?`, captain).
		Scan(&d.Name, &d.Captain, &d.Total)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return d, fmt.Errorf("clan of %s: %w", captain, ErrNotFound)
	case err != nil:
		return d, fmt.Errorf("clan of %s: %w", captain, err)
	}

	rows, err := c.q.QueryContext(ctx, `
		SELECT name, score_full, team_score_full FROM players
		 WHERE team_captain = ?
		 ORDER BY (name = team_captain) DESC, name`, d.Captain)
	if err != nil {
		return d, fmt.Errorf("clan members: %w", err)
	}
	defer func() { _ = rows.Close() }()
	d.Members = []types.ClanMember{}
	for rows.Next() {
		var m types.ClanMember
		if err := rows.Scan(&m.Player, &m.Score, &m.TeamScore); err != nil {
			return d, fmt.Errorf("scan member: %w", err)
		}
		d.Members = append(d.Members, m)
	}
	if err := rows.Err(); err != nil {
		return d, err
	}

	d.Audit, err = c.auditLines(ctx, `
		SELECT point_source, temp, SUM(points), COUNT(*)
		  FROM clan_points
		 WHERE captain = ?
		 GROUP BY temp, point_source
		 ORDER BY temp, SUM(points) DESC, point_source`, d.Captain)
	return d, err
}

// StreakEntries lists active streaks, or best streaks when active is false.
func (c conn) StreakEntries(ctx context.Context, active bool, limit int) ([]types.StreakEntry, error) {
	ranking := c.BestStreakRanking
	if active {
		ranking = c.ActiveStreakRanking
	}
	list, err := ranking(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]types.StreakEntry, 0, len(list))
	for _, r := range list {
		out = append(out, types.StreakEntry{Player: r.Player, Length: int(r.Value), End: r.At, Active: active})
	}
	return out, nil
}

// Counts fills the ledger totals of stats.
func (c conn) Counts(ctx context.Context) (types.Stats, error) {
	var s types.Stats
	err := c.q.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM players),
		       (SELECT COUNT(*) FROM teams),
		       (SELECT COUNT(*) FROM runs),
		       (SELECT COUNT(*) FROM runs WHERE won = 1),
		       (SELECT COUNT(*) FROM milestones),
		       (SELECT COALESCE(SUM(points + team_points), 0) FROM player_points WHERE temp = 0),
		       (SELECT COALESCE(SUM(points + team_points), 0) FROM player_points WHERE temp = 1)`).
		Scan(&s.Players, &s.Clans, &s.Runs, &s.Wins, &s.Milestones, &s.PermanentTotal, &s.ProvisionalSum)
	if err != nil {
		return s, fmt.Errorf("counts: %w", err)
	}
	return s, nil
}
