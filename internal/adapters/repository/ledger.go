package repository

import (
	"context"
	"fmt"

	"github.com/okian/tourney/internal/domain/model"
)

// InsertAudit appends one entry to the player point audit trail.
func (t *Tx) InsertAudit(ctx context.Context, a model.Award) error {
	points, teamPoints := a.Points, 0
	if a.Team {
		points, teamPoints = 0, a.Points
	}
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO player_points (player, temp, points, team_points, point_source)
		VALUES (?, ?, ?, ?, ?)`,
		a.Player, boolInt(a.Temporary), points, teamPoints, a.Source)
	if err != nil {
		return fmt.Errorf("insert audit %s/%s: %w", a.Player, a.Source, err)
	}
	return nil
}

// AddScoreBase adds points to the player's permanent score.
func (t *Tx) AddScoreBase(ctx context.Context, player string, points int) error {
	return t.bump(ctx, `UPDATE players SET score_base = score_base + ? WHERE name = ?`, player, points)
}

// AddTeamScoreBase adds points to the player's permanent team contribution.
func (t *Tx) AddTeamScoreBase(ctx context.Context, player string, points int) error {
	return t.bump(ctx, `UPDATE players SET team_score_base = team_score_base + ? WHERE name = ?`, player, points)
}

func (t *Tx) bump(ctx context.Context, query, player string, points int) error {
	res, err := t.q.ExecContext(ctx, query, points, player)
	if err != nil {
		return fmt.Errorf("add points to %s: %w", player, err)
	}
	ok, err := inserted(res)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("add points to %s: %w", player, ErrNotFound)
	}
	return nil
}

// FlushProvisionalAudit deletes every provisional audit entry.
func (t *Tx) FlushProvisionalAudit(ctx context.Context) error {
	if _, err := t.q.ExecContext(ctx, `DELETE FROM player_points WHERE temp = 1`); err != nil {
		return fmt.Errorf("flush provisional audit: %w", err)
	}
	return nil
}

// SetFullScores writes score_full = score_base + you and
// team_score_full = team_score_base + team.
func (t *Tx) SetFullScores(ctx context.Context, player string, you, team int) error {
	_, err := t.q.ExecContext(ctx, `
		UPDATE players SET score_full = score_base + ?, team_score_full = team_score_base + ?
		 WHERE name = ?`, you, team, player)
	if err != nil {
		return fmt.Errorf("set full scores of %s: %w", player, err)
	}
	return nil
}

// ConservationViolations lists players whose permanent scores differ from
// the sum of their permanent audit entries.
func (c conn) ConservationViolations(ctx context.Context) ([]string, error) {
	return c.strings(ctx, `
		SELECT p.name
		  FROM players p
		  LEFT JOIN (SELECT player, SUM(points) AS pts, SUM(team_points) AS tpts
		               FROM player_points
		              WHERE temp = 0
		           GROUP BY player) a ON a.player = p.name
		 WHERE p.score_base != COALESCE(a.pts, 0)
		    OR p.team_score_base != COALESCE(a.tpts, 0)
		 ORDER BY p.name`)
}

// ProvisionalTotals sums the provisional audit entries per player, used to
// check that a pass wrote what it accumulated.
func (c conn) ProvisionalTotals(ctx context.Context) (map[string][2]int, error) {
	rows, err := c.q.QueryContext(ctx, `
		SELECT player, SUM(points), SUM(team_points)
		  FROM player_points WHERE temp = 1 GROUP BY player`)
	if err != nil {
		return nil, fmt.Errorf("provisional totals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string][2]int)
	for rows.Next() {
		var player string
		var you, team int
		if err := rows.Scan(&player, &you, &team); err != nil {
			return nil, fmt.Errorf("scan provisional totals: %w", err)
		}
		out[player] = [2]int{you, team}
	}
	return out, rows.Err()
}
