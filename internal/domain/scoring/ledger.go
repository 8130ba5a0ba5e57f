package scoring

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/okian/tourney/internal/domain/model"
	"github.com/okian/tourney/pkg/logger"
	"github.com/okian/tourney/pkg/metrics"
)

// PointLedger writes point awards to the audit trail and the score columns.
//
// The ledger does not deduplicate by source tag. Callers establish first
// occurrence before awarding.
type PointLedger struct {
	log logger.Logger
}

// NewPointLedger creates a ledger.
func NewPointLedger() *PointLedger {
	return &PointLedger{log: logger.Named("ledger")}
}

// AwardPermanent adds points to the player's permanent score, or to their
// team contribution when team is set. Non-positive amounts are ignored.
// Unknown players are created first.
func (l *PointLedger) AwardPermanent(ctx context.Context, st LedgerStore, player, source string, points int, team bool) error {
	if points <= 0 {
		return nil
	}
	if err := st.EnsurePlayer(ctx, player); err != nil {
		return err
	}
	if err := st.InsertAudit(ctx, model.Award{Player: player, Source: source, Points: points, Team: team}); err != nil {
		return err
	}
	var err error
	if team {
		err = st.AddTeamScoreBase(ctx, player, points)
	} else {
		err = st.AddScoreBase(ctx, player, points)
	}
	if err != nil {
		return err
	}

	metrics.RecordAward("permanent", target(team), points)
	l.log.Debug(ctx, "points awarded",
		logger.String("player", player),
		logger.String("source", source),
		logger.Int("points", points),
		logger.String("target", target(team)))
	return nil
}

// AwardProvisional logs a provisional audit entry and accumulates the points
// in pm. Score columns are written once per pass from pm.
func (l *PointLedger) AwardProvisional(ctx context.Context, st LedgerStore, pm *PointMap, player, source string, points int, team bool) error {
	if points <= 0 {
		return nil
	}
	if err := st.EnsurePlayer(ctx, player); err != nil {
		return err
	}
	if err := st.InsertAudit(ctx, model.Award{Player: player, Source: source, Points: points, Team: team, Temporary: true}); err != nil {
		return err
	}
	pm.Add(player, points, team)
	metrics.RecordAward("provisional", target(team), points)
	return nil
}

// FlushProvisional deletes every provisional audit entry.
func (l *PointLedger) FlushProvisional(ctx context.Context, st LedgerStore) error {
	return st.FlushProvisionalAudit(ctx)
}

func target(team bool) string {
	if team {
		return "team"
	}
	return "player"
}

// Accum is one player's provisional total for the current pass.
type Accum struct {
	Player string
	You    int
	Team   int
}

// PointMap accumulates provisional points per player for one pass. Keys are
// case-insensitive.
type PointMap struct {
	m map[string]*Accum
}

// NewPointMap returns an empty map.
func NewPointMap() *PointMap {
	return &PointMap{m: make(map[string]*Accum)}
}

func (p *PointMap) entry(player string) *Accum {
	key := strings.ToLower(player)
	a, ok := p.m[key]
	if !ok {
		a = &Accum{Player: player}
		p.m[key] = a
	}
	return a
}

// Touch makes sure the player is written at the end of the pass even with no points.
func (p *PointMap) Touch(player string) { p.entry(player) }

// Add credits points to the player or team column.
func (p *PointMap) Add(player string, points int, team bool) {
	a := p.entry(player)
	if team {
		a.Team += points
	} else {
		a.You += points
	}
}

// Get returns the accumulated totals for player.
func (p *PointMap) Get(player string) Accum {
	if a, ok := p.m[strings.ToLower(player)]; ok {
		return *a
	}
	return Accum{Player: player}
}

// Entries returns every accumulation ordered by player.
func (p *PointMap) Entries() []Accum {
	out := make([]Accum, 0, len(p.m))
	for _, a := range p.m {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Player) < strings.ToLower(out[j].Player)
	})
	return out
}

// Total sums every accumulated point.
func (p *PointMap) Total() int {
	total := 0
	for _, a := range p.m {
		total += a.You + a.Team
	}
	return total
}

// check rejects negative totals.
func (p *PointMap) check() error {
	for _, a := range p.Entries() {
		if a.You < 0 || a.Team < 0 {
			return fmt.Errorf("%w: negative provisional total for %s (%d, %d)", ErrInvariant, a.Player, a.You, a.Team)
		}
	}
	return nil
}
