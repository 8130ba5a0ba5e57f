package scoring

import (
	"context"
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/okian/tourney/pkg/logger"
	"github.com/okian/tourney/pkg/metrics"
)

const topPlayerBanners = 3

// CycleReport summarises one recomputation pass.
type CycleReport struct {
	ID         string
	Players    int
	Awards     int
	Points     int
	ClanPoints int
	CacheHits  int
	Duration   time.Duration
	FinishedAt time.Time
}

// Recomputer rebuilds every provisional award from scratch.
type Recomputer struct {
	ledger  *PointLedger
	banners *BannerRegistry
	log     logger.Logger
}

// NewRecomputer creates a recomputation pass runner.
func NewRecomputer(ledger *PointLedger, banners *BannerRegistry) *Recomputer {
	return &Recomputer{ledger: ledger, banners: banners, log: logger.Named("recompute")}
}

// cycle is the state of one pass.
type cycle struct {
	st     Store
	cache  *cycleCache
	points *PointMap
	report CycleReport
}

// Run executes one pass against st. st must be a single transaction: on
// error the caller rolls it back and the previous provisional state stands.
func (r *Recomputer) Run(ctx context.Context, st Store) (CycleReport, error) {
	start := time.Now()
	id, err := gonanoid.New()
	if err != nil {
		return CycleReport{}, fmt.Errorf("cycle id: %w", err)
	}
	c := &cycle{
		st:     st,
		cache:  newCycleCache(st),
		points: NewPointMap(),
		report: CycleReport{ID: id},
	}

	steps := []struct {
		name string
		fn   func(context.Context, *cycle) error
	}{
		{"flush", r.flush},
		{"touch players", r.touch},
		{"misc points", r.misc},
		{"trophies", r.trophies},
		{"feats", r.feats},
		{"full scores", r.commit},
		{"top players", r.topPlayers},
		{"clans", r.clans},
		{"verify", r.verify},
	}
	for _, s := range steps {
		if err := s.fn(ctx, c); err != nil {
			r.log.Error(ctx, "recomputation pass failed",
				logger.String("cycle", id),
				logger.String("step", s.name),
				logger.Error(err))
			return c.report, fmt.Errorf("recompute %s: %w", s.name, err)
		}
	}

	c.report.Points = c.points.Total()
	c.report.CacheHits = c.cache.hits
	c.report.FinishedAt = time.Now()
	c.report.Duration = c.report.FinishedAt.Sub(start)
	r.log.Info(ctx, "recomputation pass done",
		logger.String("cycle", id),
		logger.Int("players", c.report.Players),
		logger.Int("awards", c.report.Awards),
		logger.Int("points", c.report.Points),
		logger.Duration("took", c.report.Duration))
	return c.report, nil
}

func (r *Recomputer) flush(ctx context.Context, c *cycle) error {
	if err := r.ledger.FlushProvisional(ctx, c.st); err != nil {
		return err
	}
	return r.banners.FlushProvisional(ctx, c.st)
}

func (r *Recomputer) touch(ctx context.Context, c *cycle) error {
	players, err := c.cache.Players(ctx)
	if err != nil {
		return err
	}
	for _, p := range players {
		c.points.Touch(p)
	}
	c.report.Players = len(players)
	return nil
}

func (r *Recomputer) misc(ctx context.Context, c *cycle) error {
	for _, rule := range miscRules {
		rows, err := rule.rows(ctx, c.cache)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if row.Value <= 0 {
				continue
			}
			tag := fmt.Sprintf(rule.Tag, row.Value)
			if err := r.provisional(ctx, c, row.Player, tag, int(row.Value)*rule.Multiplier, false); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Recomputer) trophies(ctx context.Context, c *cycle) error {
	for _, t := range Trophies {
		if err := r.awardTrophy(ctx, c, t); err != nil {
			return fmt.Errorf("%s: %w", t.Tag, err)
		}
	}
	return nil
}

// awardTrophy pays every row of the trophy's ranking its scheduled points
// and a provisional banner carrying the same prestige.
func (r *Recomputer) awardTrophy(ctx context.Context, c *cycle, t Trophy) error {
	rows, err := t.rows(ctx, c.cache)
	if err != nil {
		return err
	}
	for i, place := range Places(rows, t.Share) {
		points := GetPoints(place, t.Points...)
		if points <= 0 {
			continue
		}
		player := rows[i].Player
		tag := fmt.Sprintf(t.Tag, place+1)
		if err := r.provisional(ctx, c, player, tag, points, t.Team); err != nil {
			return err
		}
		if err := r.banners.AwardBanner(ctx, c.st, player, tag, points, true); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recomputer) provisional(ctx context.Context, c *cycle, player, tag string, points int, team bool) error {
	if err := r.ledger.AwardProvisional(ctx, c.st, c.points, player, tag, points, team); err != nil {
		return err
	}
	c.report.Awards++
	return nil
}

func (r *Recomputer) feats(ctx context.Context, c *cycle) error {
	for _, f := range Feats {
		holders, err := c.st.FeatHolders(ctx, f.Banner)
		if err != nil {
			return err
		}
		for _, p := range holders {
			if err := r.banners.AwardBanner(ctx, c.st, p, f.Banner, f.Prestige, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// commit writes the accumulated totals once per player.
func (r *Recomputer) commit(ctx context.Context, c *cycle) error {
	if err := c.points.check(); err != nil {
		return err
	}
	for _, a := range c.points.Entries() {
		if err := c.st.SetFullScores(ctx, a.Player, a.You, a.Team); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recomputer) topPlayers(ctx context.Context, c *cycle) error {
	top, err := c.st.TopFullScores(ctx, topPlayerBanners)
	if err != nil {
		return err
	}
	for i, row := range top {
		if err := r.banners.AwardBanner(ctx, c.st, row.Player, fmt.Sprintf("top_player_Nth:%d", i+1), 0, true); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recomputer) clans(ctx context.Context, c *cycle) error {
	if err := c.st.FlushClanPoints(ctx); err != nil {
		return err
	}
	extra := make(map[string]int)
	for _, t := range clanTrophies {
		rows, err := t.rows(ctx, c.cache)
		if err != nil {
			return err
		}
		for i, place := range Places(rows, t.Share) {
			points := GetPoints(place, t.Points...)
			if points <= 0 {
				continue
			}
			captain := rows[i].Player
			if err := c.st.InsertClanAudit(ctx, captain, fmt.Sprintf(t.Tag, place+1), points, true); err != nil {
				return err
			}
			metrics.RecordAward("provisional", "clan", points)
			extra[strings.ToLower(captain)] += points
			c.report.ClanPoints += points
		}
	}

	clans, err := c.st.Clans(ctx)
	if err != nil {
		return err
	}
	for _, cl := range clans {
		if err := c.st.SetClanTotal(ctx, cl.Captain, extra[strings.ToLower(cl.Captain)]); err != nil {
			return err
		}
	}
	return nil
}

// verify checks the ledger before the pass may commit: permanent scores
// match their audit entries and the provisional audit entries add up to
// what was written to the score columns.
func (r *Recomputer) verify(ctx context.Context, c *cycle) error {
	bad, err := c.st.ConservationViolations(ctx)
	if err != nil {
		return err
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: permanent score differs from audit trail for %s", ErrInvariant, strings.Join(bad, ", "))
	}

	totals, err := c.st.ProvisionalTotals(ctx)
	if err != nil {
		return err
	}
	for player, got := range totals {
		want := c.points.Get(player)
		if got[0] != want.You || got[1] != want.Team {
			return fmt.Errorf("%w: provisional audit of %s is %v, accumulated (%d, %d)",
				ErrInvariant, player, got, want.You, want.Team)
		}
	}
	for _, a := range c.points.Entries() {
		if a.You == 0 && a.Team == 0 {
			continue
		}
		if _, ok := totals[a.Player]; !ok && !hasFold(totals, a.Player) {
			return fmt.Errorf("%w: %s accumulated points with no provisional audit", ErrInvariant, a.Player)
		}
	}
	return nil
}

func hasFold(m map[string][2]int, key string) bool {
	for k := range m {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}
