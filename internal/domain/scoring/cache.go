package scoring

import (
	"context"

	"github.com/okian/tourney/internal/domain/model"
)

// cycleCache memoizes the queries one recomputation pass repeats. It is
// created at the start of a pass and dropped at its end, so nothing it holds
// outlives the transaction it was read in.
type cycleCache struct {
	st Store

	players []string
	ranked  map[string][]model.Ranked
	hits    int
}

func newCycleCache(st Store) *cycleCache {
	return &cycleCache{st: st, ranked: make(map[string][]model.Ranked)}
}

// Players returns every known player.
func (c *cycleCache) Players(ctx context.Context) ([]string, error) {
	if c.players != nil {
		c.hits++
		return c.players, nil
	}
	players, err := c.st.Players(ctx)
	if err != nil {
		return nil, err
	}
	if players == nil {
		players = []string{}
	}
	c.players = players
	return players, nil
}

func (c *cycleCache) rows(ctx context.Context, key string, load func(context.Context) ([]model.Ranked, error)) ([]model.Ranked, error) {
	if rows, ok := c.ranked[key]; ok {
		c.hits++
		return rows, nil
	}
	rows, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.ranked[key] = rows
	return rows, nil
}

// comboHighscores is read by both the combo points and the combo trophy.
func (c *cycleCache) comboHighscores(ctx context.Context) ([]model.Ranked, error) {
	return c.rows(ctx, "combo_hs", c.st.ComboHighscoreCounts)
}
