package scoring

import (
	"context"

	"github.com/okian/tourney/internal/domain/model"
)

// Engine applies facts and recomputation passes. It holds no state between
// calls; everything lives in the Store it is handed.
type Engine struct {
	ledger      *PointLedger
	banners     *BannerRegistry
	streaks     *StreakTracker
	milestones  *MilestoneProcessor
	completions *CompletionProcessor
	recomputer  *Recomputer
}

// NewEngine wires the ledger components together.
func NewEngine(opts ...Option) *Engine {
	o := newOptions(opts...)
	ledger := NewPointLedger()
	banners := NewBannerRegistry()
	streaks := NewStreakTracker()
	return &Engine{
		ledger:      ledger,
		banners:     banners,
		streaks:     streaks,
		milestones:  NewMilestoneProcessor(ledger, banners, o.maxRunes),
		completions: NewCompletionProcessor(ledger, banners, streaks, opts...),
		recomputer:  NewRecomputer(ledger, banners),
	}
}

// ApplyRun records r and scores it. It reports false without scoring when
// the run was already recorded. Malformed runs return ErrMalformedFact.
func (e *Engine) ApplyRun(ctx context.Context, st Store, r *model.Run) (bool, error) {
	r.Normalize()
	if err := r.Validate(); err != nil {
		return false, err
	}
	inserted, err := st.InsertRun(ctx, r)
	if err != nil || !inserted {
		return false, err
	}
	if err := st.EnsurePlayer(ctx, r.Player); err != nil {
		return false, err
	}
	return true, e.completions.Process(ctx, st, r)
}

// ApplyMilestone records m and scores it, like ApplyRun.
func (e *Engine) ApplyMilestone(ctx context.Context, st Store, m *model.Milestone) (bool, error) {
	m.Normalize()
	if err := m.Validate(); err != nil {
		return false, err
	}
	inserted, err := st.InsertMilestone(ctx, m)
	if err != nil || !inserted {
		return false, err
	}
	if err := st.EnsurePlayer(ctx, m.Player); err != nil {
		return false, err
	}
	return true, e.milestones.Process(ctx, st, m)
}

// Recompute runs one provisional recomputation pass.
func (e *Engine) Recompute(ctx context.Context, st Store) (CycleReport, error) {
	return e.recomputer.Run(ctx, st)
}

// StreakLength returns the player's active streak length.
func (e *Engine) StreakLength(ctx context.Context, st StreakReader, player string) (int, error) {
	return e.streaks.Length(ctx, st, player)
}
