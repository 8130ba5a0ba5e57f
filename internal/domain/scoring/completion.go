package scoring

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/tourney/internal/domain/model"
	"github.com/okian/tourney/pkg/logger"
)

const (
	pointsChoice         = 100
	pointsFirstAllRune   = 50
	pointsWinGod         = 20
	pointsFirstWin       = 100
	pointsSecondWinNoRep = 50
	pointsWin            = 10

	bannerCartographer = "cartographer"
)

// positional is the {1st, 2nd, 3rd} schedule of the global win races.
var positional = []int{200, 100, 50}

// ChoiceWindow pays a one-time bonus for winning with Build while the window is open.
type ChoiceWindow struct {
	Build string
	From  time.Time
	Until time.Time
}

func (w ChoiceWindow) covers(r *model.Run) bool {
	return strings.EqualFold(w.Build, r.Build) && !r.End.Before(w.From) && r.End.Before(w.Until)
}

// CompletionProcessor reacts to one newly recorded run.
type CompletionProcessor struct {
	ledger   *PointLedger
	banners  *BannerRegistry
	streaks  *StreakTracker
	uniques  model.Uniques
	windows  []ChoiceWindow
	maxRunes int
	ghostXL  int
	log      logger.Logger
}

// NewCompletionProcessor creates a processor.
func NewCompletionProcessor(ledger *PointLedger, banners *BannerRegistry, streaks *StreakTracker, opts ...Option) *CompletionProcessor {
	o := newOptions(opts...)
	return &CompletionProcessor{
		ledger:   ledger,
		banners:  banners,
		streaks:  streaks,
		uniques:  o.uniques,
		windows:  o.windows,
		maxRunes: o.maxRunes,
		ghostXL:  o.ghostKillMinXL,
		log:      logger.Named("completions"),
	}
}

// Process applies the scoring rules for r. The run row must already be stored.
func (p *CompletionProcessor) Process(ctx context.Context, st Store, r *model.Run) error {
	if r.Won() {
		if err := p.winner(ctx, st, r); err != nil {
			return fmt.Errorf("score win of %s: %w", r.Player, err)
		}
	}
	if err := p.misc(ctx, st, r); err != nil {
		return fmt.Errorf("score run of %s: %w", r.Player, err)
	}
	return p.ghostKill(ctx, st, r)
}

func (p *CompletionProcessor) award(ctx context.Context, st Store, player, source string, points int) error {
	return p.ledger.AwardPermanent(ctx, st, player, source, points, false)
}

func (p *CompletionProcessor) winner(ctx context.Context, st Store, r *model.Run) error {
	active, err := p.streaks.Win(ctx, st, r.Player, r.End)
	if err != nil {
		return err
	}

	if err := p.choice(ctx, st, r); err != nil {
		return err
	}

	if r.Runes >= p.maxRunes {
		prior, err := st.CountWins(ctx, model.WinFilter{MinRunes: p.maxRunes, Before: r.End, BeforeKey: r.Key()})
		if err != nil {
			return err
		}
		tag := fmt.Sprintf("nth_all_rune_win:%d", prior+1)
		if err := p.award(ctx, st, r.Player, tag, GetPoints(prior, positional...)); err != nil {
			return err
		}
		mine, err := st.CountWins(ctx, model.WinFilter{Player: r.Player, MinRunes: p.maxRunes, Before: r.End, BeforeKey: r.Key()})
		if err != nil {
			return err
		}
		if mine == 0 {
			if err := p.award(ctx, st, r.Player, "my_1st_all_rune_win", pointsFirstAllRune); err != nil {
				return err
			}
		}
	}

	prev, err := st.CountWins(ctx, model.WinFilter{Before: r.End, BeforeKey: r.Key()})
	if err != nil {
		return err
	}
	if err := p.award(ctx, st, r.Player, fmt.Sprintf("nth_win:%d", prev+1), GetPoints(prev, positional...)); err != nil {
		return err
	}

	myWins, err := st.WinBuilds(ctx, r.Player, r.End, r.Key())
	if err != nil {
		return err
	}
	n := len(myWins)

	if err := p.god(ctx, st, r); err != nil {
		return err
	}

	repeated := 0
	if n > 0 {
		repeated = RepeatScore(myWins, r.Build)
	}

	switch {
	case n == 0:
		err = p.award(ctx, st, r.Player, "my_1st_win", pointsFirstWin)
	case n == 1 && repeated == 0:
		err = p.award(ctx, st, r.Player, "my_2nd_win_norep", pointsSecondWinNoRep)
	default:
		err = p.award(ctx, st, r.Player, "my_win", pointsWin)
	}
	if err != nil || n == 0 {
		return err
	}

	streakWins, err := p.streaks.PriorWins(ctx, st, r.Player, r.End)
	if err != nil {
		return err
	}
	if len(streakWins) > 0 {
		if active != len(streakWins)+1 {
			p.log.Warn(ctx, "active streak disagrees with run history",
				logger.String("player", r.Player),
				logger.Int("active", active),
				logger.Int("games", len(streakWins)+1))
		}
		return p.award(ctx, st, r.Player, "streak_win", GetPoints(RepeatScore(streakWins, r.Build), 100, 30, 10))
	}
	if n >= 2 || (n == 1 && repeated == 1) {
		return p.award(ctx, st, r.Player, "my_nonstreak_norep", GetPoints(repeated, 30, 10))
	}
	return nil
}

func (p *CompletionProcessor) choice(ctx context.Context, st Store, r *model.Run) error {
	for _, w := range p.windows {
		if !w.covers(r) {
			continue
		}
		banner := "nemelex_choice:" + r.Build
		has, err := p.banners.HasBanner(ctx, st, r.Player, banner)
		if err != nil || has {
			return err
		}
		if err := p.award(ctx, st, r.Player, banner, pointsChoice); err != nil {
			return err
		}
		return p.banners.AwardBanner(ctx, st, r.Player, banner, pointsChoice, false)
	}
	return nil
}

// god pays the first win under each god, unless the god was renounced
// during the run.
func (p *CompletionProcessor) god(ctx context.Context, st Store, r *model.Run) error {
	repeated, err := st.IsGodRepeated(ctx, r.Player, r.God)
	if err != nil || repeated {
		return err
	}
	renounced, err := st.DidRenounceGod(ctx, r.Player, r.Start)
	if err != nil || renounced {
		return err
	}
	if err := st.RecordWonGod(ctx, r.Player, r.God); err != nil {
		return err
	}
	return p.award(ctx, st, r.Player, "win_god:"+godTag(r.God), pointsWinGod)
}

func godTag(god string) string {
	if god == "" {
		god = "none"
	}
	return strings.ReplaceAll(strings.ToLower(god), " ", "_")
}

func (p *CompletionProcessor) misc(ctx context.Context, st Store, r *model.Run) error {
	if !r.Won() {
		if err := p.streaks.Loss(ctx, st, r.Player); err != nil {
			return err
		}
	}

	if err := p.banners.SafeAwardBanner(ctx, st, r.Player, bannerCartographer, 0); err != nil {
		return err
	}

	if killer := r.KillerName(); !r.Won() && p.uniques.Contains(killer) {
		if err := st.RecordDeathToUnique(ctx, r, killer); err != nil {
			return err
		}
		n, err := st.CountDeathsToDistinctUniques(ctx, r.Player)
		if err != nil {
			return err
		}
		cached, err := st.LookupDeathsToDistinctUniques(ctx, r.Player)
		if err != nil {
			return err
		}
		if n > cached {
			if err := st.UpdateDeathsToDistinctUniques(ctx, r.Player, n, r.End); err != nil {
				return err
			}
		}
	}

	for _, skill := range r.MaxedSkills() {
		if _, err := st.RegisterMaxedSkill(ctx, r.Player, skill); err != nil {
			return err
		}
	}
	return nil
}

// ghostKill pays the ghost's owner for a kill above the level threshold.
func (p *CompletionProcessor) ghostKill(ctx context.Context, st Store, r *model.Run) error {
	owner, ok := r.GhostOwner()
	if !ok || r.XL <= p.ghostXL {
		return nil
	}
	return p.ledger.AwardPermanent(ctx, st, owner, "gkill", r.XL-p.ghostXL, true)
}
