package scoring

import (
	"context"

	"github.com/okian/tourney/internal/domain/model"
	"github.com/okian/tourney/pkg/logger"
)

const (
	pointsUnique    = 5
	pointsRuneFirst = 10
	pointsRune      = 1
	pointsGhost     = 2

	bannerDiscoveredLanguage = "discovered_language"
	bannerRunicLiteracy      = "runic_literacy"
	prestigeDiscovered       = 6
	prestigeLiteracy         = 12
)

// MilestoneProcessor reacts to one newly recorded milestone.
type MilestoneProcessor struct {
	ledger   *PointLedger
	banners  *BannerRegistry
	maxRunes int
	log      logger.Logger
}

// NewMilestoneProcessor creates a processor. maxRunes is the number of
// distinct rune kinds needed for runic literacy.
func NewMilestoneProcessor(ledger *PointLedger, banners *BannerRegistry, maxRunes int) *MilestoneProcessor {
	return &MilestoneProcessor{
		ledger:   ledger,
		banners:  banners,
		maxRunes: maxRunes,
		log:      logger.Named("milestones"),
	}
}

// Process applies the scoring rules for m. The milestone row must already be
// stored: first-occurrence checks count it.
func (p *MilestoneProcessor) Process(ctx context.Context, st Store, m *model.Milestone) error {
	if err := st.UpdateMostRecentCharacter(ctx, m.Player, m.Build, m.Time); err != nil {
		return err
	}

	switch kind := m.Kind(); kind {
	case model.KindUnique:
		return p.unique(ctx, st, m)
	case model.KindRune:
		return p.rune(ctx, st, m)
	case model.KindGhost:
		if m.Banished() {
			return nil
		}
		return p.ledger.AwardPermanent(ctx, st, m.Player, "ghost", pointsGhost, true)
	case model.KindZiggurat, model.KindZigguratExit:
		depth, ok := m.ZigguratDepth()
		if !ok {
			return nil
		}
		return st.RecordZiggurat(ctx, m, depth)
	case model.KindGodRenounce, model.KindShop:
		// stored for the god bonus and feat banners
		return nil
	default:
		p.log.Warn(ctx, "ignoring milestone of unknown kind",
			logger.String("player", m.Player),
			logger.String("type", m.Type),
			logger.String("milestone", m.Text))
		return nil
	}
}

func (p *MilestoneProcessor) unique(ctx context.Context, st Store, m *model.Milestone) error {
	if m.Banished() {
		return nil
	}
	name, ok := m.Unique()
	if !ok {
		return nil
	}
	if err := st.RecordUniqueKill(ctx, m, name); err != nil {
		return err
	}
	n, err := st.CountUniqueKills(ctx, m.Player, name)
	if err != nil {
		return err
	}
	if n != 1 {
		return nil
	}
	return p.ledger.AwardPermanent(ctx, st, m.Player, "unique", pointsUnique, false)
}

func (p *MilestoneProcessor) rune(ctx context.Context, st Store, m *model.Milestone) error {
	r, ok := m.Rune()
	if !ok {
		return nil
	}
	if err := st.RecordRuneFind(ctx, m, r); err != nil {
		return err
	}
	n, err := st.CountRuneFinds(ctx, m.Player, r)
	if err != nil {
		return err
	}
	if n > 1 {
		return p.ledger.AwardPermanent(ctx, st, m.Player, "rune:"+r, pointsRune, false)
	}

	if err := p.ledger.AwardPermanent(ctx, st, m.Player, "rune_1st:"+r, pointsRuneFirst, false); err != nil {
		return err
	}
	if err := p.banners.SafeAwardBanner(ctx, st, m.Player, bannerDiscoveredLanguage, prestigeDiscovered); err != nil {
		return err
	}

	distinct, err := st.CountDistinctRunes(ctx, m.Player)
	if err != nil || distinct < p.maxRunes {
		return err
	}
	return p.banners.SafeAwardBanner(ctx, st, m.Player, bannerRunicLiteracy, prestigeLiteracy)
}
