package scoring

import (
	"context"

	"github.com/okian/tourney/pkg/logger"
	"github.com/okian/tourney/pkg/metrics"
)

// BannerRegistry grants achievement banners. A permanent banner is held at
// most once; provisional banners are replaced every pass.
type BannerRegistry struct {
	log logger.Logger
}

// NewBannerRegistry creates a registry.
func NewBannerRegistry() *BannerRegistry {
	return &BannerRegistry{log: logger.Named("banners")}
}

// HasBanner reports whether player holds banner.
func (b *BannerRegistry) HasBanner(ctx context.Context, st BannerStore, player, banner string) (bool, error) {
	return st.HasBanner(ctx, player, banner)
}

// AwardBanner grants banner. Granting a held banner changes nothing.
func (b *BannerRegistry) AwardBanner(ctx context.Context, st BannerStore, player, banner string, prestige int, temp bool) error {
	if err := st.EnsurePlayer(ctx, player); err != nil {
		return err
	}
	granted, err := st.InsertBanner(ctx, player, banner, prestige, temp)
	if err != nil {
		return err
	}
	if granted {
		temporality := "permanent"
		if temp {
			temporality = "provisional"
		}
		metrics.RecordBannerAwarded(temporality)
		b.log.Debug(ctx, "banner awarded",
			logger.String("player", player),
			logger.String("banner", banner),
			logger.Int("prestige", prestige),
			logger.Bool("temp", temp))
	}
	return nil
}

// SafeAwardBanner grants a permanent banner unless the player already holds it.
func (b *BannerRegistry) SafeAwardBanner(ctx context.Context, st BannerStore, player, banner string, prestige int) error {
	has, err := st.HasBanner(ctx, player, banner)
	if err != nil || has {
		return err
	}
	return b.AwardBanner(ctx, st, player, banner, prestige, false)
}

// FlushProvisional removes every provisional banner.
func (b *BannerRegistry) FlushProvisional(ctx context.Context, st BannerStore) error {
	return st.FlushProvisionalBanners(ctx)
}
