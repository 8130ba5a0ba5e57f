package service

import (
	"context"

	"github.com/okian/tourney/internal/domain/types"
)

// TopPlayers returns the player ranking.
func (s *Service) TopPlayers(ctx context.Context, limit int) ([]types.PlayerEntry, error) {
	st, err := s.ledger()
	if err != nil {
		return nil, err
	}
	return st.TopPlayers(ctx, limit)
}

// Player returns one player's scores and banners.
func (s *Service) Player(ctx context.Context, name string) (types.PlayerDetail, error) {
	st, err := s.ledger()
	if err != nil {
		return types.PlayerDetail{}, err
	}
	return st.PlayerDetail(ctx, name)
}

// PlayerAudit returns where a player's personal or team points came from.
func (s *Service) PlayerAudit(ctx context.Context, name string, team bool) (types.AuditTrail, error) {
	st, err := s.ledger()
	if err != nil {
		return types.AuditTrail{}, err
	}
	return st.PlayerAudit(ctx, name, team)
}

// Clans returns the clan ranking.
func (s *Service) Clans(ctx context.Context, limit int) ([]types.ClanEntry, error) {
	st, err := s.ledger()
	if err != nil {
		return nil, err
	}
	return st.ClanRanking(ctx, limit)
}

// Clan returns the roster and audit trail of captain's clan.
func (s *Service) Clan(ctx context.Context, captain string) (types.ClanDetail, error) {
	st, err := s.ledger()
	if err != nil {
		return types.ClanDetail{}, err
	}
	return st.ClanDetail(ctx, captain)
}

// Streaks returns active streaks, or the best streaks when active is false.
func (s *Service) Streaks(ctx context.Context, active bool, limit int) ([]types.StreakEntry, error) {
	st, err := s.ledger()
	if err != nil {
		return nil, err
	}
	return st.StreakEntries(ctx, active, limit)
}

// GetStats summarises the ledger, the queue and the last pass.
func (s *Service) GetStats(ctx context.Context) (types.Stats, error) {
	st, err := s.ledger()
	if err != nil {
		return types.Stats{}, err
	}
	stats, err := st.Counts(ctx)
	if err != nil {
		return stats, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	stats.LastCycleID = s.lastCycle.ID
	stats.LastRecompute = s.lastCycle.FinishedAt
	if s.queue != nil {
		stats.QueueSize = s.queue.Len(ctx)
		stats.QueueCapacity = s.queue.Capacity()
	}
	return stats, nil
}
