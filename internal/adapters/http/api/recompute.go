package api

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/tourney/internal/domain/scoring"
)

// RecomputeDependencies runs an on-demand recomputation pass.
type RecomputeDependencies interface {
	RecomputeNow(ctx context.Context) (scoring.CycleReport, error)
}

// RecomputeHandler handles POST /recompute.
type RecomputeHandler struct {
	deps RecomputeDependencies
}

// NewRecomputeHandler creates a new recompute handler.
func NewRecomputeHandler(deps RecomputeDependencies) *RecomputeHandler {
	return &RecomputeHandler{deps: deps}
}

type cycleResponse struct {
	ID         string    `json:"id"`
	Players    int       `json:"players"`
	Awards     int       `json:"awards"`
	Points     int       `json:"points"`
	ClanPoints int       `json:"clan_points"`
	DurationMs int64     `json:"duration_ms"`
	FinishedAt time.Time `json:"finished_at"`
}

// HandleRecompute runs one pass and reports what it committed.
func (h *RecomputeHandler) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	report, err := h.deps.RecomputeNow(r.Context())
	if err != nil {
		writeError(w, r, Wrap("api.recompute", err))
		return
	}
	writeJSON(w, http.StatusOK, cycleResponse{
		ID:         report.ID,
		Players:    report.Players,
		Awards:     report.Awards,
		Points:     report.Points,
		ClanPoints: report.ClanPoints,
		DurationMs: report.Duration.Milliseconds(),
		FinishedAt: report.FinishedAt,
	})
}
