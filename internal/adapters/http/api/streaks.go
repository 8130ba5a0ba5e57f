package api

import (
	"context"
	"net/http"

	"github.com/okian/tourney/internal/domain/types"
)

// StreakDependencies serves the streak projections.
type StreakDependencies interface {
	Streaks(ctx context.Context, active bool, limit int) ([]types.StreakEntry, error)
}

// StreaksHandler handles streak requests.
type StreaksHandler struct {
	deps     StreakDependencies
	maxLimit int
}

// NewStreaksHandler creates a new streaks handler.
func NewStreaksHandler(deps StreakDependencies, maxLimit int) *StreaksHandler {
	return &StreaksHandler{deps: deps, maxLimit: maxLimit}
}

// HandleStreaks handles GET /streaks?active=bool&limit=N requests. Active
// streaks are listed unless active=false asks for the best streaks.
func (h *StreaksHandler) HandleStreaks(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_streaks"
	active, err := boolParam(op, r, "active", true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := limitParam(op, r, h.maxLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	streaks, err := h.deps.Streaks(r.Context(), active, n)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, streaks)
}
