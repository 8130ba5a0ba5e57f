package api

import (
	"context"
	"net/http"

	"github.com/okian/tourney/internal/domain/types"
)

// PlayerDependencies serves the player projections.
type PlayerDependencies interface {
	TopPlayers(ctx context.Context, limit int) ([]types.PlayerEntry, error)
	Player(ctx context.Context, name string) (types.PlayerDetail, error)
	PlayerAudit(ctx context.Context, name string, team bool) (types.AuditTrail, error)
}

// PlayersHandler handles player ranking and detail requests.
type PlayersHandler struct {
	deps     PlayerDependencies
	maxLimit int
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps PlayerDependencies, maxLimit int) *PlayersHandler {
	return &PlayersHandler{deps: deps, maxLimit: maxLimit}
}

// HandleTop handles GET /players?limit=N requests.
func (h *PlayersHandler) HandleTop(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_players"
	n, err := limitParam(op, r, h.maxLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entries, err := h.deps.TopPlayers(r.Context(), n)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandlePlayer handles GET /players/{name} requests.
func (h *PlayersHandler) HandlePlayer(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_player"
	detail, err := h.deps.Player(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// HandleAudit handles GET /players/{name}/audit?team=bool requests.
func (h *PlayersHandler) HandleAudit(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_player_audit"
	team, err := boolParam(op, r, "team", false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	trail, err := h.deps.PlayerAudit(r.Context(), r.PathValue("name"), team)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, trail)
}
