package api

import (
	"context"
	"net/http"

	"github.com/okian/tourney/internal/domain/types"
)

// ClanDependencies serves the clan projections.
type ClanDependencies interface {
	Clans(ctx context.Context, limit int) ([]types.ClanEntry, error)
	Clan(ctx context.Context, captain string) (types.ClanDetail, error)
}

// ClansHandler handles clan ranking and roster requests.
type ClansHandler struct {
	deps     ClanDependencies
	maxLimit int
}

// NewClansHandler creates a new clans handler.
func NewClansHandler(deps ClanDependencies, maxLimit int) *ClansHandler {
	return &ClansHandler{deps: deps, maxLimit: maxLimit}
}

// HandleClans handles GET /clans?limit=N requests.
func (h *ClansHandler) HandleClans(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_clans"
	n, err := limitParam(op, r, h.maxLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	clans, err := h.deps.Clans(r.Context(), n)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, clans)
}

// HandleClan handles GET /clans/{captain} requests.
func (h *ClansHandler) HandleClan(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_clan"
	clan, err := h.deps.Clan(r.Context(), r.PathValue("captain"))
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, clan)
}
