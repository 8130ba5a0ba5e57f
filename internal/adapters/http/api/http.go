// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/okian/tourney/internal/adapters/repository"
	service "github.com/okian/tourney/internal/app"
	"github.com/okian/tourney/internal/domain/model"
	"github.com/okian/tourney/internal/domain/scoring"
	"github.com/okian/tourney/pkg/logger"
)

const (
	defaultLimit    = 10
	defaultMaxLimit = 100
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	FactDependencies
	PlayerDependencies
	ClanDependencies
	StreakDependencies
	StatsProvider
	RecomputeDependencies
}

// FactDependencies accepts facts from the game servers.
type FactDependencies interface {
	OnRunCompleted(ctx context.Context, r *model.Run) (service.Status, error)
	OnMilestone(ctx context.Context, m *model.Milestone) (service.Status, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	factsHandler     *FactsHandler
	playersHandler   *PlayersHandler
	clansHandler     *ClansHandler
	streaksHandler   *StreaksHandler
	recomputeHandler *RecomputeHandler
}

// NewServer creates a new API server with all handlers. maxLimit caps the
// ?limit parameter of list endpoints; values below one select the default.
func NewServer(deps Dependencies, maxLimit int) *Server {
	if maxLimit < 1 {
		maxLimit = defaultMaxLimit
	}
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(deps),
		factsHandler:     NewFactsHandler(deps),
		playersHandler:   NewPlayersHandler(deps, maxLimit),
		clansHandler:     NewClansHandler(deps, maxLimit),
		streaksHandler:   NewStreaksHandler(deps, maxLimit),
		recomputeHandler: NewRecomputeHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /runs", MetricsMiddleware(s.factsHandler.HandlePostRun, "runs"))
	mux.HandleFunc("POST /milestones", MetricsMiddleware(s.factsHandler.HandlePostMilestone, "milestones"))
	mux.HandleFunc("POST /recompute", MetricsMiddleware(s.recomputeHandler.HandleRecompute, "recompute"))

	mux.HandleFunc("GET /players", MetricsMiddleware(s.playersHandler.HandleTop, "players"))
	mux.HandleFunc("GET /players/{name}", MetricsMiddleware(s.playersHandler.HandlePlayer, "player"))
	mux.HandleFunc("GET /players/{name}/audit", MetricsMiddleware(s.playersHandler.HandleAudit, "player_audit"))
	mux.HandleFunc("GET /clans", MetricsMiddleware(s.clansHandler.HandleClans, "clans"))
	mux.HandleFunc("GET /clans/{captain}", MetricsMiddleware(s.clansHandler.HandleClan, "clan"))
	mux.HandleFunc("GET /streaks", MetricsMiddleware(s.streaksHandler.HandleStreaks, "streaks"))
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	id := RequestIDFrom(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Named("http").Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("request_id", id),
			logger.Error(err))
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg, RequestID: id})
}

// classify maps an error to its HTTP status and response code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrLimit):
		return http.StatusBadRequest, "limit_exceeded"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, scoring.ErrMalformedFact),
		errors.Is(err, repository.ErrInvalidLimit):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrBackpressure), errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	}
	return http.StatusInternalServerError, "internal_error"
}

// limitParam reads ?limit, defaulting to defaultLimit and capped at maxLimit.
func limitParam(op string, r *http.Request, maxLimit int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return min(defaultLimit, maxLimit), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, WrapKind(op, ErrBadRequest, err)
	}
	if n > maxLimit {
		return 0, NewKind(op, ErrLimit)
	}
	return n, nil
}

// boolParam reads a boolean query parameter, def when absent.
func boolParam(op string, r *http.Request, name string, def bool) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, WrapKind(op, ErrBadRequest, err)
	}
	return v, nil
}
