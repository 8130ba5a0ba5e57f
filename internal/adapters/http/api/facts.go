package api

import (
	"encoding/json"
	"net/http"

	service "github.com/okian/tourney/internal/app"
	"github.com/okian/tourney/internal/domain/model"
)

// maxFactBytes bounds a fact request body.
const maxFactBytes = 64 << 10

// FactsHandler accepts runs and milestones for asynchronous scoring.
type FactsHandler struct {
	deps FactDependencies
}

// NewFactsHandler creates a new facts handler.
func NewFactsHandler(deps FactDependencies) *FactsHandler {
	return &FactsHandler{deps: deps}
}

// HandlePostRun handles POST /runs requests.
func (h *FactsHandler) HandlePostRun(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_run"
	var run model.Run
	if err := decode(w, r, &run); err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	status, err := h.deps.OnRunCompleted(r.Context(), &run)
	h.ack(w, r, op, status, err)
}

// HandlePostMilestone handles POST /milestones requests.
func (h *FactsHandler) HandlePostMilestone(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_milestone"
	var m model.Milestone
	if err := decode(w, r, &m); err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	status, err := h.deps.OnMilestone(r.Context(), &m)
	h.ack(w, r, op, status, err)
}

func (h *FactsHandler) ack(w http.ResponseWriter, r *http.Request, op string, status service.Status, err error) {
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	if status == service.StatusDuplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: string(status), Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: string(status)})
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFactBytes))
	return dec.Decode(v)
}
