// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/comprank/internal/domain/model"
)

// RankDependencies defines what the ranking handlers need.
type RankDependencies interface {
	BestComps(ctx context.Context, lobbyJSON []byte) ([]model.ScoredComp, error)
	DetectAndRank(ctx context.Context, imagePath string) ([]model.ScoredComp, error)
}

// CompsHandler handles composition ranking requests.
type CompsHandler struct {
	deps RankDependencies
}

// NewCompsHandler creates a new comps handler.
func NewCompsHandler(deps RankDependencies) *CompsHandler {
	return &CompsHandler{deps: deps}
}

// HandleBestComps handles POST /best-comps requests. The body is a lobby.
func (h *CompsHandler) HandleBestComps(w http.ResponseWriter, r *http.Request) {
	const op = "api.best_comps"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	body, err := readBody(w, r, op)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	best, err := h.deps.BestComps(r.Context(), body)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, best)
}

// HandleDetectAndRank handles POST /detect-and-rank requests.
func (h *CompsHandler) HandleDetectAndRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.detect_and_rank"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	req, err := decodeDetectRequest(w, r, op)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	best, err := h.deps.DetectAndRank(r.Context(), req.Path)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, best)
}
