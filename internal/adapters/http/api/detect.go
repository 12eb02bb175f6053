package api

import (
	"context"
	"net/http"

	"github.com/okian/comprank/internal/domain/model"
)

// DetectDependencies defines the interface for unit detection.
type DetectDependencies interface {
	DetectUnits(ctx context.Context, imagePath string) ([]model.UnitDetection, error)
}

// DetectHandler handles unit detection requests.
type DetectHandler struct {
	deps DetectDependencies
}

// NewDetectHandler creates a new detect handler.
func NewDetectHandler(deps DetectDependencies) *DetectHandler {
	return &DetectHandler{deps: deps}
}

// HandleDetectUnits handles POST /detect-units requests.
func (h *DetectHandler) HandleDetectUnits(w http.ResponseWriter, r *http.Request) {
	const op = "api.detect_units"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	req, err := decodeDetectRequest(w, r, op)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	dets, err := h.deps.DetectUnits(r.Context(), req.Path)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if dets == nil {
		dets = []model.UnitDetection{}
	}
	writeJSON(w, http.StatusOK, dets)
}
