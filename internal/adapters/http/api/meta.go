package api

import (
	"context"
	"net/http"
)

// MetaDependencies defines the interface for meta refresh.
type MetaDependencies interface {
	UpdateMeta(ctx context.Context) error
}

// MetaHandler handles meta refresh requests.
type MetaHandler struct {
	deps MetaDependencies
}

// NewMetaHandler creates a new meta handler.
func NewMetaHandler(deps MetaDependencies) *MetaHandler {
	return &MetaHandler{deps: deps}
}

// HandleUpdateMeta handles POST /update-meta requests. It blocks until the
// refresh pipeline finishes.
func (h *MetaHandler) HandleUpdateMeta(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := h.deps.UpdateMeta(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}
