// Package api declares HTTP contracts and route registration helpers.
package api

import "net/http"

// StatsProvider reports the ranking service counters.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves the service counters as a flat JSON object.
type StatsHandler struct {
	statsProvider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider}
}

// HandleStats handles GET /stats requests: ranking, refresh and detection
// counts plus the size of the last pool read.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.statsProvider.GetStats())
}
