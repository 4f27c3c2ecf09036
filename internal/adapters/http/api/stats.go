package api

import (
	"net/http"
)

// StatsProvider reports the service snapshot behind /stats: dataset load
// state, both current estimates and the animation loop (generation, running
// flag, frames stepped).
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves the monitoring snapshot.
type StatsHandler struct {
	stats StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(stats StatsProvider) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// HandleStats handles GET /stats. The snapshot is read fresh on every call
// so estimates always reflect the stored doses.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, h.stats.GetStats())
}
