package handlers

import (
	"net/http"

	"github.com/SkyDragon00/ProyectoFinalProcesos/internal/recognition"
)

// StatsHandler reports gallery and correlator state for dashboards.
type StatsHandler struct {
	svc *recognition.Service
}

// NewStatsHandler creates a stats handler.
func NewStatsHandler(svc *recognition.Service) *StatsHandler {
	return &StatsHandler{svc: svc}
}

// Get handles GET /api/v1/stats.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap := h.svc.Gallery().Snapshot()
	respondJSON(w, http.StatusOK, map[string]any{
		"identities":    len(snap.Identities),
		"embeddings":    snap.EmbeddingCount(),
		"dim":           snap.Dim,
		"index_enabled": h.svc.Gallery().IndexEnabled(),
		"threshold":     h.svc.Matcher().Threshold(),
		"margin":        h.svc.Matcher().Margin(),
		"cooldown":      h.svc.Correlator().Cooldown().String(),
		"cooldown_keys": h.svc.Correlator().TrackedKeys(),
	})
}
