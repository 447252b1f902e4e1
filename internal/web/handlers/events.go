package handlers

import (
	"net/http"
	"time"

	"github.com/SkyDragon00/ProyectoFinalProcesos/internal/recognition"
)

// defaultEventWindow is how far back the events listing reaches when the
// caller does not say.
const defaultEventWindow = 24 * time.Hour

// EventsHandler exposes the persisted event log.
type EventsHandler struct {
	svc *recognition.Service
}

// NewEventsHandler creates an events handler.
func NewEventsHandler(svc *recognition.Service) *EventsHandler {
	return &EventsHandler{svc: svc}
}

// List handles GET /api/v1/events?since=<RFC3339 or Go duration>.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	since := time.Now().Add(-defaultEventWindow)
	if s := r.URL.Query().Get("since"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			since = t
		} else if d, err := time.ParseDuration(s); err == nil && d > 0 {
			since = time.Now().Add(-d)
		} else {
			respondError(w, http.StatusBadRequest, "since must be an RFC3339 timestamp or a duration")
			return
		}
	}

	events, err := h.svc.RecentEvents(r.Context(), since)
	if err != nil {
		respondCoreError(w, err)
		return
	}
	if events == nil {
		events = []recognition.Event{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"events": events})
}
