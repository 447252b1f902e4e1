package web

import (
	"github.com/SkyDragon00/ProyectoFinalProcesos/internal/web/handlers"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) setupRoutes() {
	detectionsHandler := handlers.NewDetectionsHandler(s.svc)
	identitiesHandler := handlers.NewIdentitiesHandler(s.svc)
	eventsHandler := handlers.NewEventsHandler(s.svc)
	statsHandler := handlers.NewStatsHandler(s.svc)

	// Health check and metrics (no API prefix)
	s.router.Get("/api/v1/health", handlers.HealthCheck)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		// Detections
		r.Post("/detections", detectionsHandler.Submit)

		// Gallery enrollment
		r.Post("/identities", identitiesHandler.Enroll)
		r.Get("/identities", identitiesHandler.List)
		r.Delete("/identities/{id}", identitiesHandler.Remove)

		// Event log
		r.Get("/events", eventsHandler.List)

		// Stats
		r.Get("/stats", statsHandler.Get)
	})
}
