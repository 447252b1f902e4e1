// Package metrics exposes Prometheus instrumentation for the recognition
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DetectionsTotal counts match attempts by outcome (matched, ambiguous, unknown).
	DetectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "facegate",
		Name:      "detections_total",
		Help:      "Match attempts by outcome.",
	}, []string{"outcome"})

	// EventsAdmittedTotal counts detections admitted as persisted events.
	EventsAdmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "facegate",
		Name:      "events_admitted_total",
		Help:      "Detections admitted as events.",
	})

	// EventsSuppressedTotal counts detections dropped by the cooldown window.
	EventsSuppressedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "facegate",
		Name:      "events_suppressed_total",
		Help:      "Detections dropped while their cooldown key was cooling.",
	})

	// GalleryIdentities tracks the number of enrolled identities.
	GalleryIdentities = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "facegate",
		Name:      "gallery_identities",
		Help:      "Enrolled identities in the gallery.",
	})

	// EmbeddingFailuresTotal counts embedding-provider failures, including
	// images with no detectable face.
	EmbeddingFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "facegate",
		Name:      "embedding_failures_total",
		Help:      "Embedding provider failures.",
	})
)
