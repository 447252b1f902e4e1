package recognition

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/SkyDragon00/ProyectoFinalProcesos/internal/gallery"
	"github.com/SkyDragon00/ProyectoFinalProcesos/internal/metrics"
	"github.com/google/uuid"
)

// Embedder produces a face embedding for an image, or fails when no face is
// detected. Implemented by the embedding model client.
type Embedder interface {
	Embed(ctx context.Context, image []byte) ([]float32, error)
}

// EventStore is the durable log of admitted events.
type EventStore interface {
	Append(ctx context.Context, event Event) error
	// RecentSince returns events admitted at or after the given time,
	// newest first. Used for the events listing and for cooldown recovery
	// across restarts.
	RecentSince(ctx context.Context, since time.Time) ([]Event, error)
}

// IdentityStore persists enrolled identities and their reference embeddings
// so the gallery survives restarts. Optional; nil disables persistence.
type IdentityStore interface {
	SaveEmbedding(ctx context.Context, id uuid.UUID, name string, embedding []float32) error
	DeleteIdentity(ctx context.Context, id uuid.UUID) error
}

// DetectionRequest is one match attempt. Either Embedding is supplied
// directly, or Image holds the raw bytes to run through the embedder.
type DetectionRequest struct {
	ImageRef  string
	Image     []byte
	Embedding []float32
}

// DetectionResult is the caller-facing outcome of a detection: the match
// classification plus whether the detection was admitted as an event.
type DetectionResult struct {
	Match    MatchResult `json:"match"`
	Admitted bool        `json:"admitted"`
	EventID  *uuid.UUID  `json:"event_id,omitempty"`
}

// Service wires the embedder, gallery, matcher, correlator and event store
// into the caller-facing API consumed by the HTTP layer and the CLI.
type Service struct {
	gallery    *gallery.Store
	matcher    *Matcher
	correlator *Correlator
	events     EventStore
	identities IdentityStore // may be nil
	embedder   Embedder      // may be nil when callers always supply embeddings
}

// NewService assembles the recognition core. identities may be nil (no
// durable gallery) and embedder may be nil (embeddings supplied by callers).
func NewService(g *gallery.Store, m *Matcher, c *Correlator, events EventStore, identities IdentityStore, embedder Embedder) *Service {
	return &Service{
		gallery:    g,
		matcher:    m,
		correlator: c,
		events:     events,
		identities: identities,
		embedder:   embedder,
	}
}

// Gallery returns the underlying gallery store.
func (s *Service) Gallery() *gallery.Store { return s.gallery }

// Matcher returns the underlying matcher.
func (s *Service) Matcher() *Matcher { return s.matcher }

// Correlator returns the underlying correlator.
func (s *Service) Correlator() *Correlator { return s.correlator }

// RecoverCooldowns seeds the correlator from events persisted within one
// cooldown window, so a restart does not re-admit recent duplicates.
func (s *Service) RecoverCooldowns(ctx context.Context) error {
	events, err := s.events.RecentSince(ctx, time.Now().Add(-s.correlator.Cooldown()))
	if err != nil {
		return fmt.Errorf("loading recent events: %w", err)
	}
	s.correlator.Seed(events)
	return nil
}

// resolveEmbedding returns the request's embedding, computing it from the
// image when necessary. Embedder failures abandon the detection with no
// state mutation.
func (s *Service) resolveEmbedding(ctx context.Context, req *DetectionRequest) ([]float32, error) {
	if req.Embedding != nil {
		return req.Embedding, nil
	}
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: no embedding supplied and no embedder configured", gallery.ErrInvalidEmbedding)
	}
	emb, err := s.embedder.Embed(ctx, req.Image)
	if err != nil {
		metrics.EmbeddingFailuresTotal.Inc()
		return nil, err
	}
	return emb, nil
}

// Embed computes a face embedding for an image via the configured embedder,
// without matching or recording anything. Used for threshold tuning.
func (s *Service) Embed(ctx context.Context, image []byte) ([]float32, error) {
	return s.resolveEmbedding(ctx, &DetectionRequest{Image: image})
}

// SubmitDetection runs one match attempt: embed (if needed), match against
// the gallery, and correlate. Matched and unknown outcomes are admitted as
// events unless their cooldown key is cooling; ambiguous outcomes are
// reported to the caller but never persisted.
func (s *Service) SubmitDetection(ctx context.Context, req DetectionRequest) (DetectionResult, error) {
	embedding, err := s.resolveEmbedding(ctx, &req)
	if err != nil {
		return DetectionResult{}, err
	}

	match, err := s.matcher.Match(embedding)
	if err != nil {
		return DetectionResult{}, err
	}
	metrics.DetectionsTotal.WithLabelValues(string(match.Outcome)).Inc()

	result := DetectionResult{Match: match}
	if match.Outcome == OutcomeAmbiguous {
		return result, nil
	}

	var identityID *uuid.UUID
	var identityName string
	score := 0.0
	if match.Outcome == OutcomeMatched {
		identityID = &match.Best.ID
		identityName = match.Best.Name
		score = match.Best.Score
	}

	key := CooldownKey(identityID)
	if !s.correlator.Admit(key) {
		metrics.EventsSuppressedTotal.Inc()
		return result, nil
	}

	event := Event{
		ID:           uuid.New(),
		IdentityID:   identityID,
		IdentityName: identityName,
		Score:        score,
		ImageRef:     req.ImageRef,
		Timestamp:    time.Now(),
	}
	if err := s.events.Append(ctx, event); err != nil {
		// The detection must leave no trace if it could not be persisted.
		s.correlator.Release(key)
		return DetectionResult{}, fmt.Errorf("persisting event: %w", err)
	}

	metrics.EventsAdmittedTotal.Inc()
	result.Admitted = true
	result.EventID = &event.ID
	return result, nil
}

// EnrollRequest enrolls one reference image or embedding for a person.
type EnrollRequest struct {
	Name      string
	Image     []byte
	Embedding []float32
}

// EnrollIdentity adds a reference embedding for the named person, creating
// the identity on first enrollment. Re-enrolling an existing name appends a
// new reference embedding. Returns the identity ID.
func (s *Service) EnrollIdentity(ctx context.Context, req EnrollRequest) (uuid.UUID, error) {
	embedding, err := s.resolveEmbedding(ctx, &DetectionRequest{Image: req.Image, Embedding: req.Embedding})
	if err != nil {
		return uuid.Nil, err
	}

	id := uuid.New()
	name := req.Name
	if existing, err := s.gallery.FindByName(req.Name); err == nil {
		id = existing.ID
		name = existing.Name
	}

	if err := s.gallery.Enroll(id, name, embedding); err != nil {
		return uuid.Nil, err
	}
	metrics.GalleryIdentities.Set(float64(s.gallery.Count()))

	if s.identities != nil {
		if err := s.identities.SaveEmbedding(ctx, id, name, embedding); err != nil {
			// The in-memory gallery stays authoritative for matching; log
			// and keep serving rather than failing the enrollment.
			log.Printf("warning: persisting enrollment for %q: %v", name, err)
		}
	}
	return id, nil
}

// RemoveIdentity deletes an identity and all its reference embeddings.
// Returns gallery.ErrNotFound if the identity is not enrolled.
func (s *Service) RemoveIdentity(ctx context.Context, id uuid.UUID) error {
	if err := s.gallery.Remove(id); err != nil {
		return err
	}
	metrics.GalleryIdentities.Set(float64(s.gallery.Count()))

	if s.identities != nil {
		if err := s.identities.DeleteIdentity(ctx, id); err != nil {
			log.Printf("warning: deleting persisted identity %s: %v", id, err)
		}
	}
	return nil
}

// Identities lists the enrolled identities from the current snapshot.
func (s *Service) Identities() []gallery.Identity {
	return s.gallery.Snapshot().Identities
}

// RecentEvents returns events admitted at or after the given time, newest first.
func (s *Service) RecentEvents(ctx context.Context, since time.Time) ([]Event, error) {
	return s.events.RecentSince(ctx, since)
}
