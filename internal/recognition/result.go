// Package recognition implements the face matching core: scoring a query
// embedding against the enrollment gallery, classifying the outcome, and
// correlating admitted detections into persisted events.
package recognition

import (
	"time"

	"github.com/google/uuid"
)

// Outcome classifies a match attempt. Every caller must handle all three
// values; there is no implicit fallback.
type Outcome string

const (
	// OutcomeMatched means exactly one identity cleared the threshold
	// unambiguously.
	OutcomeMatched Outcome = "matched"
	// OutcomeAmbiguous means the best identity cleared the threshold but a
	// second identity scored within the ambiguity margin. The matcher never
	// silently picks one.
	OutcomeAmbiguous Outcome = "ambiguous"
	// OutcomeUnknown means no enrolled identity cleared the threshold.
	OutcomeUnknown Outcome = "unknown"
)

// Candidate is an enrolled identity with its aggregated match score
// (best cosine similarity across the identity's reference embeddings).
type Candidate struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Score float64   `json:"score"`
}

// MatchResult is the classified result of matching one query embedding.
type MatchResult struct {
	Outcome Outcome `json:"outcome"`
	// Best is set for OutcomeMatched.
	Best *Candidate `json:"best,omitempty"`
	// Candidates holds the contenders for OutcomeAmbiguous, sorted by
	// descending score; all cleared the threshold and lie within the
	// ambiguity margin of the top score.
	Candidates []Candidate `json:"candidates,omitempty"`
	// Threshold and Margin record the configuration the decision was made with.
	Threshold float64 `json:"threshold"`
	Margin    float64 `json:"margin"`
}

// Event is an admitted detection, immutable once written to the event store.
type Event struct {
	ID           uuid.UUID  `json:"id"`
	IdentityID   *uuid.UUID `json:"identity_id,omitempty"` // nil for unknown-person events
	IdentityName string     `json:"identity_name,omitempty"`
	Score        float64    `json:"score"`
	ImageRef     string     `json:"image_ref"`
	Timestamp    time.Time  `json:"timestamp"`
}
