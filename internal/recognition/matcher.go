package recognition

import (
	"fmt"
	"sort"

	"github.com/SkyDragon00/ProyectoFinalProcesos/internal/gallery"
	"github.com/google/uuid"
)

// defaultCandidateK is how many nearest reference embeddings the ANN index
// is asked for when preselection is enabled. Distinct identities among them
// become the candidate set.
const defaultCandidateK = 16

// Matcher scores query embeddings against the gallery and classifies the
// result. Metric: cosine similarity in [-1, 1]; an identity with multiple
// reference embeddings scores as the best (maximum) similarity across them,
// which tolerates pose and lighting variance between enrollment photos and
// makes duplicate enrollments a no-op for the decision.
type Matcher struct {
	store      *gallery.Store
	threshold  float64 // minimum similarity to be considered a match at all
	margin     float64 // minimum best-to-second gap to accept the best unambiguously
	candidateK int
}

// NewMatcher creates a matcher with the given decision parameters.
// Threshold and margin are deployment configuration, never hardcoded.
func NewMatcher(store *gallery.Store, threshold, margin float64) *Matcher {
	return &Matcher{
		store:      store,
		threshold:  threshold,
		margin:     margin,
		candidateK: defaultCandidateK,
	}
}

// Threshold returns the configured similarity threshold.
func (m *Matcher) Threshold() float64 { return m.threshold }

// Margin returns the configured ambiguity margin.
func (m *Matcher) Margin() float64 { return m.margin }

// Match classifies a query embedding against the current gallery snapshot.
// Returns gallery.ErrInvalidEmbedding when the query dimension does not
// match the gallery dimension.
func (m *Matcher) Match(query []float32) (MatchResult, error) {
	snap := m.store.Snapshot()
	if len(query) != snap.Dim {
		return MatchResult{}, fmt.Errorf("%w: query dimension %d, gallery uses %d",
			gallery.ErrInvalidEmbedding, len(query), snap.Dim)
	}

	scored := m.scoreIdentities(snap, query)
	return m.classify(scored), nil
}

// scoreIdentities computes the per-identity best similarity, restricted to
// ANN candidates when the gallery index is enabled. Scores are always exact
// cosine similarities; the index only shrinks the candidate set.
func (m *Matcher) scoreIdentities(snap *gallery.Snapshot, query []float32) []Candidate {
	var allowed map[uuid.UUID]bool
	if ids := m.store.Candidates(query, m.candidateK); ids != nil {
		allowed = make(map[uuid.UUID]bool, len(ids))
		for _, id := range ids {
			allowed[id] = true
		}
	}

	scored := make([]Candidate, 0, len(snap.Identities))
	for i := range snap.Identities {
		ident := &snap.Identities[i]
		if allowed != nil && !allowed[ident.ID] {
			continue
		}
		best := -1.0
		for _, ref := range ident.Embeddings {
			if s := gallery.CosineSimilarity(query, ref); s > best {
				best = s
			}
		}
		scored = append(scored, Candidate{ID: ident.ID, Name: ident.Name, Score: best})
	}
	return scored
}

// classify applies the threshold/margin decision policy to scored identities.
func (m *Matcher) classify(scored []Candidate) MatchResult {
	result := MatchResult{
		Outcome:   OutcomeUnknown,
		Threshold: m.threshold,
		Margin:    m.margin,
	}

	// Keep only identities that clear the threshold.
	cleared := scored[:0]
	for _, c := range scored {
		if c.Score >= m.threshold {
			cleared = append(cleared, c)
		}
	}
	if len(cleared) == 0 {
		return result
	}

	sort.Slice(cleared, func(i, j int) bool { return cleared[i].Score > cleared[j].Score })

	best := cleared[0]
	if len(cleared) == 1 || best.Score-cleared[1].Score > m.margin {
		result.Outcome = OutcomeMatched
		result.Best = &best
		return result
	}

	// Best and second are within the margin: surface every contender close
	// to the top so the caller can apply stricter handling.
	result.Outcome = OutcomeAmbiguous
	for _, c := range cleared {
		if best.Score-c.Score <= m.margin {
			result.Candidates = append(result.Candidates, c)
		}
	}
	return result
}
