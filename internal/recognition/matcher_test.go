package recognition

import (
	"errors"
	"math"
	"testing"

	"github.com/SkyDragon00/ProyectoFinalProcesos/internal/gallery"
	"github.com/google/uuid"
)

// vecScoring builds a unit vector whose cosine similarity against the
// query (1, 0, 0) is exactly s.
func vecScoring(s float64) []float32 {
	return []float32{float32(s), float32(math.Sqrt(1 - s*s)), 0}
}

var queryX = []float32{1, 0, 0}

func TestMatchExactSelf(t *testing.T) {
	store := gallery.NewStore(3)
	a := uuid.New()
	if err := store.Enroll(a, "alice", queryX); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	m := NewMatcher(store, 0.6, 0.05)
	res, err := m.Match(queryX)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if res.Outcome != OutcomeMatched {
		t.Fatalf("outcome = %s, want %s", res.Outcome, OutcomeMatched)
	}
	if res.Best == nil || res.Best.ID != a {
		t.Fatalf("best = %+v, want identity %s", res.Best, a)
	}
	if math.Abs(res.Best.Score-1.0) > 1e-3 {
		t.Errorf("best score = %f, want ~1.0", res.Best.Score)
	}
}

func TestMatchAmbiguousWithinMargin(t *testing.T) {
	store := gallery.NewStore(3)
	a := uuid.New()
	b := uuid.New()
	if err := store.Enroll(a, "alice", vecScoring(0.62)); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if err := store.Enroll(b, "bob", vecScoring(0.60)); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	m := NewMatcher(store, 0.6, 0.05)
	res, err := m.Match(queryX)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if res.Outcome != OutcomeAmbiguous {
		t.Fatalf("outcome = %s, want %s", res.Outcome, OutcomeAmbiguous)
	}
	if res.Best != nil {
		t.Errorf("ambiguous result must not carry a single best candidate")
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("candidates = %d, want 2", len(res.Candidates))
	}
	if res.Candidates[0].ID != a || res.Candidates[1].ID != b {
		t.Errorf("candidates not ordered by score: %+v", res.Candidates)
	}
}

func TestMatchUnknownBelowThreshold(t *testing.T) {
	store := gallery.NewStore(3)
	for _, name := range []string{"alice", "bob", "carol"} {
		if err := store.Enroll(uuid.New(), name, vecScoring(0.4)); err != nil {
			t.Fatalf("enroll: %v", err)
		}
	}

	m := NewMatcher(store, 0.6, 0.05)
	res, err := m.Match(queryX)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if res.Outcome != OutcomeUnknown {
		t.Fatalf("outcome = %s, want %s", res.Outcome, OutcomeUnknown)
	}
	if res.Best != nil || len(res.Candidates) != 0 {
		t.Errorf("unknown result must carry no candidates: %+v", res)
	}
}

func TestMatchEmptyGallery(t *testing.T) {
	m := NewMatcher(gallery.NewStore(3), 0.6, 0.05)
	res, err := m.Match(queryX)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if res.Outcome != OutcomeUnknown {
		t.Errorf("outcome = %s, want %s", res.Outcome, OutcomeUnknown)
	}
}

func TestMatchClearMarginWins(t *testing.T) {
	store := gallery.NewStore(3)
	a := uuid.New()
	b := uuid.New()
	if err := store.Enroll(a, "alice", vecScoring(0.9)); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if err := store.Enroll(b, "bob", vecScoring(0.7)); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	m := NewMatcher(store, 0.6, 0.05)
	res, err := m.Match(queryX)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if res.Outcome != OutcomeMatched || res.Best == nil || res.Best.ID != a {
		t.Fatalf("result = %+v, want matched %s", res, a)
	}
}

// Raising the threshold can only demote outcomes, never promote them.
func TestMatchThresholdMonotonic(t *testing.T) {
	store := gallery.NewStore(3)
	a := uuid.New()
	if err := store.Enroll(a, "alice", vecScoring(0.7)); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	loose, err := NewMatcher(store, 0.6, 0.05).Match(queryX)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	strict, err := NewMatcher(store, 0.8, 0.05).Match(queryX)
	if err != nil {
		t.Fatalf("match: %v", err)
	}

	if loose.Outcome != OutcomeMatched {
		t.Fatalf("loose outcome = %s, want %s", loose.Outcome, OutcomeMatched)
	}
	if strict.Outcome != OutcomeUnknown {
		t.Fatalf("strict outcome = %s, want %s", strict.Outcome, OutcomeUnknown)
	}
}

// Enrolling the same embedding twice must not flip a match to ambiguous;
// per-identity scoring takes the maximum over references.
func TestMatchDuplicateEnrollmentIdempotent(t *testing.T) {
	store := gallery.NewStore(3)
	a := uuid.New()
	ref := vecScoring(0.8)
	if err := store.Enroll(a, "alice", ref); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if err := store.Enroll(a, "alice", ref); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	res, err := NewMatcher(store, 0.6, 0.05).Match(queryX)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if res.Outcome != OutcomeMatched || res.Best == nil || res.Best.ID != a {
		t.Fatalf("result = %+v, want matched %s", res, a)
	}
}

func TestMatchDimensionMismatch(t *testing.T) {
	m := NewMatcher(gallery.NewStore(3), 0.6, 0.05)
	_, err := m.Match([]float32{1, 0})
	if !errors.Is(err, gallery.ErrInvalidEmbedding) {
		t.Fatalf("err = %v, want ErrInvalidEmbedding", err)
	}
}
