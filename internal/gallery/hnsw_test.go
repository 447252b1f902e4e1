package gallery

import (
	"testing"

	"github.com/google/uuid"
)

func TestCandidatesDisabledIndex(t *testing.T) {
	store := NewStore(3)
	if store.IndexEnabled() {
		t.Fatal("index should be disabled by default")
	}
	if got := store.Candidates([]float32{1, 0, 0}, 4); got != nil {
		t.Errorf("Candidates() with disabled index = %v, want nil", got)
	}
}

func TestIndexReturnsNearestIdentity(t *testing.T) {
	store := NewStore(3)
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()

	must(t, store.Enroll(a, "a", []float32{1, 0, 0}))
	must(t, store.Enroll(b, "b", []float32{0, 1, 0}))
	must(t, store.Enroll(c, "c", []float32{0, 0, 1}))

	store.EnableIndex()
	if !store.IndexEnabled() {
		t.Fatal("index should be enabled")
	}

	got := store.Candidates([]float32{0.9, 0.1, 0}, 1)
	if len(got) != 1 || got[0] != a {
		t.Errorf("Candidates() = %v, want [%s]", got, a)
	}
}

func TestIndexDistinctOwners(t *testing.T) {
	store := NewStore(3)
	a := uuid.New()

	// Multiple reference embeddings of one identity collapse to a single
	// candidate entry.
	must(t, store.Enroll(a, "a", []float32{1, 0, 0}))
	must(t, store.Enroll(a, "a", []float32{0.9, 0.1, 0}))
	store.EnableIndex()

	got := store.Candidates([]float32{1, 0, 0}, 4)
	if len(got) != 1 || got[0] != a {
		t.Errorf("Candidates() = %v, want [%s]", got, a)
	}
}

func TestIndexTracksEnrollAfterEnable(t *testing.T) {
	store := NewStore(3)
	store.EnableIndex()

	a := uuid.New()
	must(t, store.Enroll(a, "a", []float32{1, 0, 0}))

	got := store.Candidates([]float32{1, 0, 0}, 2)
	if len(got) != 1 || got[0] != a {
		t.Errorf("Candidates() = %v, want [%s]", got, a)
	}
}

func TestIndexExcludesRemovedIdentity(t *testing.T) {
	store := NewStore(3)
	a := uuid.New()
	b := uuid.New()
	must(t, store.Enroll(a, "a", []float32{1, 0, 0}))
	must(t, store.Enroll(b, "b", []float32{0.8, 0.6, 0}))
	store.EnableIndex()

	must(t, store.Remove(a))

	got := store.Candidates([]float32{1, 0, 0}, 4)
	for _, id := range got {
		if id == a {
			t.Fatalf("Candidates() returned removed identity %s", a)
		}
	}
	if len(got) != 1 || got[0] != b {
		t.Errorf("Candidates() = %v, want [%s]", got, b)
	}
}

func TestIndexReenrollAfterRemove(t *testing.T) {
	store := NewStore(3)
	a := uuid.New()
	must(t, store.Enroll(a, "a", []float32{1, 0, 0}))
	store.EnableIndex()

	must(t, store.Remove(a))
	must(t, store.Enroll(a, "a", []float32{1, 0, 0}))

	got := store.Candidates([]float32{1, 0, 0}, 2)
	if len(got) != 1 || got[0] != a {
		t.Errorf("Candidates() after re-enroll = %v, want [%s]", got, a)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
