// Package gallery holds the enrollment gallery: every known identity together
// with its reference face embeddings. The store is the single owner of
// identity records; matching reads immutable snapshots and never blocks
// enrollment on unrelated identities.
package gallery

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidEmbedding indicates an embedding whose dimension does not
	// match the gallery's fixed dimension.
	ErrInvalidEmbedding = errors.New("invalid embedding")

	// ErrNotFound indicates an identity that is not enrolled.
	// Remove signals it rather than silently succeeding.
	ErrNotFound = errors.New("identity not found")
)

// Identity is an enrolled person with one or more reference embeddings.
// Embeddings are append-only; re-enrollment adds a new reference rather
// than mutating an existing one.
type Identity struct {
	ID         uuid.UUID
	Name       string
	Embeddings [][]float32
	CreatedAt  time.Time
}

// Snapshot is an immutable point-in-time view of the gallery.
// Identities and their embedding slices must not be modified by readers.
type Snapshot struct {
	Dim        int
	Identities []Identity
}

// EmbeddingCount returns the total number of reference embeddings in the snapshot.
func (s *Snapshot) EmbeddingCount() int {
	n := 0
	for i := range s.Identities {
		n += len(s.Identities[i].Embeddings)
	}
	return n
}

// Store is an in-memory gallery with copy-on-write snapshots. Writers
// serialize on a mutex and publish a fresh snapshot atomically, so a
// concurrent reader either sees an identity's full embedding set or does
// not see the identity at all.
type Store struct {
	dim  int
	mu   sync.Mutex // serializes writers
	snap atomic.Pointer[Snapshot]

	index   *Index // optional ANN accelerator, nil unless enabled
	indexMu sync.Mutex
}

// NewStore creates an empty gallery with a fixed embedding dimension.
func NewStore(dim int) *Store {
	s := &Store{dim: dim}
	s.snap.Store(&Snapshot{Dim: dim})
	return s
}

// Dim returns the gallery's fixed embedding dimension.
func (s *Store) Dim() int {
	return s.dim
}

// Snapshot returns the current immutable view of the gallery.
func (s *Store) Snapshot() *Snapshot {
	return s.snap.Load()
}

// Enroll appends a reference embedding to an identity, creating the
// identity if it is not enrolled yet. Returns ErrInvalidEmbedding when the
// embedding dimension does not match the gallery dimension.
func (s *Store) Enroll(id uuid.UUID, name string, embedding []float32) error {
	if len(embedding) != s.dim {
		return fmt.Errorf("%w: got dimension %d, gallery uses %d", ErrInvalidEmbedding, len(embedding), s.dim)
	}

	// Defensive copy so the caller cannot mutate a published snapshot.
	ref := make([]float32, len(embedding))
	copy(ref, embedding)

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.snap.Load()
	next := make([]Identity, 0, len(cur.Identities)+1)
	found := false
	for i := range cur.Identities {
		ident := cur.Identities[i]
		if ident.ID == id {
			found = true
			embeddings := make([][]float32, len(ident.Embeddings), len(ident.Embeddings)+1)
			copy(embeddings, ident.Embeddings)
			ident.Embeddings = append(embeddings, ref)
		}
		next = append(next, ident)
	}
	if !found {
		next = append(next, Identity{
			ID:         id,
			Name:       name,
			Embeddings: [][]float32{ref},
			CreatedAt:  time.Now(),
		})
	}

	s.snap.Store(&Snapshot{Dim: s.dim, Identities: next})
	s.indexAdd(id, ref)
	return nil
}

// Remove deletes an identity and all its reference embeddings.
// Returns ErrNotFound if the identity is not enrolled.
func (s *Store) Remove(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.snap.Load()
	next := make([]Identity, 0, len(cur.Identities))
	found := false
	for i := range cur.Identities {
		if cur.Identities[i].ID == id {
			found = true
			continue
		}
		next = append(next, cur.Identities[i])
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	s.snap.Store(&Snapshot{Dim: s.dim, Identities: next})
	s.indexRemove(id)
	return nil
}

// Get returns the identity with the given ID, or ErrNotFound.
func (s *Store) Get(id uuid.UUID) (Identity, error) {
	cur := s.snap.Load()
	for i := range cur.Identities {
		if cur.Identities[i].ID == id {
			return cur.Identities[i], nil
		}
	}
	return Identity{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// FindByName returns the first identity whose name matches after
// normalization (case and diacritic insensitive), or ErrNotFound.
func (s *Store) FindByName(name string) (Identity, error) {
	want := NormalizePersonName(name)
	cur := s.snap.Load()
	for i := range cur.Identities {
		if NormalizePersonName(cur.Identities[i].Name) == want {
			return cur.Identities[i], nil
		}
	}
	return Identity{}, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Count returns the number of enrolled identities.
func (s *Store) Count() int {
	return len(s.snap.Load().Identities)
}
