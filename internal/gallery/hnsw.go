package gallery

import (
	"sync"

	"github.com/coder/hnsw"
	"github.com/google/uuid"
)

// hnswMaxNeighbors is the M parameter of the HNSW graph.
const hnswMaxNeighbors = 16

// Index is an optional HNSW accelerator over the gallery's reference
// embeddings. It only preselects candidate identities; match decisions are
// always made on exact cosine scores, so enabling the index never moves a
// score across the threshold or margin. The trade-off is ANN recall: a
// borderline identity the graph fails to return is classified as if it were
// not enrolled.
type Index struct {
	mu       sync.RWMutex
	graph    *hnsw.Graph[int64]
	nodeOwn  map[int64]uuid.UUID // node ID -> owning identity
	removed  map[uuid.UUID]bool  // identities deleted since last rebuild
	nextNode int64
}

// newIndex creates an empty index.
func newIndex() *Index {
	g := hnsw.NewGraph[int64]()
	g.M = hnswMaxNeighbors
	g.Ml = 1.0 / float64(hnswMaxNeighbors) // standard HNSW formula
	g.Distance = hnsw.CosineDistance
	return &Index{
		graph:   g,
		nodeOwn: make(map[int64]uuid.UUID),
		removed: make(map[uuid.UUID]bool),
	}
}

// add inserts one reference embedding for an identity.
func (ix *Index) add(id uuid.UUID, embedding []float32) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	node := ix.nextNode
	ix.nextNode++
	ix.graph.Add(hnsw.MakeNode(node, embedding))
	ix.nodeOwn[node] = id
	delete(ix.removed, id)
}

// removeIdentity marks an identity's nodes as dead. The HNSW graph does not
// support true deletion; dead nodes are filtered out of search results.
func (ix *Index) removeIdentity(id uuid.UUID) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removed[id] = true
}

// candidates returns the distinct identities owning the k nearest reference
// embeddings to the query, excluding removed identities.
func (ix *Index) candidates(query []float32, k int) []uuid.UUID {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	neighbors := ix.graph.Search(query, k)
	seen := make(map[uuid.UUID]bool, len(neighbors))
	ids := make([]uuid.UUID, 0, len(neighbors))
	for _, n := range neighbors {
		owner, ok := ix.nodeOwn[n.Key]
		if !ok || ix.removed[owner] || seen[owner] {
			continue
		}
		seen[owner] = true
		ids = append(ids, owner)
	}
	return ids
}

// EnableIndex builds an HNSW index over the current gallery contents and
// keeps it in sync with subsequent Enroll/Remove calls.
func (s *Store) EnableIndex() {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	if s.index != nil {
		return
	}

	ix := newIndex()
	snap := s.Snapshot()
	for i := range snap.Identities {
		ident := &snap.Identities[i]
		for _, emb := range ident.Embeddings {
			ix.add(ident.ID, emb)
		}
	}
	s.index = ix
}

// IndexEnabled reports whether the ANN accelerator is active.
func (s *Store) IndexEnabled() bool {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	return s.index != nil
}

// Candidates preselects identities for a query via the HNSW index.
// Returns nil when the index is disabled, meaning all identities are candidates.
func (s *Store) Candidates(query []float32, k int) []uuid.UUID {
	s.indexMu.Lock()
	ix := s.index
	s.indexMu.Unlock()
	if ix == nil {
		return nil
	}
	return ix.candidates(query, k)
}

func (s *Store) indexAdd(id uuid.UUID, embedding []float32) {
	s.indexMu.Lock()
	ix := s.index
	s.indexMu.Unlock()
	if ix != nil {
		ix.add(id, embedding)
	}
}

func (s *Store) indexRemove(id uuid.UUID) {
	s.indexMu.Lock()
	ix := s.index
	s.indexMu.Unlock()
	if ix != nil {
		ix.removeIdentity(id)
	}
}
