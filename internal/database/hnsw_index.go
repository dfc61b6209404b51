package database

import (
	"sort"
	"sync"

	"github.com/coder/hnsw"
	"github.com/kozaktomas/face-verify/internal/facematch"
)

// HNSW parameters for 512-dim face embeddings
const (
	// HNSWMaxNeighbors (M) is the maximum number of neighbors per node.
	HNSWMaxNeighbors = 16

	// HNSWEfSearch is the search candidate pool size.
	HNSWEfSearch = 100

	// HNSWSearchMultiplier requests extra neighbors so filtering still leaves k results.
	HNSWSearchMultiplier = 3
)

// HNSWIndex is an approximate nearest-neighbor index over enrollment embeddings,
// keyed by identity key. Verification never uses it; it only backs look-alike
// warnings during enrollment.
type HNSWIndex struct {
	graph *hnsw.Graph[string]
	mu    sync.RWMutex
}

// NewHNSWIndex creates a new empty HNSW index.
func NewHNSWIndex() *HNSWIndex {
	return &HNSWIndex{graph: newGraph()}
}

func newGraph() *hnsw.Graph[string] {
	g := hnsw.NewGraph[string]()
	g.M = HNSWMaxNeighbors
	g.EfSearch = HNSWEfSearch
	g.Distance = hnsw.CosineDistance
	return g
}

// Build replaces the index contents with records.
func (h *HNSWIndex) Build(records []EnrollmentRecord) {
	g := newGraph()
	for _, rec := range records {
		if len(rec.Embedding) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(rec.IdentityKey, rec.Embedding))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.graph = g
}

// Upsert adds or replaces the embedding of one identity.
func (h *HNSWIndex) Upsert(identityKey string, embedding []float32) {
	if len(embedding) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.graph.Lookup(identityKey); ok {
		h.graph.Delete(identityKey)
	}
	h.graph.Add(hnsw.MakeNode(identityKey, embedding))
}

// Remove drops an identity from the index.
func (h *HNSWIndex) Remove(identityKey string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.graph.Delete(identityKey)
}

// Len returns the number of indexed identities.
func (h *HNSWIndex) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.graph.Len()
}

// Similar returns up to k identities other than exclude whose similarity to
// query is at least minSimilarity, best first.
func (h *HNSWIndex) Similar(query []float32, k int, minSimilarity float64, exclude string) []facematch.Candidate {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.graph.Len() == 0 || k <= 0 {
		return nil
	}

	neighbors := h.graph.Search(query, k*HNSWSearchMultiplier)
	var out []facematch.Candidate
	for _, n := range neighbors {
		if n.Key == exclude {
			continue
		}
		sim := facematch.CosineSimilarity(query, n.Value)
		if sim < minSimilarity {
			continue
		}
		out = append(out, facematch.Candidate{IdentityKey: n.Key, Similarity: sim})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > k {
		out = out[:k]
	}
	return out
}
