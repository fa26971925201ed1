package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/coldconnect/coldconnect-engine/pkg/models"
)

// MemoryIndex is a brute-force cosine index held in process memory.
// It is used for local development and tests.
type MemoryIndex struct {
	mu     sync.RWMutex
	chunks []models.ProjectChunk
	dims   int
}

var _ Index = (*MemoryIndex)(nil)

// NewMemoryIndex creates an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

// UpsertBatch appends chunks. The first stored vector fixes the dimension.
func (m *MemoryIndex) UpsertBatch(ctx context.Context, chunks []models.ProjectChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	dims := m.dims
	if dims == 0 {
		dims = len(chunks[0].Vector)
	}
	for i, c := range chunks {
		if len(c.Vector) == 0 || len(c.Vector) != dims {
			return fmt.Errorf("chunk %d has %d dimensions, index expects %d", i, len(c.Vector), dims)
		}
	}

	for _, c := range chunks {
		stored := c
		stored.Vector = append([]float32(nil), c.Vector...)
		m.chunks = append(m.chunks, stored)
	}
	m.dims = dims
	return nil
}

// QuerySimilar scans every chunk. Equal scores keep insertion order.
func (m *MemoryIndex) QuerySimilar(ctx context.Context, vector []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.dims != 0 && len(vector) != m.dims {
		return nil, fmt.Errorf("query has %d dimensions, index expects %d", len(vector), m.dims)
	}

	hits := make([]Hit, 0, len(m.chunks))
	for _, c := range m.chunks {
		hits = append(hits, Hit{
			Text:     c.Text,
			Metadata: c.Metadata,
			Score:    cosineSimilarity(vector, c.Vector),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Len returns the number of stored chunks.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}

// cosineSimilarity returns 0 when either vector has zero magnitude.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
