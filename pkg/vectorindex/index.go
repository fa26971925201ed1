// Package vectorindex stores embedded project chunks and answers
// nearest-neighbor queries over them.
package vectorindex

import (
	"context"

	"github.com/coldconnect/coldconnect-engine/pkg/models"
)

// Hit is one retrieved chunk. Higher Score means more similar.
type Hit struct {
	Text     string
	Metadata models.ChunkMetadata
	Score    float64
}

// Index is a vector store for project chunks.
//
// QuerySimilar is not owner-scoped: it ranks every chunk in the index, and
// callers filter by owner afterwards.
type Index interface {
	// UpsertBatch writes all chunks or none of them.
	UpsertBatch(ctx context.Context, chunks []models.ProjectChunk) error

	// QuerySimilar returns at most k hits ordered by descending score.
	QuerySimilar(ctx context.Context, vector []float32, k int) ([]Hit, error)
}
