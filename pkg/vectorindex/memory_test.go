package vectorindex

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldconnect/coldconnect-engine/pkg/models"
)

func chunk(name, owner string, vector ...float32) models.ProjectChunk {
	return models.ProjectChunk{
		Text:   name + " facet",
		Vector: vector,
		Metadata: models.ChunkMetadata{
			ProjectID:   uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)),
			OwnerID:     owner,
			ProjectName: name,
			Source:      models.ChunkSourceProject,
		},
	}
}

func TestMemoryIndex_QuerySimilar_OrdersByScore(t *testing.T) {
	idx := NewMemoryIndex()
	require.NoError(t, idx.UpsertBatch(context.Background(), []models.ProjectChunk{
		chunk("far", "a@x.com", 0, 1),
		chunk("near", "a@x.com", 1, 0.1),
		chunk("mid", "b@y.com", 1, 1),
	}))

	hits, err := idx.QuerySimilar(context.Background(), []float32{1, 0}, 10)

	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "near", hits[0].Metadata.ProjectName)
	assert.Equal(t, "mid", hits[1].Metadata.ProjectName)
	assert.Equal(t, "far", hits[2].Metadata.ProjectName)
	assert.InDelta(t, 0.7071, hits[1].Score, 1e-4)
	assert.InDelta(t, 0.0, hits[2].Score, 1e-9)
	assert.Equal(t, "b@y.com", hits[1].Metadata.OwnerID, "query is not owner scoped")
}

func TestMemoryIndex_QuerySimilar_LimitsToK(t *testing.T) {
	idx := NewMemoryIndex()
	require.NoError(t, idx.UpsertBatch(context.Background(), []models.ProjectChunk{
		chunk("a", "o", 1, 0),
		chunk("b", "o", 1, 0.5),
		chunk("c", "o", 0, 1),
	}))

	hits, err := idx.QuerySimilar(context.Background(), []float32{1, 0}, 2)

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].Metadata.ProjectName)
	assert.Equal(t, "b", hits[1].Metadata.ProjectName)
}

func TestMemoryIndex_QuerySimilar_TiesKeepInsertionOrder(t *testing.T) {
	idx := NewMemoryIndex()
	require.NoError(t, idx.UpsertBatch(context.Background(), []models.ProjectChunk{
		chunk("first", "o", 2, 0),
		chunk("second", "o", 1, 0),
	}))

	hits, err := idx.QuerySimilar(context.Background(), []float32{1, 0}, 2)

	require.NoError(t, err)
	assert.Equal(t, "first", hits[0].Metadata.ProjectName)
	assert.Equal(t, "second", hits[1].Metadata.ProjectName)
}

func TestMemoryIndex_UpsertBatch_IsAllOrNothing(t *testing.T) {
	idx := NewMemoryIndex()
	require.NoError(t, idx.UpsertBatch(context.Background(), []models.ProjectChunk{chunk("a", "o", 1, 0)}))

	err := idx.UpsertBatch(context.Background(), []models.ProjectChunk{
		chunk("b", "o", 1, 0),
		chunk("c", "o", 1, 0, 0),
	})

	require.Error(t, err)
	assert.Equal(t, 1, idx.Len())
}

func TestMemoryIndex_UpsertBatch_CopiesVectors(t *testing.T) {
	idx := NewMemoryIndex()
	c := chunk("a", "o", 1, 0)
	require.NoError(t, idx.UpsertBatch(context.Background(), []models.ProjectChunk{c}))

	c.Vector[0], c.Vector[1] = 0, 1

	hits, err := idx.QuerySimilar(context.Background(), []float32{1, 0}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
}

func TestMemoryIndex_QuerySimilar_Errors(t *testing.T) {
	idx := NewMemoryIndex()
	require.NoError(t, idx.UpsertBatch(context.Background(), []models.ProjectChunk{chunk("a", "o", 1, 0)}))

	_, err := idx.QuerySimilar(context.Background(), []float32{1, 0}, 0)
	assert.Error(t, err)

	_, err = idx.QuerySimilar(context.Background(), []float32{1, 0, 0}, 5)
	assert.Error(t, err)
}

func TestMemoryIndex_Empty(t *testing.T) {
	idx := NewMemoryIndex()

	require.NoError(t, idx.UpsertBatch(context.Background(), nil))
	hits, err := idx.QuerySimilar(context.Background(), []float32{1, 0}, 15)

	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.Zero(t, idx.Len())
}

func TestCosineSimilarity_ZeroVector(t *testing.T) {
	assert.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 0}))
}
