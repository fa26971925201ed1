package vectorindex

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"github.com/coldconnect/coldconnect-engine/pkg/database"
	"github.com/coldconnect/coldconnect-engine/pkg/models"
)

// PGVectorIndex stores chunks in the project_chunks table and ranks them by
// cosine similarity with pgvector. The table is not owner-scoped.
type PGVectorIndex struct {
	db     *database.DB
	logger *zap.Logger
}

var _ Index = (*PGVectorIndex)(nil)

// NewPGVectorIndex creates an index over db.
func NewPGVectorIndex(db *database.DB, logger *zap.Logger) *PGVectorIndex {
	return &PGVectorIndex{
		db:     db,
		logger: logger.Named("vectorindex"),
	}
}

// UpsertBatch inserts all chunks in one transaction.
func (p *PGVectorIndex) UpsertBatch(ctx context.Context, chunks []models.ProjectChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	query := `
		INSERT INTO project_chunks (project_id, owner_id, project_name, category, domain, source, content, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	batch := &pgx.Batch{}
	for _, c := range chunks {
		md := c.Metadata
		batch.Queue(query,
			md.ProjectID,
			md.OwnerID,
			md.ProjectName,
			md.Category,
			md.Domain,
			md.Source,
			c.Text,
			pgvector.NewVector(c.Vector),
		)
	}

	err := pgx.BeginFunc(ctx, p.db.Pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("failed to insert chunks: %w", err)
	}

	p.logger.Debug("Inserted chunks", zap.Int("count", len(chunks)))
	return nil
}

// QuerySimilar returns the k nearest chunks. pgvector's cosine distance is
// converted to similarity so that higher is more similar.
func (p *PGVectorIndex) QuerySimilar(ctx context.Context, vector []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	query := `
		SELECT project_id, owner_id, project_name, category, domain, source, content,
		       1 - (embedding <=> $1) AS score
		FROM project_chunks
		ORDER BY embedding <=> $1, created_at, id
		LIMIT $2`

	rows, err := p.db.Pool.Query(ctx, query, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	hits := make([]Hit, 0, k)
	for rows.Next() {
		var h Hit
		if err := rows.Scan(
			&h.Metadata.ProjectID,
			&h.Metadata.OwnerID,
			&h.Metadata.ProjectName,
			&h.Metadata.Category,
			&h.Metadata.Domain,
			&h.Metadata.Source,
			&h.Text,
			&h.Score,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunks: %w", err)
	}

	return hits, nil
}

// CountForProject returns how many chunks exist for a project.
func (p *PGVectorIndex) CountForProject(ctx context.Context, projectID uuid.UUID) (int, error) {
	var n int
	err := p.db.Pool.QueryRow(ctx,
		`SELECT count(*) FROM project_chunks WHERE project_id = $1`, projectID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}
