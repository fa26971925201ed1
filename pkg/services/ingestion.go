package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/coldconnect/coldconnect-engine/pkg/apperrors"
	"github.com/coldconnect/coldconnect-engine/pkg/embedding"
	"github.com/coldconnect/coldconnect-engine/pkg/logging"
	"github.com/coldconnect/coldconnect-engine/pkg/models"
	"github.com/coldconnect/coldconnect-engine/pkg/vectorindex"
)

// FacetCount is the number of chunks produced for every project.
const FacetCount = 6

// IngestionService embeds projects into the vector index.
type IngestionService interface {
	// Ingest embeds the project's facets and writes them to the index.
	// The project must already be stored; it is not re-read or modified.
	Ingest(ctx context.Context, project *models.Project) (string, error)
}

type ingestionService struct {
	embedder embedding.Provider
	index    vectorindex.Index
	logger   *zap.Logger
}

var _ IngestionService = (*ingestionService)(nil)

// NewIngestionService creates an ingestion service.
func NewIngestionService(embedder embedding.Provider, index vectorindex.Index, logger *zap.Logger) IngestionService {
	return &ingestionService{
		embedder: embedder,
		index:    index,
		logger:   logger.Named("ingestion"),
	}
}

func (s *ingestionService) Ingest(ctx context.Context, project *models.Project) (string, error) {
	if project == nil || project.Owner.IsZero() {
		return "", fmt.Errorf("%w: project with an owner is required", apperrors.ErrInvalidInput)
	}

	texts := ProjectFacets(project)

	vectors, err := s.embedder.Embed(ctx, texts, embedding.ModeDocument)
	if err != nil {
		if errors.Is(err, apperrors.ErrEmbeddingNotConfigured) {
			return "", err
		}
		s.logIncomplete(project, "embed", err)
		return "", fmt.Errorf("%w: embed project %s: %w", apperrors.ErrIngestionFailed, project.ID, err)
	}
	if len(vectors) != len(texts) {
		err := fmt.Errorf("provider returned %d vectors for %d facets", len(vectors), len(texts))
		s.logIncomplete(project, "embed", err)
		return "", fmt.Errorf("%w: %w", apperrors.ErrIngestionFailed, err)
	}

	metadata := ChunkMetadataFor(project)
	chunks := make([]models.ProjectChunk, len(texts))
	for i, text := range texts {
		chunks[i] = models.ProjectChunk{
			Text:     text,
			Vector:   vectors[i],
			Metadata: metadata,
		}
	}

	if err := s.index.UpsertBatch(ctx, chunks); err != nil {
		s.logIncomplete(project, "index", err)
		return "", fmt.Errorf("%w: store chunks for project %s: %w", apperrors.ErrIngestionFailed, project.ID, err)
	}

	s.logger.Info("Project ingested",
		zap.String("project_id", project.ID.String()),
		zap.Int("chunks", len(chunks)),
		zap.String("model", s.embedder.ModelName()))

	return fmt.Sprintf(`Embedded project "%s" with category "%s".`, project.Name, project.Category), nil
}

// logIncomplete records a stored project that has no chunks. Nothing repairs
// this state; the project simply never matches until it is ingested again.
func (s *ingestionService) logIncomplete(project *models.Project, stage string, err error) {
	s.logger.Error("Project stored without embedding chunks",
		zap.String("inconsistency", "project_without_chunks"),
		zap.String("stage", stage),
		zap.String("project_id", project.ID.String()),
		zap.String("error", logging.SanitizeError(err)))
}

// ProjectFacets returns the texts embedded for a project, in a fixed order:
// name, category, domain, description, skills, summary.
func ProjectFacets(p *models.Project) []string {
	skills := strings.Join(p.Skills, ", ")

	focus := p.Domain
	if strings.TrimSpace(focus) == "" {
		focus = "general applications"
	}

	return []string{
		"Project Name: " + p.Name,
		"Category: " + p.Category,
		"Domain: " + p.DomainOrDefault(),
		"Description: " + p.Description,
		"Skills: " + skills,
		fmt.Sprintf("Summary: %s is a %s project focused on %s using %s.", p.Name, p.Category, focus, skills),
	}
}

// ChunkMetadataFor returns the metadata shared by all chunks of a project.
func ChunkMetadataFor(p *models.Project) models.ChunkMetadata {
	return models.ChunkMetadata{
		ProjectID:   p.ID,
		OwnerID:     p.Owner.String(),
		ProjectName: p.Name,
		Category:    p.Category,
		Domain:      p.DomainOrDefault(),
		Source:      models.ChunkSourceProject,
	}
}
