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

// Matching defaults.
const (
	DefaultMatchTopK      = 15
	DefaultMatchThreshold = 0.5
)

// MatchConfig tunes retrieval.
//
// TopK is applied to the whole index before results are narrowed to the
// requesting owner. When other owners hold many similar chunks, a small TopK
// can push all of an owner's relevant chunks out of the candidate set, so
// raising it trades latency for recall.
type MatchConfig struct {
	TopK      int
	Threshold float64
}

// MatchService ranks an owner's projects against a job description.
type MatchService interface {
	// Match returns projects scoring above the threshold, best first.
	// An empty slice means nothing was relevant enough.
	Match(ctx context.Context, owner models.OwnerID, jobDescription string) ([]models.MatchResult, error)
}

type matchService struct {
	embedder embedding.Provider
	index    vectorindex.Index
	config   MatchConfig
	logger   *zap.Logger
}

var _ MatchService = (*matchService)(nil)

// NewMatchService creates a match service. Non-positive TopK falls back to
// DefaultMatchTopK.
func NewMatchService(embedder embedding.Provider, index vectorindex.Index, cfg MatchConfig, logger *zap.Logger) MatchService {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultMatchTopK
	}
	return &matchService{
		embedder: embedder,
		index:    index,
		config:   cfg,
		logger:   logger.Named("matching"),
	}
}

func (s *matchService) Match(ctx context.Context, owner models.OwnerID, jobDescription string) ([]models.MatchResult, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("%w: owner is required", apperrors.ErrInvalidInput)
	}
	if strings.TrimSpace(jobDescription) == "" {
		return nil, fmt.Errorf("%w: job description is required", apperrors.ErrInvalidInput)
	}

	vectors, err := s.embedder.Embed(ctx, []string{MatchQueryText(jobDescription)}, embedding.ModeQuery)
	if err != nil {
		if errors.Is(err, apperrors.ErrEmbeddingNotConfigured) {
			return nil, err
		}
		s.logger.Warn("Query embedding failed", zap.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("%w: embed job description: %w", apperrors.ErrMatchFailed, err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: provider returned %d vectors for one query", apperrors.ErrMatchFailed, len(vectors))
	}

	hits, err := s.index.QuerySimilar(ctx, vectors[0], s.config.TopK)
	if err != nil {
		s.logger.Warn("Similarity query failed", zap.Error(err))
		return nil, fmt.Errorf("%w: query index: %w", apperrors.ErrMatchFailed, err)
	}

	results := AggregateMatches(hits, owner, s.config.Threshold)

	s.logger.Debug("Match complete",
		zap.Int("hits", len(hits)),
		zap.Int("results", len(results)),
		zap.Int("top_k", s.config.TopK),
		zap.Float64("threshold", s.config.Threshold))

	return results, nil
}

// MatchQueryText frames a job description with the retrieval goal so the
// query embedding lands near project facets rather than the posting's prose.
func MatchQueryText(jobDescription string) string {
	return "Job Title Context:\n" +
		strings.TrimSpace(jobDescription) +
		"\n\nThe goal is to match user projects that best fit the domain, category, and skill requirements implied above.\n" +
		"Prioritize projects whose category or skills overlap with the focus of the role.\n" +
		"Leave out projects whose skills do not fit the role.\n"
}
