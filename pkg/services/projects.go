package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coldconnect/coldconnect-engine/pkg/apperrors"
	"github.com/coldconnect/coldconnect-engine/pkg/models"
	"github.com/coldconnect/coldconnect-engine/pkg/repositories"
)

// ProjectService provides caller-facing project operations.
// The context must carry an owner scope for owner.
type ProjectService interface {
	// AddProject validates and stores a project without embedding it.
	AddProject(ctx context.Context, owner models.OwnerID, fields models.ProjectFields) (*models.Project, error)

	// IngestProject embeds a stored project.
	IngestProject(ctx context.Context, owner models.OwnerID, projectID uuid.UUID) (string, error)

	// AddAndIngest stores then embeds a project. When ingestion fails the
	// stored project is still returned with the error.
	AddAndIngest(ctx context.Context, owner models.OwnerID, fields models.ProjectFields) (*models.Project, string, error)

	Get(ctx context.Context, owner models.OwnerID, projectID uuid.UUID) (*models.Project, error)
	List(ctx context.Context, owner models.OwnerID) ([]*models.Project, error)

	// Delete removes the project record. Chunks already in the index stay.
	Delete(ctx context.Context, owner models.OwnerID, projectID uuid.UUID) error
}

type projectService struct {
	repo      repositories.ProjectRepository
	ingestion IngestionService
	logger    *zap.Logger
}

var _ ProjectService = (*projectService)(nil)

// NewProjectService creates a project service.
func NewProjectService(repo repositories.ProjectRepository, ingestion IngestionService, logger *zap.Logger) ProjectService {
	return &projectService{
		repo:      repo,
		ingestion: ingestion,
		logger:    logger.Named("projects"),
	}
}

func (s *projectService) AddProject(ctx context.Context, owner models.OwnerID, fields models.ProjectFields) (*models.Project, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("%w: owner is required", apperrors.ErrInvalidInput)
	}

	name := strings.TrimSpace(fields.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: project name is required", apperrors.ErrInvalidInput)
	}

	project := &models.Project{
		Owner:       owner,
		Name:        name,
		Description: strings.TrimSpace(fields.Description),
		Skills:      models.CleanSkills(fields.Skills),
		URL:         strings.TrimSpace(fields.URL),
		Category:    strings.TrimSpace(fields.Category),
		Domain:      strings.TrimSpace(fields.Domain),
	}
	project.Domain = project.DomainOrDefault()

	if err := s.repo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	s.logger.Info("Project created",
		zap.String("project_id", project.ID.String()),
		zap.String("owner", owner.String()))

	return project, nil
}

func (s *projectService) IngestProject(ctx context.Context, owner models.OwnerID, projectID uuid.UUID) (string, error) {
	project, err := s.Get(ctx, owner, projectID)
	if err != nil {
		return "", err
	}
	return s.ingestion.Ingest(ctx, project)
}

func (s *projectService) AddAndIngest(ctx context.Context, owner models.OwnerID, fields models.ProjectFields) (*models.Project, string, error) {
	project, err := s.AddProject(ctx, owner, fields)
	if err != nil {
		return nil, "", err
	}

	message, err := s.ingestion.Ingest(ctx, project)
	if err != nil {
		return project, "", err
	}
	return project, message, nil
}

func (s *projectService) Get(ctx context.Context, owner models.OwnerID, projectID uuid.UUID) (*models.Project, error) {
	project, err := s.repo.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	// The repository is already owner scoped; this guards a mismatched scope.
	if project.Owner != owner {
		return nil, apperrors.ErrNotFound
	}
	return project, nil
}

func (s *projectService) List(ctx context.Context, owner models.OwnerID) ([]*models.Project, error) {
	projects, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	owned := make([]*models.Project, 0, len(projects))
	for _, p := range projects {
		if p.Owner == owner {
			owned = append(owned, p)
		}
	}
	return owned, nil
}

func (s *projectService) Delete(ctx context.Context, owner models.OwnerID, projectID uuid.UUID) error {
	if _, err := s.Get(ctx, owner, projectID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, projectID); err != nil {
		return err
	}

	s.logger.Info("Project deleted",
		zap.String("project_id", projectID.String()),
		zap.String("owner", owner.String()))
	return nil
}
