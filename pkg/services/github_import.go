package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coldconnect/coldconnect-engine/pkg/adapters/github"
	"github.com/coldconnect/coldconnect-engine/pkg/apperrors"
	"github.com/coldconnect/coldconnect-engine/pkg/logging"
	"github.com/coldconnect/coldconnect-engine/pkg/models"
	"github.com/coldconnect/coldconnect-engine/pkg/workerpool"
)

// Imported repositories get these fixed labels.
const (
	ImportedCategory = "Open Source"
	ImportedDomain   = "General"

	DefaultReadmePreview = 500
)

// RepositorySource lists a GitHub user's repositories.
type RepositorySource interface {
	ListPublicRepositories(ctx context.Context, username string) ([]github.Repository, error)
	Readme(ctx context.Context, owner, repo string) (string, error)
}

// ImportedProject is the outcome for one repository.
type ImportedProject struct {
	Repository string     `json:"repository"`
	ProjectID  *uuid.UUID `json:"project_id,omitempty"`
	Message    string     `json:"message,omitempty"`
	Skipped    bool       `json:"skipped,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// GitHubImportService turns public repositories into ingested projects.
type GitHubImportService interface {
	// ImportRepositories creates and ingests one project per eligible
	// repository. Per-repository failures are reported in the results.
	// The context must carry an owner scope for owner.
	ImportRepositories(ctx context.Context, owner models.OwnerID, githubURL string) ([]ImportedProject, error)
}

type githubImportService struct {
	source        RepositorySource
	projects      ProjectService
	ingestion     IngestionService
	pool          *workerpool.Pool
	readmePreview int
	logger        *zap.Logger
}

var _ GitHubImportService = (*githubImportService)(nil)

// NewGitHubImportService creates an import service. readmePreview <= 0 uses
// DefaultReadmePreview.
func NewGitHubImportService(source RepositorySource, projects ProjectService, ingestion IngestionService, pool *workerpool.Pool, readmePreview int, logger *zap.Logger) GitHubImportService {
	if readmePreview <= 0 {
		readmePreview = DefaultReadmePreview
	}
	return &githubImportService{
		source:        source,
		projects:      projects,
		ingestion:     ingestion,
		pool:          pool,
		readmePreview: readmePreview,
		logger:        logger.Named("github-import"),
	}
}

func (s *githubImportService) ImportRepositories(ctx context.Context, owner models.OwnerID, githubURL string) ([]ImportedProject, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("%w: owner is required", apperrors.ErrInvalidInput)
	}
	username, err := github.UsernameFromURL(githubURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err)
	}

	repos, err := s.source.ListPublicRepositories(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("list repositories for %s: %w", username, err)
	}

	results := make([]ImportedProject, len(repos))
	var eligible []int
	for i, repo := range repos {
		results[i].Repository = repo.Name
		if repo.Fork || repo.Archived {
			results[i].Skipped = true
			continue
		}
		eligible = append(eligible, i)
	}

	fields := s.buildFields(ctx, repos, eligible)

	// Project rows share the request's scoped connection, so they are
	// created one at a time.
	created := make(map[int]*models.Project, len(eligible))
	for _, i := range eligible {
		project, err := s.projects.AddProject(ctx, owner, fields[i])
		if err != nil {
			results[i].Error = logging.SanitizeError(err)
			continue
		}
		id := project.ID
		results[i].ProjectID = &id
		created[i] = project
	}

	s.ingestAll(ctx, created, results)

	imported := 0
	for _, r := range results {
		if r.ProjectID != nil && r.Error == "" {
			imported++
		}
	}
	s.logger.Info("GitHub import finished",
		zap.String("owner", owner.String()),
		zap.String("github_user", username),
		zap.Int("repositories", len(repos)),
		zap.Int("imported", imported))

	return results, nil
}

// buildFields fetches READMEs in parallel and maps each eligible repository
// to project fields.
func (s *githubImportService) buildFields(ctx context.Context, repos []github.Repository, eligible []int) map[int]models.ProjectFields {
	jobs := make([]workerpool.Job[string], len(eligible))
	for j, i := range eligible {
		repo := repos[i]
		jobs[j] = workerpool.Job[string]{
			Key: repo.Name,
			Run: func(ctx context.Context) (string, error) {
				if strings.TrimSpace(repo.Description) != "" {
					return "", nil
				}
				return s.source.Readme(ctx, repo.Owner, repo.Name)
			},
		}
	}

	readmes := workerpool.Run(ctx, s.pool, jobs, nil)

	fields := make(map[int]models.ProjectFields, len(eligible))
	for j, i := range eligible {
		readme := readmes[j].Value
		if readmes[j].Err != nil {
			s.logger.Debug("README unavailable",
				zap.String("repository", repos[i].Name),
				zap.Error(readmes[j].Err))
			readme = ""
		}
		fields[i] = ProjectFieldsFromRepository(repos[i], readme, s.readmePreview)
	}
	return fields
}

func (s *githubImportService) ingestAll(ctx context.Context, created map[int]*models.Project, results []ImportedProject) {
	order := make([]int, 0, len(created))
	for i := range results {
		if _, ok := created[i]; ok {
			order = append(order, i)
		}
	}

	jobs := make([]workerpool.Job[string], len(order))
	for j, i := range order {
		project := created[i]
		jobs[j] = workerpool.Job[string]{
			Key: project.Name,
			Run: func(ctx context.Context) (string, error) {
				return s.ingestion.Ingest(ctx, project)
			},
		}
	}

	for j, res := range workerpool.Run(ctx, s.pool, jobs, nil) {
		i := order[j]
		if res.Err != nil {
			results[i].Error = logging.SanitizeError(res.Err)
			continue
		}
		results[i].Message = res.Value
	}
}

// ProjectFieldsFromRepository maps a repository to project fields. The
// README preview fills in a missing description.
func ProjectFieldsFromRepository(repo github.Repository, readme string, preview int) models.ProjectFields {
	description := strings.TrimSpace(repo.Description)
	if description == "" {
		description = logging.TruncateRunes(strings.TrimSpace(readme), preview)
	}

	skills := make([]string, 0, len(repo.Topics)+1)
	if repo.Language != "" {
		skills = append(skills, repo.Language)
	}
	seen := map[string]bool{strings.ToLower(repo.Language): true}
	for _, topic := range repo.Topics {
		key := strings.ToLower(topic)
		if seen[key] {
			continue
		}
		seen[key] = true
		skills = append(skills, topic)
	}

	return models.ProjectFields{
		Name:        repo.Name,
		Description: description,
		Skills:      skills,
		URL:         repo.URL,
		Category:    ImportedCategory,
		Domain:      ImportedDomain,
	}
}
