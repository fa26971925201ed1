package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/coldconnect/coldconnect-engine/pkg/apperrors"
	"github.com/coldconnect/coldconnect-engine/pkg/models"
)

// ProjectRepository defines the interface for project data access.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	Get(ctx context.Context, id uuid.UUID) (*models.Project, error)
	List(ctx context.Context) ([]*models.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type projectRepository struct{}

var _ ProjectRepository = (*projectRepository)(nil)

// NewProjectRepository creates a new project repository.
func NewProjectRepository() ProjectRepository {
	return &projectRepository{}
}

const projectColumns = `id, owner_id, name, description, skills, url, category, domain, created_at, updated_at`

// Create inserts a project owned by the scope's owner.
func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	scope, err := ownerScope(ctx)
	if err != nil {
		return err
	}

	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	now := time.Now()
	project.CreatedAt = now
	project.UpdatedAt = now
	project.Owner = scope.Owner
	if project.Skills == nil {
		project.Skills = []string{}
	}

	query := `
		INSERT INTO projects (id, owner_id, name, description, skills, url, category, domain, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = scope.Conn.Exec(ctx, query,
		project.ID,
		scope.Owner.String(),
		project.Name,
		project.Description,
		project.Skills,
		project.URL,
		project.Category,
		project.Domain,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// Get retrieves a project by ID. Projects of other owners are not found.
func (r *projectRepository) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	scope, err := ownerScope(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1 AND owner_id = $2`

	project, err := scanProject(scope.Conn.QueryRow(ctx, query, id, scope.Owner.String()))
	if err != nil {
		return nil, notFoundOr(err, "get project")
	}
	return project, nil
}

// List returns the owner's projects, newest first.
func (r *projectRepository) List(ctx context.Context) ([]*models.Project, error) {
	scope, err := ownerScope(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + projectColumns + ` FROM projects WHERE owner_id = $1 ORDER BY created_at DESC, id`

	rows, err := scope.Conn.Query(ctx, query, scope.Owner.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []*models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}
	return projects, nil
}

// Delete removes a project. Its embedding chunks are left in place.
func (r *projectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	scope, err := ownerScope(ctx)
	if err != nil {
		return err
	}

	tag, err := scope.Conn.Exec(ctx, `DELETE FROM projects WHERE id = $1 AND owner_id = $2`, id, scope.Owner.String())
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	var owner string
	if err := row.Scan(
		&p.ID,
		&owner,
		&p.Name,
		&p.Description,
		&p.Skills,
		&p.URL,
		&p.Category,
		&p.Domain,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Owner, _ = models.NewOwnerID(owner)
	return &p, nil
}
