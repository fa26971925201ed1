package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/coldconnect/coldconnect-engine/pkg/models"
)

// UserRepository defines the interface for user profile data access.
// The user is always the scope's owner.
type UserRepository interface {
	// Upsert creates the profile if missing; an existing profile keeps its
	// fields except for a non-empty name.
	Upsert(ctx context.Context, name string) (*models.User, error)
	Get(ctx context.Context) (*models.User, error)
	Update(ctx context.Context, update *models.UserProfileUpdate) (*models.User, error)
}

type userRepository struct{}

var _ UserRepository = (*userRepository)(nil)

// NewUserRepository creates a new user repository.
func NewUserRepository() UserRepository {
	return &userRepository{}
}

const userColumns = `email, name, resume_url, github_url, portfolio_url, linkedin_url, has_onboarded, created_at, updated_at`

func (r *userRepository) Upsert(ctx context.Context, name string) (*models.User, error) {
	scope, err := ownerScope(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO users (email, name)
		VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE
		SET name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE users.name END
		RETURNING ` + userColumns

	user, err := scanUser(scope.Conn.QueryRow(ctx, query, scope.Owner.String(), name))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return user, nil
}

func (r *userRepository) Get(ctx context.Context) (*models.User, error) {
	scope, err := ownerScope(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(scope.Conn.QueryRow(ctx, query, scope.Owner.String()))
	if err != nil {
		return nil, notFoundOr(err, "get user")
	}
	return user, nil
}

// Update applies the non-nil fields of update.
func (r *userRepository) Update(ctx context.Context, update *models.UserProfileUpdate) (*models.User, error) {
	scope, err := ownerScope(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE users SET
			name          = COALESCE($2, name),
			resume_url    = COALESCE($3, resume_url),
			github_url    = COALESCE($4, github_url),
			portfolio_url = COALESCE($5, portfolio_url),
			linkedin_url  = COALESCE($6, linkedin_url),
			has_onboarded = COALESCE($7, has_onboarded)
		WHERE email = $1
		RETURNING ` + userColumns

	user, err := scanUser(scope.Conn.QueryRow(ctx, query,
		scope.Owner.String(),
		update.Name,
		update.ResumeURL,
		update.GitHubURL,
		update.PortfolioURL,
		update.LinkedInURL,
		update.HasOnboarded,
	))
	if err != nil {
		return nil, notFoundOr(err, "update user")
	}
	return user, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(
		&u.Email,
		&u.Name,
		&u.ResumeURL,
		&u.GitHubURL,
		&u.PortfolioURL,
		&u.LinkedInURL,
		&u.HasOnboarded,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}
