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

// EmailRepository defines the interface for outreach email data access.
type EmailRepository interface {
	Create(ctx context.Context, email *models.Email) error
	Get(ctx context.Context, id uuid.UUID) (*models.Email, error)
	ListByOwner(ctx context.Context) ([]*models.Email, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.EmailStatus) error
}

type emailRepository struct{}

var _ EmailRepository = (*emailRepository)(nil)

// NewEmailRepository creates a new email repository.
func NewEmailRepository() EmailRepository {
	return &emailRepository{}
}

const emailColumns = `id, subject, content, job_title, company, recipient_email, status, created_by, created_at`

func (r *emailRepository) Create(ctx context.Context, email *models.Email) error {
	scope, err := ownerScope(ctx)
	if err != nil {
		return err
	}

	if email.ID == uuid.Nil {
		email.ID = uuid.New()
	}
	email.CreatedAt = time.Now()
	email.CreatedBy = scope.Owner

	query := `
		INSERT INTO emails (id, subject, content, job_title, company, recipient_email, status, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = scope.Conn.Exec(ctx, query,
		email.ID,
		email.Subject,
		email.Content,
		email.JobTitle,
		email.Company,
		email.RecipientEmail,
		string(email.Status),
		scope.Owner.String(),
		email.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create email: %w", err)
	}
	return nil
}

func (r *emailRepository) Get(ctx context.Context, id uuid.UUID) (*models.Email, error) {
	scope, err := ownerScope(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + emailColumns + ` FROM emails WHERE id = $1 AND created_by = $2`

	email, err := scanEmail(scope.Conn.QueryRow(ctx, query, id, scope.Owner.String()))
	if err != nil {
		return nil, notFoundOr(err, "get email")
	}
	return email, nil
}

// ListByOwner returns the owner's emails, newest first.
func (r *emailRepository) ListByOwner(ctx context.Context) ([]*models.Email, error) {
	scope, err := ownerScope(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + emailColumns + ` FROM emails WHERE created_by = $1 ORDER BY created_at DESC, id`

	rows, err := scope.Conn.Query(ctx, query, scope.Owner.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}
	defer rows.Close()

	emails := []*models.Email{}
	for rows.Next() {
		e, err := scanEmail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan email: %w", err)
		}
		emails = append(emails, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate emails: %w", err)
	}
	return emails, nil
}

func (r *emailRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.EmailStatus) error {
	scope, err := ownerScope(ctx)
	if err != nil {
		return err
	}

	tag, err := scope.Conn.Exec(ctx,
		`UPDATE emails SET status = $3 WHERE id = $1 AND created_by = $2`,
		id, scope.Owner.String(), string(status))
	if err != nil {
		return fmt.Errorf("failed to update email status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func scanEmail(row pgx.Row) (*models.Email, error) {
	var e models.Email
	var status, createdBy string
	if err := row.Scan(
		&e.ID,
		&e.Subject,
		&e.Content,
		&e.JobTitle,
		&e.Company,
		&e.RecipientEmail,
		&status,
		&createdBy,
		&e.CreatedAt,
	); err != nil {
		return nil, err
	}
	e.Status = models.EmailStatus(status)
	e.CreatedBy, _ = models.NewOwnerID(createdBy)
	return &e, nil
}
