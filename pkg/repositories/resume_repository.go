package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/coldconnect/coldconnect-engine/pkg/apperrors"
	"github.com/coldconnect/coldconnect-engine/pkg/models"
)

// ResumeRepository defines the interface for résumé file data access.
type ResumeRepository interface {
	Create(ctx context.Context, file *models.ResumeFile) error
	// Get returns the file including its bytes.
	Get(ctx context.Context, id uuid.UUID) (*models.ResumeFile, error)
	// List returns file metadata without bytes, newest first.
	List(ctx context.Context) ([]*models.ResumeFile, error)
	Rename(ctx context.Context, id uuid.UUID, fileName string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type resumeRepository struct{}

var _ ResumeRepository = (*resumeRepository)(nil)

// NewResumeRepository creates a new résumé repository.
func NewResumeRepository() ResumeRepository {
	return &resumeRepository{}
}

func (r *resumeRepository) Create(ctx context.Context, file *models.ResumeFile) error {
	scope, err := ownerScope(ctx)
	if err != nil {
		return err
	}

	if file.ID == uuid.Nil {
		file.ID = uuid.New()
	}
	file.CreatedAt = time.Now()
	file.Owner = scope.Owner
	file.Size = int64(len(file.Data))

	query := `
		INSERT INTO resume_files (id, owner_id, file_name, content_type, size_bytes, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = scope.Conn.Exec(ctx, query,
		file.ID,
		scope.Owner.String(),
		file.FileName,
		file.ContentType,
		file.Size,
		file.Data,
		file.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create resume file: %w", err)
	}
	return nil
}

func (r *resumeRepository) Get(ctx context.Context, id uuid.UUID) (*models.ResumeFile, error) {
	scope, err := ownerScope(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, file_name, content_type, size_bytes, data, created_at
		FROM resume_files
		WHERE id = $1 AND owner_id = $2`

	var f models.ResumeFile
	err = scope.Conn.QueryRow(ctx, query, id, scope.Owner.String()).Scan(
		&f.ID, &f.FileName, &f.ContentType, &f.Size, &f.Data, &f.CreatedAt,
	)
	if err != nil {
		return nil, notFoundOr(err, "get resume file")
	}
	f.Owner = scope.Owner
	return &f, nil
}

func (r *resumeRepository) List(ctx context.Context) ([]*models.ResumeFile, error) {
	scope, err := ownerScope(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, file_name, content_type, size_bytes, created_at
		FROM resume_files
		WHERE owner_id = $1
		ORDER BY created_at DESC, id`

	rows, err := scope.Conn.Query(ctx, query, scope.Owner.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list resume files: %w", err)
	}
	defer rows.Close()

	files := []*models.ResumeFile{}
	for rows.Next() {
		f := &models.ResumeFile{Owner: scope.Owner}
		if err := rows.Scan(&f.ID, &f.FileName, &f.ContentType, &f.Size, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan resume file: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate resume files: %w", err)
	}
	return files, nil
}

func (r *resumeRepository) Rename(ctx context.Context, id uuid.UUID, fileName string) error {
	scope, err := ownerScope(ctx)
	if err != nil {
		return err
	}

	tag, err := scope.Conn.Exec(ctx,
		`UPDATE resume_files SET file_name = $3 WHERE id = $1 AND owner_id = $2`,
		id, scope.Owner.String(), fileName)
	if err != nil {
		return fmt.Errorf("failed to rename resume file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *resumeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	scope, err := ownerScope(ctx)
	if err != nil {
		return err
	}

	tag, err := scope.Conn.Exec(ctx,
		`DELETE FROM resume_files WHERE id = $1 AND owner_id = $2`,
		id, scope.Owner.String())
	if err != nil {
		return fmt.Errorf("failed to delete resume file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
