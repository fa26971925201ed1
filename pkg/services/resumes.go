package services

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coldconnect/coldconnect-engine/pkg/apperrors"
	"github.com/coldconnect/coldconnect-engine/pkg/models"
	"github.com/coldconnect/coldconnect-engine/pkg/repositories"
)

// DefaultMaxResumeBytes is used when no upload limit is configured.
const DefaultMaxResumeBytes = 5 << 20

// ResumeService stores résumé files. The context must carry an owner scope
// for owner.
type ResumeService interface {
	// Upload rejects empty, oversized and non PDF/DOC/DOCX files.
	Upload(ctx context.Context, owner models.OwnerID, fileName, contentType string, data []byte) (*models.ResumeFile, error)
	Get(ctx context.Context, owner models.OwnerID, id uuid.UUID) (*models.ResumeFile, error)
	List(ctx context.Context, owner models.OwnerID) ([]*models.ResumeFile, error)
	Rename(ctx context.Context, owner models.OwnerID, id uuid.UUID, fileName string) error
	Delete(ctx context.Context, owner models.OwnerID, id uuid.UUID) error
}

type resumeService struct {
	repo     repositories.ResumeRepository
	maxBytes int64
	logger   *zap.Logger
}

var _ ResumeService = (*resumeService)(nil)

// NewResumeService creates a résumé service. maxBytes <= 0 uses
// DefaultMaxResumeBytes.
func NewResumeService(repo repositories.ResumeRepository, maxBytes int64, logger *zap.Logger) ResumeService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxResumeBytes
	}
	return &resumeService{
		repo:     repo,
		maxBytes: maxBytes,
		logger:   logger.Named("resumes"),
	}
}

func (s *resumeService) Upload(ctx context.Context, owner models.OwnerID, fileName, contentType string, data []byte) (*models.ResumeFile, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("%w: owner is required", apperrors.ErrInvalidInput)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: file is empty", apperrors.ErrInvalidInput)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", apperrors.ErrInvalidInput, s.maxBytes)
	}

	name, err := cleanFileName(fileName)
	if err != nil {
		return nil, err
	}

	resolved := resolveContentType(name, contentType)
	if !models.IsAcceptedResumeType(resolved) {
		return nil, fmt.Errorf("%w: unsupported file type %q", apperrors.ErrInvalidInput, contentType)
	}

	file := &models.ResumeFile{
		FileName:    name,
		ContentType: resolved,
		Data:        data,
	}
	if err := s.repo.Create(ctx, file); err != nil {
		return nil, fmt.Errorf("store resume: %w", err)
	}

	s.logger.Info("Resume uploaded",
		zap.String("resume_id", file.ID.String()),
		zap.String("content_type", resolved),
		zap.Int64("size", file.Size))
	return file, nil
}

func (s *resumeService) Get(ctx context.Context, owner models.OwnerID, id uuid.UUID) (*models.ResumeFile, error) {
	file, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if file.Owner != owner {
		return nil, apperrors.ErrNotFound
	}
	return file, nil
}

func (s *resumeService) List(ctx context.Context, owner models.OwnerID) ([]*models.ResumeFile, error) {
	files, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	owned := make([]*models.ResumeFile, 0, len(files))
	for _, f := range files {
		if f.Owner == owner {
			owned = append(owned, f)
		}
	}
	return owned, nil
}

func (s *resumeService) Rename(ctx context.Context, owner models.OwnerID, id uuid.UUID, fileName string) error {
	name, err := cleanFileName(fileName)
	if err != nil {
		return err
	}
	if _, err := s.Get(ctx, owner, id); err != nil {
		return err
	}
	return s.repo.Rename(ctx, id, name)
}

func (s *resumeService) Delete(ctx context.Context, owner models.OwnerID, id uuid.UUID) error {
	if _, err := s.Get(ctx, owner, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Resume deleted", zap.String("resume_id", id.String()))
	return nil
}

// cleanFileName strips any directory part a browser may send.
func cleanFileName(fileName string) (string, error) {
	name := strings.TrimSpace(filepath.Base(strings.ReplaceAll(fileName, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("%w: file name is required", apperrors.ErrInvalidInput)
	}
	return name, nil
}

// resolveContentType drops media type parameters and falls back to the file
// extension when the client sent a generic type.
func resolveContentType(fileName, contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err == nil && mediaType != "application/octet-stream" {
		return mediaType
	}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return models.ContentTypePDF
	case ".doc":
		return models.ContentTypeDOC
	case ".docx":
		return models.ContentTypeDOCX
	}
	return mediaType
}
