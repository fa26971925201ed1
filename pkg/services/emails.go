package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coldconnect/coldconnect-engine/pkg/adapters/gmail"
	"github.com/coldconnect/coldconnect-engine/pkg/apperrors"
	"github.com/coldconnect/coldconnect-engine/pkg/logging"
	"github.com/coldconnect/coldconnect-engine/pkg/models"
	"github.com/coldconnect/coldconnect-engine/pkg/repositories"
)

// MailSender delivers a message on behalf of the user holding accessToken.
type MailSender interface {
	Send(ctx context.Context, accessToken string, msg gmail.Message) (string, error)
}

// EmailService manages outreach emails. The context must carry an owner
// scope for owner.
type EmailService interface {
	Create(ctx context.Context, owner models.OwnerID, fields models.EmailFields) (*models.Email, error)
	// ListByOwner returns the owner's emails, newest first.
	ListByOwner(ctx context.Context, owner models.OwnerID) ([]*models.Email, error)
	Generate(ctx context.Context, owner models.OwnerID, req EmailGenerationRequest) (*models.EmailDraft, error)
	// Send delivers a stored email and records the outcome as sent or failed.
	Send(ctx context.Context, owner models.OwnerID, emailID uuid.UUID, accessToken string) (*models.Email, error)
}

type emailService struct {
	repo      repositories.EmailRepository
	generator EmailGenerator
	sender    MailSender
	timeout   time.Duration
	logger    *zap.Logger
}

var _ EmailService = (*emailService)(nil)

// NewEmailService creates an email service. timeout bounds each generation
// call; zero disables the bound.
func NewEmailService(repo repositories.EmailRepository, generator EmailGenerator, sender MailSender, timeout time.Duration, logger *zap.Logger) EmailService {
	return &emailService{
		repo:      repo,
		generator: generator,
		sender:    sender,
		timeout:   timeout,
		logger:    logger.Named("emails"),
	}
}

func (s *emailService) Create(ctx context.Context, owner models.OwnerID, fields models.EmailFields) (*models.Email, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("%w: owner is required", apperrors.ErrInvalidInput)
	}

	status := fields.Status
	if status == "" {
		status = models.EmailStatusDraft
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: invalid email status %q", apperrors.ErrInvalidInput, status)
	}

	email := &models.Email{
		Subject:        strings.TrimSpace(fields.Subject),
		Content:        fields.Content,
		JobTitle:       strings.TrimSpace(fields.JobTitle),
		Company:        strings.TrimSpace(fields.Company),
		RecipientEmail: strings.TrimSpace(fields.RecipientEmail),
		Status:         status,
	}
	if err := s.repo.Create(ctx, email); err != nil {
		return nil, fmt.Errorf("create email: %w", err)
	}

	s.logger.Info("Email saved",
		zap.String("email_id", email.ID.String()),
		zap.String("status", string(email.Status)))
	return email, nil
}

func (s *emailService) ListByOwner(ctx context.Context, owner models.OwnerID) ([]*models.Email, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("%w: owner is required", apperrors.ErrInvalidInput)
	}
	emails, err := s.repo.ListByOwner(ctx)
	if err != nil {
		return nil, err
	}

	owned := make([]*models.Email, 0, len(emails))
	for _, e := range emails {
		if e.CreatedBy == owner {
			owned = append(owned, e)
		}
	}
	return owned, nil
}

func (s *emailService) Generate(ctx context.Context, owner models.OwnerID, req EmailGenerationRequest) (*models.EmailDraft, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("%w: owner is required", apperrors.ErrInvalidInput)
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.generator.Generate(ctx, owner, req)
}

func (s *emailService) Send(ctx context.Context, owner models.OwnerID, emailID uuid.UUID, accessToken string) (*models.Email, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("%w: owner is required", apperrors.ErrInvalidInput)
	}
	if strings.TrimSpace(accessToken) == "" {
		return nil, fmt.Errorf("%w: google access token is required", apperrors.ErrInvalidInput)
	}

	email, err := s.repo.Get(ctx, emailID)
	if err != nil {
		return nil, err
	}
	if email.CreatedBy != owner {
		return nil, apperrors.ErrNotFound
	}
	if email.RecipientEmail == "" {
		return nil, fmt.Errorf("%w: email has no recipient", apperrors.ErrInvalidInput)
	}
	if email.Status == models.EmailStatusSent {
		return nil, fmt.Errorf("%w: email already sent", apperrors.ErrConflict)
	}

	messageID, sendErr := s.sender.Send(ctx, accessToken, gmail.Message{
		To:      email.RecipientEmail,
		Subject: email.Subject,
		Body:    email.Content,
	})

	status := models.EmailStatusSent
	if sendErr != nil {
		status = models.EmailStatusFailed
	}
	if err := s.repo.UpdateStatus(ctx, email.ID, status); err != nil {
		s.logger.Error("Failed to record email status",
			zap.String("email_id", email.ID.String()),
			zap.String("status", string(status)),
			zap.Error(err))
		if sendErr == nil {
			return nil, fmt.Errorf("record sent status: %w", err)
		}
	}
	email.Status = status

	if sendErr != nil {
		s.logger.Warn("Email send failed",
			zap.String("email_id", email.ID.String()),
			zap.String("error", logging.SanitizeError(sendErr)))
		return email, fmt.Errorf("%w: %w", apperrors.ErrEmailSendFailed, sendErr)
	}

	s.logger.Info("Email sent",
		zap.String("email_id", email.ID.String()),
		zap.String("message_id", messageID))
	return email, nil
}
