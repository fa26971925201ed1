package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/coldconnect/coldconnect-engine/pkg/apperrors"
	"github.com/coldconnect/coldconnect-engine/pkg/models"
	"github.com/coldconnect/coldconnect-engine/pkg/repositories"
)

// UserService manages the profile of the signed-in user.
type UserService interface {
	// Sync creates the user on first sign-in. An existing record keeps its
	// profile and only takes a non-empty name.
	Sync(ctx context.Context, owner models.OwnerID, name string) (*models.User, error)
	Get(ctx context.Context, owner models.OwnerID) (*models.User, error)
	UpdateProfile(ctx context.Context, owner models.OwnerID, update *models.UserProfileUpdate) (*models.User, error)
	// OnboardingStatus is false when no user record exists yet.
	OnboardingStatus(ctx context.Context, owner models.OwnerID) (bool, error)
}

type userService struct {
	repo   repositories.UserRepository
	logger *zap.Logger
}

var _ UserService = (*userService)(nil)

// NewUserService creates a user service.
func NewUserService(repo repositories.UserRepository, logger *zap.Logger) UserService {
	return &userService{
		repo:   repo,
		logger: logger.Named("users"),
	}
}

func (s *userService) Sync(ctx context.Context, owner models.OwnerID, name string) (*models.User, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("%w: owner is required", apperrors.ErrInvalidInput)
	}

	user, err := s.repo.Upsert(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("sync user: %w", err)
	}

	s.logger.Debug("User synced", zap.String("owner", owner.String()))
	return user, nil
}

func (s *userService) Get(ctx context.Context, owner models.OwnerID) (*models.User, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("%w: owner is required", apperrors.ErrInvalidInput)
	}
	return s.repo.Get(ctx)
}

func (s *userService) UpdateProfile(ctx context.Context, owner models.OwnerID, update *models.UserProfileUpdate) (*models.User, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("%w: owner is required", apperrors.ErrInvalidInput)
	}
	if update == nil || update.IsEmpty() {
		return nil, fmt.Errorf("%w: no profile fields to update", apperrors.ErrInvalidInput)
	}

	trimmed := trimProfileUpdate(update)
	if trimmed.Name != nil && *trimmed.Name == "" {
		return nil, fmt.Errorf("%w: name cannot be blank", apperrors.ErrInvalidInput)
	}

	user, err := s.repo.Update(ctx, trimmed)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.logger.Info("Profile updated",
		zap.String("owner", owner.String()),
		zap.Bool("has_onboarded", user.HasOnboarded))
	return user, nil
}

func (s *userService) OnboardingStatus(ctx context.Context, owner models.OwnerID) (bool, error) {
	user, err := s.Get(ctx, owner)
	if errors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.HasOnboarded, nil
}

func trimProfileUpdate(update *models.UserProfileUpdate) *models.UserProfileUpdate {
	trim := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := strings.TrimSpace(*s)
		return &v
	}
	return &models.UserProfileUpdate{
		Name:         trim(update.Name),
		ResumeURL:    trim(update.ResumeURL),
		GitHubURL:    trim(update.GitHubURL),
		PortfolioURL: trim(update.PortfolioURL),
		LinkedInURL:  trim(update.LinkedInURL),
		HasOnboarded: update.HasOnboarded,
	}
}
