package auth

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// CookieName is the cookie browser clients carry the JWT in.
const CookieName = "coldconnect_jwt"

// Common authentication errors.
var (
	ErrMissingAuthorization = errors.New("missing authorization")
	ErrInvalidAuthFormat    = errors.New("invalid authorization header format")
	ErrMissingEmail         = errors.New("missing email claim in token")
)

// AuthService authenticates HTTP requests.
type AuthService interface {
	// ValidateRequest reads the JWT from the coldconnect_jwt cookie, falling
	// back to an Authorization: Bearer header, and validates it.
	ValidateRequest(r *http.Request) (*Claims, string, error)
}

type authService struct {
	validator TokenValidator
	logger    *zap.Logger
}

var _ AuthService = (*authService)(nil)

// NewAuthService creates an AuthService.
func NewAuthService(validator TokenValidator, logger *zap.Logger) AuthService {
	return &authService{
		validator: validator,
		logger:    logger,
	}
}

func (s *authService) ValidateRequest(r *http.Request) (*Claims, string, error) {
	tokenString, source, err := extractToken(r)
	if err != nil {
		s.logger.Debug("No usable JWT in request",
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method),
			zap.Error(err))
		return nil, "", err
	}

	claims, err := s.validator.ValidateToken(r.Context(), tokenString)
	if err != nil {
		s.logger.Debug("JWT validation failed",
			zap.Error(err),
			zap.String("path", r.URL.Path),
			zap.String("token_source", source))
		return nil, "", err
	}

	return claims, tokenString, nil
}

func extractToken(r *http.Request) (token, source string, err error) {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value, "cookie", nil
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return "", "", ErrMissingAuthorization
	}

	scheme, value, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(value) == "" {
		return "", "", ErrInvalidAuthFormat
	}
	return strings.TrimSpace(value), "header", nil
}
