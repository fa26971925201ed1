// Package auth validates JWTs issued by the identity provider and exposes the
// authenticated owner to handlers.
package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"

	"github.com/coldconnect/coldconnect-engine/pkg/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsKey is the context key for storing JWT claims.
	ClaimsKey contextKey = "claims"
	// TokenKey is the context key for storing the raw JWT token string.
	TokenKey contextKey = "token"
)

// Claims is the JWT payload. The email claim identifies the owner of every
// record the request touches.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Owner returns the normalized owner for the email claim.
func (c *Claims) Owner() (models.OwnerID, error) {
	owner, ok := models.NewOwnerID(c.Email)
	if !ok {
		return models.OwnerID{}, ErrMissingEmail
	}
	return owner, nil
}

// WithClaims stores claims and the raw token in ctx.
func WithClaims(ctx context.Context, claims *Claims, token string) context.Context {
	ctx = context.WithValue(ctx, ClaimsKey, claims)
	return context.WithValue(ctx, TokenKey, token)
}

// GetClaims retrieves JWT claims from the request context.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok && claims != nil
}

// GetToken retrieves the raw JWT from the request context.
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

// OwnerFromContext returns the authenticated owner, or ErrMissingAuthorization
// / ErrMissingEmail when the request carries no usable identity.
func OwnerFromContext(ctx context.Context) (models.OwnerID, error) {
	claims, ok := GetClaims(ctx)
	if !ok {
		return models.OwnerID{}, ErrMissingAuthorization
	}
	return claims.Owner()
}
