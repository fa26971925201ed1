package database

import (
	"context"

	"github.com/coldconnect/coldconnect-engine/pkg/models"
)

type contextKey string

const (
	// OwnerScopeKey is the context key for the owner-scoped connection.
	OwnerScopeKey contextKey = "ownerScope"
)

// GetOwnerScope retrieves the owner-scoped connection from context.
func GetOwnerScope(ctx context.Context) (*OwnerScope, bool) {
	scope, ok := ctx.Value(OwnerScopeKey).(*OwnerScope)
	return scope, ok
}

// SetOwnerScope stores the owner-scoped connection in context.
func SetOwnerScope(ctx context.Context, scope *OwnerScope) context.Context {
	return context.WithValue(ctx, OwnerScopeKey, scope)
}

// OwnerScopeProvider creates owner-scoped contexts outside HTTP middleware,
// for example in MCP tools and background imports.
type OwnerScopeProvider struct {
	db *DB
}

// NewOwnerScopeProvider creates an OwnerScopeProvider for db.
func NewOwnerScopeProvider(db *DB) *OwnerScopeProvider {
	return &OwnerScopeProvider{db: db}
}

// WithOwnerScope returns a context carrying a connection scoped to owner.
// The cleanup function must be called when the scope is no longer needed.
func (p *OwnerScopeProvider) WithOwnerScope(ctx context.Context, owner models.OwnerID) (context.Context, func(), error) {
	scope, err := p.db.WithOwner(ctx, owner)
	if err != nil {
		return nil, nil, err
	}
	return SetOwnerScope(ctx, scope), scope.Close, nil
}
