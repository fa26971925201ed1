// Package repositories provides Postgres data access for owner-scoped records.
// Every method expects an owner-scoped connection in the context
// (see database.WithOwnerContext) and filters by that owner explicitly in
// addition to the row-level security policies.
package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/coldconnect/coldconnect-engine/pkg/apperrors"
	"github.com/coldconnect/coldconnect-engine/pkg/database"
)

var errNoOwnerScope = errors.New("no owner scope in context")

func ownerScope(ctx context.Context) (*database.OwnerScope, error) {
	scope, ok := database.GetOwnerScope(ctx)
	if !ok || scope.Owner.IsZero() {
		return nil, errNoOwnerScope
	}
	return scope, nil
}

// notFoundOr maps pgx.ErrNoRows to apperrors.ErrNotFound and wraps anything else.
func notFoundOr(err error, action string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
