package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coldconnect/coldconnect-engine/pkg/models"
)

// OwnerScope wraps a connection with app.current_owner set for row-level
// security. Close must be called to reset the setting before the connection
// returns to the pool.
type OwnerScope struct {
	Conn  *pgxpool.Conn
	Owner models.OwnerID
}

// Close resets the owner setting and releases the connection.
func (s *OwnerScope) Close() {
	if s.Conn == nil {
		return
	}
	_, _ = s.Conn.Exec(context.Background(), "RESET app.current_owner")
	s.Conn.Release()
}

// WithOwner acquires a connection scoped to owner.
// The returned OwnerScope MUST be closed with defer scope.Close().
func (db *DB) WithOwner(ctx context.Context, owner models.OwnerID) (*OwnerScope, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("owner is required for a scoped connection")
	}

	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	_, err = conn.Exec(ctx, "SELECT set_config('app.current_owner', $1, false)", owner.String())
	if err != nil {
		conn.Release()
		return nil, err
	}

	return &OwnerScope{Conn: conn, Owner: owner}, nil
}
