// Package database manages the Postgres connection pool, owner-scoped
// connections and schema migrations.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/coldconnect/coldconnect-engine/pkg/logging"
	"github.com/coldconnect/coldconnect-engine/pkg/retry"
)

// DB wraps a pgxpool connection pool.
type DB struct {
	*pgxpool.Pool
}

// Config holds database connection configuration.
type Config struct {
	URL             string
	MaxConnections  int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// NewConnection creates a connection pool and verifies it with a ping.
func NewConnection(ctx context.Context, cfg *Config) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConnections
	if poolConfig.MaxConns == 0 {
		poolConfig.MaxConns = 25
	}
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	if poolConfig.MaxConnLifetime == 0 {
		poolConfig.MaxConnLifetime = time.Hour
	}
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	if poolConfig.MaxConnIdleTime == 0 {
		poolConfig.MaxConnIdleTime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// ConnectWithRetry calls NewConnection until it succeeds or the retry budget
// is spent. Postgres commonly starts after the engine in compose setups.
func ConnectWithRetry(ctx context.Context, cfg *Config, retryCfg *retry.Config, logger *zap.Logger) (*DB, error) {
	attempt := 0
	return retry.DoWithResult(ctx, retryCfg, func() (*DB, error) {
		attempt++
		db, err := NewConnection(ctx, cfg)
		if err != nil {
			logger.Warn("Database not ready",
				zap.Int("attempt", attempt),
				zap.String("url", logging.SanitizeConnectionString(cfg.URL)),
				zap.String("error", logging.SanitizeError(err)))
		}
		return db, err
	})
}

// Close closes the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}
