// Package db persists candles, orders and trades to PostgreSQL. The
// trading loop works without it; every caller treats the store as optional.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// PoolInterface defines the pool operations the store needs. pgxpool.Pool
// satisfies it in production, pgxmock in tests.
type PoolInterface interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Store wraps the PostgreSQL connection pool
type Store struct {
	pool PoolInterface
}

// New creates a store backed by a new connection pool.
func New(ctx context.Context, databaseURL string, poolSize int) (*Store, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is not set")
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	if poolSize > 0 {
		cfg.MaxConns = int32(poolSize)
	}
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute
	cfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Database connection pool created")

	return &Store{pool: pool}, nil
}

// NewWithPool creates a store over an existing pool. Tests use this with
// pgxmock.
func NewWithPool(pool PoolInterface) *Store {
	return &Store{pool: pool}
}

// Close closes the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
		log.Info().Msg("Database connection pool closed")
	}
}

// Health checks database connectivity
func (s *Store) Health(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
