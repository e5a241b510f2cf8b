package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rezkam/cashflow/internal/application/finance"
)

// dbtx is the subset of pgx shared by the pool and a transaction.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides the PostgreSQL implementation of finance.Repository.
//
// Recurrence descriptors are stored whole as JSONB. The dates that listing
// and projection queries filter on are copied into plain DATE columns.
type Store struct {
	pool *pgxpool.Pool
	db   dbtx
}

// Compile-time verification that Store implements the repository interface.
var _ finance.Repository = (*Store)(nil)

// NewStore creates a new PostgreSQL store with the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
		db:   pool,
	}
}

// Pool returns the underlying connection pool.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Close closes the database connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// inTx runs fn against a store bound to one transaction. pgx commits when fn
// returns nil and rolls back otherwise, panics included.
func (s *Store) inTx(ctx context.Context, operation string, fn func(tx *Store) error) error {
	start := time.Now()
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&Store{pool: s.pool, db: tx})
	})
	if err != nil {
		slog.DebugContext(ctx, "transaction rolled back", "operation", operation, "error", err)
		return err
	}
	slog.DebugContext(ctx, "transaction committed",
		"operation", operation,
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}
