// Package auditsink provides urlfetcher.AuditSink implementations.
package auditsink

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"urlfetcher/internal/urlfetcher"
)

// pgxIface is the subset of pgxpool.Pool's method set Postgres needs,
// narrow enough that pgxmock.PgxPoolIface satisfies it in tests.
type pgxIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

// Postgres implements urlfetcher.AuditSink by recording one row per
// completed fetch into the fetch_audit table.
type Postgres struct {
	pool pgxIface
}

// NewPostgres opens a connection pool against dsn and returns a ready
// Postgres sink.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("auditsink: create connection pool: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// NewPostgresWithPool wraps an already-constructed pool, letting tests
// inject a pgxmock.PgxPoolIface in place of a live connection.
func NewPostgresWithPool(pool pgxIface) *Postgres {
	return &Postgres{pool: pool}
}

// RecordFetch inserts an audit row for ticket. It is called after the
// result table has already published, so a failure here never affects
// ResolveFetch's outcome.
func (s *Postgres) RecordFetch(ctx context.Context, ticket urlfetcher.Ticket, url string, resp urlfetcher.Response, fetchedAt time.Time, duration time.Duration) error {
	const query = `
		INSERT INTO fetch_audit (ticket, url, error_code, header_bytes, body_bytes, fetched_at, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (ticket) DO NOTHING;
	`
	_, err := s.pool.Exec(ctx, query,
		int64(ticket), url, resp.ErrorCode, len(resp.Header), len(resp.Body), fetchedAt, duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("auditsink: insert fetch_audit row: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}
