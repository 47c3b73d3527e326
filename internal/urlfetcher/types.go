// Package urlfetcher defines the core types and collaborator interfaces
// shared across the ticket minter, fetch queue, result table, fetcher
// pool and RPC handlers.
package urlfetcher

import (
	"context"
	"time"
)

// Ticket identifies a pending or completed fetch. It is a plain
// server-minted counter value, never a UUID, despite the wire message
// being named PendingFetch in homage to the original service.
type Ticket uint64

// Error codes carried on a Response. Zero always means success; every
// other value is opaque to callers and only distinguishes failure
// classes for logging and metrics.
const (
	// ErrCodeNone indicates the fetch completed and the server received
	// a response (any status code, including 4xx/5xx) from the origin.
	ErrCodeNone int32 = 0
	// ErrCodeTransport covers DNS failures, connection refusals, and any
	// other network-level failure that is not specifically a timeout.
	ErrCodeTransport int32 = 1
	// ErrCodeTimeout indicates the fetch did not complete within the
	// configured per-request timeout.
	ErrCodeTimeout int32 = 2
	// ErrCodeClientInit is reserved for a fetch whose HTTP client could
	// not be constructed. No Fetcher in this module returns it:
	// httpfetch builds its client once at startup, and the server exits
	// if that fails, so an init failure never yields a Response at all
	// (see DESIGN.md).
	ErrCodeClientInit int32 = 99
)

// FetchJob is the unit of work placed on the fetch queue: a ticket
// paired with the URL a worker must GET.
type FetchJob struct {
	Ticket Ticket
	URL    string
}

// Response is the result of fetching a single URL. Header and Body are
// raw bytes exactly as received; no parsing beyond capture is performed.
// If ErrorCode is non-zero, Header and Body are always empty.
type Response struct {
	Header    []byte
	Body      []byte
	ErrorCode int32
}

// Fetcher performs a single synchronous HTTP GET against url, following
// redirects, enforcing timeout, and returning the raw response. It never
// returns a Go error for ordinary transport failures — those are
// reported through Response.ErrorCode so they can be delivered to the
// client as data rather than as an RPC failure.
type Fetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) Response
}

// AuditSink optionally records metadata about a completed fetch for
// operational visibility. It never gates ticket resolution: callers
// fire-and-forget into it after the result table has already been
// published to.
type AuditSink interface {
	RecordFetch(ctx context.Context, ticket Ticket, url string, resp Response, fetchedAt time.Time, duration time.Duration) error
	Close() error
}

// ArchiveSink optionally persists a completed response body for later
// inspection, keyed by content hash.
type ArchiveSink interface {
	Archive(ctx context.Context, hash string, body []byte) (uri string, err error)
}

// Notifier optionally publishes a completion event once a fetch result
// lands in the result table.
type Notifier interface {
	Notify(ctx context.Context, ticket Ticket, url string, resp Response) error
	Close() error
}

// Hasher computes a content digest, used to key archived bodies.
type Hasher interface {
	Hash(data []byte) string
}

// Clock returns the current time; abstracted for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator produces correlation identifiers for structured logging,
// one per RPC stream.
type IDGenerator interface {
	NewID() string
}
