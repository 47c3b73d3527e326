// Package resulttable holds per-ticket fetch results and lets callers
// block for completion without polling. Every ticket is pre-registered
// at mint time, before the corresponding job ever reaches the fetch
// queue, so a ResolveFetch call racing ahead of the worker that will
// satisfy it always finds a valid entry to wait on.
package resulttable

import (
	"context"
	"errors"
	"sync"

	"urlfetcher/internal/urlfetcher"
)

// ErrUnknownTicket is returned when a ticket was never registered, or
// has already been taken and reaped from the table.
var ErrUnknownTicket = errors.New("resulttable: unknown ticket")

// ErrAlreadyTaken is returned by Take when the caller races another
// Take for the same ticket. Duplicate resolution fails fast rather
// than silently handing out a cached copy of the result.
var ErrAlreadyTaken = errors.New("resulttable: ticket already taken")

// ErrClosed is returned by Take when the table has been closed, and by
// Register when new registrations are no longer accepted.
var ErrClosed = errors.New("resulttable: table closed")

type entry struct {
	ready  chan struct{}
	resp   urlfetcher.Response
	taken  bool
	pub    bool // true once Publish has stored resp; lets Take tell Publish from Close
	fired  bool // true once ready has been closed, by either Publish or Close
}

// Table is a concurrency-safe map from Ticket to eventual Response,
// with channel-based completion signaling in place of the source
// implementation's exponential-backoff poll loop.
type Table struct {
	mu     sync.Mutex
	rows   map[urlfetcher.Ticket]*entry
	closed bool
}

// New constructs an empty Table.
func New() *Table {
	return &Table{rows: make(map[urlfetcher.Ticket]*entry)}
}

// Register pre-allocates a pending entry for ticket. It must be called
// exactly once per ticket, before the ticket is handed to the caller,
// so that Take never races the entry's own creation.
func (t *Table) Register(ticket urlfetcher.Ticket) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	t.rows[ticket] = &entry{ready: make(chan struct{})}
	return nil
}

// Publish records resp as the result for ticket and wakes any waiters.
// A second Publish for the same ticket is a bug in the caller; it
// returns false, the caller logs a warning, and the entry keeps its
// first value (the second response is discarded, not written over the
// first). Publish for an unregistered ticket also returns false and
// stores nothing. Firing ready is decided under the
// same lock Close uses, so the two can never both close it.
func (t *Table) Publish(ticket urlfetcher.Ticket, resp urlfetcher.Response) (firstPublish bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.rows[ticket]
	if !ok || e.fired {
		return false
	}
	e.pub = true
	e.resp = resp
	e.fired = true
	close(e.ready)
	return true
}

// Take blocks until ticket's result is published, ctx is done, or the
// table is closed, then atomically removes the ticket from the table
// so that exactly one caller ever receives its result. A second Take
// for the same ticket — whether concurrent or subsequent — fails fast
// with ErrAlreadyTaken or ErrUnknownTicket rather than blocking or
// replaying a stale value.
func (t *Table) Take(ctx context.Context, ticket urlfetcher.Ticket) (urlfetcher.Response, error) {
	t.mu.Lock()
	e, ok := t.rows[ticket]
	t.mu.Unlock()
	if !ok {
		return urlfetcher.Response{}, ErrUnknownTicket
	}

	select {
	case <-e.ready:
	case <-ctx.Done():
		return urlfetcher.Response{}, ctx.Err()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if !e.pub {
		return urlfetcher.Response{}, ErrClosed
	}
	if e.taken {
		return urlfetcher.Response{}, ErrAlreadyTaken
	}
	e.taken = true
	delete(t.rows, ticket)
	return e.resp, nil
}

// Close marks the table closed: pending Register calls fail, and every
// Take blocked on an entry that never published returns ErrClosed.
// Entries that already published are left reachable so in-flight Take
// calls racing shutdown still observe their real result.
func (t *Table) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	for _, e := range t.rows {
		if !e.fired {
			e.fired = true
			close(e.ready)
		}
	}
}

// Len reports the number of tickets currently tracked, for metrics.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows)
}
