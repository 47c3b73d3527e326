// Package sinks provides no-op defaults for the optional
// AuditSink/ArchiveSink/Notifier collaborators, used whenever an
// operator has not configured a real backing store. Unlike the
// headless fetcher's Noop (which signals "not configured" as an
// error because callers require a real result), these sinks are
// pure operational visibility hooks: doing nothing is a legitimate,
// successful outcome.
package sinks

import (
	"context"
	"time"

	"urlfetcher/internal/urlfetcher"
)

// NoOpAuditSink discards every RecordFetch call.
type NoOpAuditSink struct{}

func (NoOpAuditSink) RecordFetch(context.Context, urlfetcher.Ticket, string, urlfetcher.Response, time.Time, time.Duration) error {
	return nil
}

func (NoOpAuditSink) Close() error { return nil }

// NoOpArchiveSink never persists a body and reports no URI.
type NoOpArchiveSink struct{}

func (NoOpArchiveSink) Archive(context.Context, string, []byte) (string, error) {
	return "", nil
}

// NoOpNotifier discards every Notify call.
type NoOpNotifier struct{}

func (NoOpNotifier) Notify(context.Context, urlfetcher.Ticket, string, urlfetcher.Response) error {
	return nil
}

func (NoOpNotifier) Close() error { return nil }
