package fetchpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"urlfetcher/internal/fetchqueue"
	"urlfetcher/internal/resulttable"
	"urlfetcher/internal/urlfetcher"
)

type fakeFetcher struct {
	calls int32
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string, timeout time.Duration) urlfetcher.Response {
	atomic.AddInt32(&f.calls, 1)
	return urlfetcher.Response{Body: []byte("body:" + url)}
}

type recordingAuditSink struct {
	mu      sync.Mutex
	tickets []urlfetcher.Ticket
}

func (s *recordingAuditSink) RecordFetch(ctx context.Context, ticket urlfetcher.Ticket, url string, resp urlfetcher.Response, fetchedAt time.Time, duration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets = append(s.tickets, ticket)
	return nil
}

func (s *recordingAuditSink) Close() error { return nil }

type failingNotifier struct{}

func (failingNotifier) Notify(ctx context.Context, ticket urlfetcher.Ticket, url string, resp urlfetcher.Response) error {
	return errors.New("boom")
}

func (failingNotifier) Close() error { return nil }

func TestPool_ProcessesJobsAndPublishesResults(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{}
	queue := fetchqueue.New()
	table := resulttable.New()
	sink := &recordingAuditSink{}

	pool := New(4, fetcher, queue, table, zap.NewNop(), WithAuditSink(sink))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	for i := 1; i <= 10; i++ {
		require.NoError(t, table.Register(urlfetcher.Ticket(i)))
		queue.Enqueue(urlfetcher.FetchJob{Ticket: urlfetcher.Ticket(i), URL: "http://example.com"})
	}

	for i := 1; i <= 10; i++ {
		resp, err := table.Take(context.Background(), urlfetcher.Ticket(i))
		require.NoError(t, err)
		require.Equal(t, "body:http://example.com", string(resp.Body))
	}

	cancel()
	pool.Join()

	sink.mu.Lock()
	require.Len(t, sink.tickets, 10)
	sink.mu.Unlock()
}

func TestPool_ToleratesFailingNotifierWithoutBlockingPublish(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{}
	queue := fetchqueue.New()
	table := resulttable.New()

	pool := New(2, fetcher, queue, table, zap.NewNop(), WithNotifier(failingNotifier{}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	require.NoError(t, table.Register(1))
	queue.Enqueue(urlfetcher.FetchJob{Ticket: 1, URL: "http://example.com"})

	resp, err := table.Take(context.Background(), 1)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Body)

	cancel()
	pool.Join()
}

func TestPool_StopsWorkersWhenContextCancelled(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{}
	queue := fetchqueue.New()
	table := resulttable.New()

	pool := New(3, fetcher, queue, table, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	cancel()

	joined := make(chan struct{})
	go func() {
		pool.Join()
		close(joined)
	}()

	select {
	case <-joined:
	case <-time.After(2 * time.Second):
		t.Fatal("workers did not join within 2s of cancellation")
	}
}
