// Package fetchpool runs a fixed-size set of workers that pull jobs
// off the fetch queue, perform the HTTP fetch, and publish the result.
package fetchpool

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"urlfetcher/internal/clock/system"
	"urlfetcher/internal/fetchqueue"
	"urlfetcher/internal/metrics"
	"urlfetcher/internal/resulttable"
	"urlfetcher/internal/urlfetcher"
)

// DefaultSize is the default worker count, matching the source
// implementation's fixed thread pool.
const DefaultSize = 16

// DefaultFetchTimeout bounds a single fetch, matching the source
// implementation's curl timeout.
const DefaultFetchTimeout = 60 * time.Second

// DequeuePollInterval bounds how long a worker blocks waiting for a
// job before re-checking for shutdown.
const DequeuePollInterval = 200 * time.Millisecond

// Pool owns a fixed set of worker goroutines fetching from queue and
// publishing into table.
type Pool struct {
	size         int
	fetcher      urlfetcher.Fetcher
	queue        *fetchqueue.Queue
	table        *resulttable.Table
	fetchTimeout time.Duration
	logger       *zap.Logger

	auditSink   urlfetcher.AuditSink
	archiveSink urlfetcher.ArchiveSink
	notifier    urlfetcher.Notifier
	hasher      urlfetcher.Hasher
	clock       urlfetcher.Clock

	wg sync.WaitGroup
}

// Option configures optional Pool collaborators.
type Option func(*Pool)

// WithAuditSink attaches an AuditSink invoked after every publish.
func WithAuditSink(s urlfetcher.AuditSink) Option {
	return func(p *Pool) { p.auditSink = s }
}

// WithArchiveSink attaches an ArchiveSink invoked for successful
// fetches, keyed by the configured Hasher.
func WithArchiveSink(s urlfetcher.ArchiveSink, h urlfetcher.Hasher) Option {
	return func(p *Pool) {
		p.archiveSink = s
		p.hasher = h
	}
}

// WithNotifier attaches a Notifier invoked after every publish.
func WithNotifier(n urlfetcher.Notifier) Option {
	return func(p *Pool) { p.notifier = n }
}

// WithClock overrides the Pool's time source; defaults to time.Now.
func WithClock(c urlfetcher.Clock) Option {
	return func(p *Pool) { p.clock = c }
}

// WithFetchTimeout overrides DefaultFetchTimeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(p *Pool) { p.fetchTimeout = d }
}

// New constructs a Pool of size workers. size <= 0 falls back to
// DefaultSize.
func New(size int, fetcher urlfetcher.Fetcher, queue *fetchqueue.Queue, table *resulttable.Table, logger *zap.Logger, opts ...Option) *Pool {
	metrics.Init()
	if size <= 0 {
		size = DefaultSize
	}
	p := &Pool{
		size:         size,
		fetcher:      fetcher,
		queue:        queue,
		table:        table,
		fetchTimeout: DefaultFetchTimeout,
		logger:       logger,
		clock:        system.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches size worker goroutines. Each worker runs until ctx is
// done, observing cancellation within DequeuePollInterval.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.runWorker(ctx, id)
		}(i)
	}
}

// Join blocks until every worker goroutine has returned, which happens
// only after ctx is done and the worker observes it.
func (p *Pool) Join() {
	p.wg.Wait()
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	log := p.logger.With(zap.Int("worker_id", id))
	for {
		select {
		case <-ctx.Done():
			log.Debug("worker stopping: context done")
			return
		default:
		}

		job, ok := p.queue.DequeueWithTimeout(DequeuePollInterval)
		if !ok {
			continue
		}
		metrics.SetQueueDepth(p.queue.Len())

		p.handle(ctx, job, log)
	}
}

func (p *Pool) handle(ctx context.Context, job urlfetcher.FetchJob, log *zap.Logger) {
	metrics.IncInFlightFetches()
	defer metrics.DecInFlightFetches()

	// Fetch runs on its own timeout, not the worker-loop's shutdown ctx:
	// once dispatched, a request is allowed to finish (or time out on
	// its own budget) rather than being cut short by shutdown.
	fetchCtx, cancel := context.WithTimeout(context.Background(), p.fetchTimeout)
	start := p.clock.Now()
	resp := p.fetcher.Fetch(fetchCtx, job.URL, p.fetchTimeout)
	cancel()
	duration := p.clock.Now().Sub(start)
	metrics.ObserveFetch(resp.ErrorCode, duration)

	if !p.table.Publish(job.Ticket, resp) {
		log.Warn("duplicate publish for ticket, keeping first result",
			zap.Uint64("ticket", uint64(job.Ticket)))
	}

	log.Debug("fetch complete",
		zap.Uint64("ticket", uint64(job.Ticket)),
		zap.String("url", job.URL),
		zap.Int32("error_code", resp.ErrorCode),
		zap.Duration("duration", duration))

	p.fireSinks(ctx, job, resp, start, duration, log)
}

func (p *Pool) fireSinks(ctx context.Context, job urlfetcher.FetchJob, resp urlfetcher.Response, fetchedAt time.Time, duration time.Duration, log *zap.Logger) {
	if p.auditSink != nil {
		if err := p.auditSink.RecordFetch(ctx, job.Ticket, job.URL, resp, fetchedAt, duration); err != nil {
			log.Warn("audit sink record failed", zap.Error(err))
		}
	}
	if p.archiveSink != nil && p.hasher != nil && resp.ErrorCode == urlfetcher.ErrCodeNone {
		hash := p.hasher.Hash(resp.Body)
		if _, err := p.archiveSink.Archive(ctx, hash, resp.Body); err != nil {
			log.Warn("archive sink write failed", zap.Error(err))
		}
	}
	if p.notifier != nil {
		if err := p.notifier.Notify(ctx, job.Ticket, job.URL, resp); err != nil {
			log.Warn("notifier publish failed", zap.Error(err))
		}
	}
}
