// Package rpc implements the two RequestFetch/ResolveFetch stream
// handlers that mediate between rpcapi clients and the ticket minter,
// fetch queue, and result table.
package rpc

import (
	"errors"
	"io"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"urlfetcher/internal/fetchqueue"
	"urlfetcher/internal/metrics"
	"urlfetcher/internal/resulttable"
	"urlfetcher/internal/rpcapi"
	"urlfetcher/internal/ticket"
	"urlfetcher/internal/urlfetcher"
)

// Service implements rpcapi.Server against the ticket minter, fetch
// queue, and result table. It holds no other state and performs no
// I/O itself; the fetcher pool is a separate, independently running
// collaborator that drains the same queue and publishes into the same
// table.
type Service struct {
	minter *ticket.Minter
	queue  *fetchqueue.Queue
	table  *resulttable.Table
	ids    urlfetcher.IDGenerator
	logger *zap.Logger
}

// New constructs a Service. minter, queue, and table are shared with
// the fetcher pool started alongside it. ids tags each opened stream
// with a correlation id for structured logs; pass uuid.New() in
// production.
func New(minter *ticket.Minter, queue *fetchqueue.Queue, table *resulttable.Table, ids urlfetcher.IDGenerator, logger *zap.Logger) *Service {
	metrics.Init()
	return &Service{minter: minter, queue: queue, table: table, ids: ids, logger: logger}
}

var _ rpcapi.Server = (*Service)(nil)

// RequestFetch mints a ticket for every inbound Request, in read
// order, writes it back immediately, and enqueues the job. It does not
// wait for the fetch to complete. Returning nil signals a clean
// half-close; any other error becomes the stream's terminal status.
func (s *Service) RequestFetch(stream rpcapi.URLFetcher_RequestFetchServer) error {
	metrics.ObserveRPCStream("RequestFetch")
	log := s.logger.With(zap.String("stream_id", s.ids.NewID()))
	log.Debug("request fetch stream opened")

	for {
		req, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		t := s.minter.Mint()
		if err := s.table.Register(t); err != nil {
			log.Warn("rejecting fetch request during shutdown", zap.Uint64("ticket", uint64(t)))
			return status.Error(codes.Unavailable, "service is shutting down")
		}

		if err := stream.Send(&rpcapi.PendingFetch{Key: uint64(t)}); err != nil {
			return err
		}

		log.Debug("enqueued fetch job", zap.Uint64("ticket", uint64(t)), zap.String("url", req.URL))
		s.queue.Enqueue(urlfetcher.FetchJob{Ticket: t, URL: req.URL})
		metrics.SetQueueDepth(s.queue.Len())
	}
}

// ResolveFetch blocks, per inbound ticket, until the matching response
// is published, then writes it back. When the client half-closes, the
// handler half-closes and returns. A ticket request made after
// shutdown begins (or any other unknown/already-taken ticket) ends the
// stream with a non-OK status, per the shutdown-interaction policy.
func (s *Service) ResolveFetch(stream rpcapi.URLFetcher_ResolveFetchServer) error {
	metrics.ObserveRPCStream("ResolveFetch")
	ctx := stream.Context()
	log := s.logger.With(zap.String("stream_id", s.ids.NewID()))
	log.Debug("resolve fetch stream opened")

	for {
		pending, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		resp, err := s.table.Take(ctx, urlfetcher.Ticket(pending.Key))
		if err != nil {
			return status.Errorf(codes.Unavailable, "ticket %d: %v", pending.Key, err)
		}
		metrics.IncTicketsResolved()

		wire := &rpcapi.Response{Header: resp.Header, Body: resp.Body, CurlError: resp.ErrorCode}
		if err := stream.Send(wire); err != nil {
			return err
		}
	}
}
