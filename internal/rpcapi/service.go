package rpcapi

import (
	"context"

	"google.golang.org/grpc"
)

const (
	serviceName        = "urlfetcher.URLFetcher"
	requestFetchMethod = "/urlfetcher.URLFetcher/RequestFetch"
	resolveFetchMethod = "/urlfetcher.URLFetcher/ResolveFetch"
)

// Server is the interface a URLFetcher RPC implementation satisfies.
// Both methods are bidirectional streams; neither returns a per-call
// response, only a terminal error mapped to a grpc status.
type Server interface {
	RequestFetch(URLFetcher_RequestFetchServer) error
	ResolveFetch(URLFetcher_ResolveFetchServer) error
}

// URLFetcher_RequestFetchServer is the server-side view of the
// RequestFetch stream: read Requests, write back PendingFetch tickets.
type URLFetcher_RequestFetchServer interface {
	Send(*PendingFetch) error
	Recv() (*Request, error)
	grpc.ServerStream
}

// URLFetcher_ResolveFetchServer is the server-side view of the
// ResolveFetch stream: read PendingFetch tickets, write back Responses.
type URLFetcher_ResolveFetchServer interface {
	Send(*Response) error
	Recv() (*PendingFetch, error)
	grpc.ServerStream
}

type urlFetcherRequestFetchServer struct {
	grpc.ServerStream
}

func (s *urlFetcherRequestFetchServer) Send(m *PendingFetch) error {
	return s.ServerStream.SendMsg(m)
}

func (s *urlFetcherRequestFetchServer) Recv() (*Request, error) {
	m := new(Request)
	if err := s.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

type urlFetcherResolveFetchServer struct {
	grpc.ServerStream
}

func (s *urlFetcherResolveFetchServer) Send(m *Response) error {
	return s.ServerStream.SendMsg(m)
}

func (s *urlFetcherResolveFetchServer) Recv() (*PendingFetch, error) {
	m := new(PendingFetch)
	if err := s.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func _URLFetcher_RequestFetch_Handler(srv any, stream grpc.ServerStream) error {
	return srv.(Server).RequestFetch(&urlFetcherRequestFetchServer{ServerStream: stream})
}

func _URLFetcher_ResolveFetch_Handler(srv any, stream grpc.ServerStream) error {
	return srv.(Server).ResolveFetch(&urlFetcherResolveFetchServer{ServerStream: stream})
}

// ServiceDesc is the hand-written grpc.ServiceDesc standing in for
// generated code. Both RPCs are streaming-only, so Methods is empty.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*Server)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "RequestFetch",
			Handler:       _URLFetcher_RequestFetch_Handler,
			ServerStreams: true,
			ClientStreams: true,
		},
		{
			StreamName:    "ResolveFetch",
			Handler:       _URLFetcher_ResolveFetch_Handler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "urlfetcher.proto",
}

// RegisterServer registers srv against s using ServiceDesc.
func RegisterServer(s grpc.ServiceRegistrar, srv Server) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client is the client-side stub for the URLFetcher service.
type Client interface {
	RequestFetch(ctx context.Context, opts ...grpc.CallOption) (URLFetcher_RequestFetchClient, error)
	ResolveFetch(ctx context.Context, opts ...grpc.CallOption) (URLFetcher_ResolveFetchClient, error)
}

// URLFetcher_RequestFetchClient is the client-side view of the
// RequestFetch stream: write Requests, read back PendingFetch tickets.
type URLFetcher_RequestFetchClient interface {
	Send(*Request) error
	Recv() (*PendingFetch, error)
	grpc.ClientStream
}

// URLFetcher_ResolveFetchClient is the client-side view of the
// ResolveFetch stream: write PendingFetch tickets, read back Responses.
type URLFetcher_ResolveFetchClient interface {
	Send(*PendingFetch) error
	Recv() (*Response, error)
	grpc.ClientStream
}

type urlFetcherClient struct {
	cc grpc.ClientConnInterface
}

// NewClient constructs a Client bound to cc.
func NewClient(cc grpc.ClientConnInterface) Client {
	return &urlFetcherClient{cc: cc}
}

func (c *urlFetcherClient) RequestFetch(ctx context.Context, opts ...grpc.CallOption) (URLFetcher_RequestFetchClient, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], requestFetchMethod, opts...)
	if err != nil {
		return nil, err
	}
	return &urlFetcherRequestFetchClient{ClientStream: stream}, nil
}

func (c *urlFetcherClient) ResolveFetch(ctx context.Context, opts ...grpc.CallOption) (URLFetcher_ResolveFetchClient, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[1], resolveFetchMethod, opts...)
	if err != nil {
		return nil, err
	}
	return &urlFetcherResolveFetchClient{ClientStream: stream}, nil
}

type urlFetcherRequestFetchClient struct {
	grpc.ClientStream
}

func (c *urlFetcherRequestFetchClient) Send(m *Request) error {
	return c.ClientStream.SendMsg(m)
}

func (c *urlFetcherRequestFetchClient) Recv() (*PendingFetch, error) {
	m := new(PendingFetch)
	if err := c.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

type urlFetcherResolveFetchClient struct {
	grpc.ClientStream
}

func (c *urlFetcherResolveFetchClient) Send(m *PendingFetch) error {
	return c.ClientStream.SendMsg(m)
}

func (c *urlFetcherResolveFetchClient) Recv() (*Response, error) {
	m := new(Response)
	if err := c.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
