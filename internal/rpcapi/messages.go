// Package rpcapi is a hand-written stand-in for the generated code a
// protoc/protoc-gen-go-grpc run would normally produce for the
// URLFetcher service. The transport framing and code generation of the
// RPC layer are treated as an external collaborator by the core design;
// this package is the smallest faithful substitute, wired to the real
// google.golang.org/grpc runtime rather than anything bespoke.
package rpcapi

// Request is the wire message for a single URL submitted on the
// RequestFetch stream.
type Request struct {
	URL string
}

// PendingFetch echoes a minted ticket back to the client on the
// RequestFetch stream, and carries a ticket from client to server on
// the ResolveFetch stream. Key is the ticket value.
type PendingFetch struct {
	Key uint64
}

// Response carries a completed fetch result on the ResolveFetch stream.
// CurlError is 0 on success; any other value means Header and Body are
// empty.
type Response struct {
	Header    []byte
	Body      []byte
	CurlError int32
}
