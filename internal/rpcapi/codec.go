package rpcapi

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// gobCodec marshals wire messages with encoding/gob. It is registered
// under the name "proto", which google.golang.org/grpc treats as the
// default codec for requests that carry no explicit content-subtype —
// the same hook point the generated protobuf codec would normally
// occupy. Swapping it out here is what lets this package avoid a
// protoc step entirely. The gRPC framing is standard, but message
// payloads are gob-encoded, not protobuf: a peer can decode them only
// if it registers this same codec (for example, by importing this
// package).
type gobCodec struct{}

func (gobCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("rpcapi: marshal: %w", err)
	}
	return buf.Bytes(), nil
}

func (gobCodec) Unmarshal(data []byte, v any) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return fmt.Errorf("rpcapi: unmarshal: %w", err)
	}
	return nil
}

func (gobCodec) Name() string { return "proto" }

func init() {
	encoding.RegisterCodec(gobCodec{})
}
