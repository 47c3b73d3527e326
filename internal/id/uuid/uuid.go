// Package uuid provides the correlation-ID generator used to tag each
// RPC stream in structured logs.
package uuid

import "github.com/google/uuid"

// Generator implements urlfetcher.IDGenerator using UUIDv7, so
// generated IDs sort roughly by creation time.
type Generator struct{}

// New constructs a Generator.
func New() *Generator {
	return &Generator{}
}

// NewID returns a UUIDv7 string. It falls back to a random UUIDv4 if
// uuid.NewV7 returns an error (which it does only when reading random
// bytes fails).
func (Generator) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
