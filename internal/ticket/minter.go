// Package ticket mints the monotonically increasing ticket values handed
// back to clients on the RequestFetch stream.
package ticket

import (
	"sync/atomic"

	"urlfetcher/internal/urlfetcher"
)

// Minter produces strictly increasing, pairwise distinct tickets. The
// zero value is ready to use; the first minted ticket is 1.
type Minter struct {
	counter uint64
}

// Mint atomically increments the internal counter and returns the new
// value. Safe for arbitrary concurrent callers.
func (m *Minter) Mint() urlfetcher.Ticket {
	return urlfetcher.Ticket(atomic.AddUint64(&m.counter, 1))
}
