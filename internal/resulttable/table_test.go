package resulttable

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"urlfetcher/internal/urlfetcher"
)

func TestTable_RegisterThenPublishThenTake(t *testing.T) {
	t.Parallel()

	tbl := New()
	require.NoError(t, tbl.Register(1))

	resp := urlfetcher.Response{Body: []byte("hello")}
	first := tbl.Publish(1, resp)
	require.True(t, first)

	got, err := tbl.Take(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, resp, got)
}

func TestTable_TakeBlocksUntilPublish(t *testing.T) {
	t.Parallel()

	tbl := New()
	require.NoError(t, tbl.Register(7))

	done := make(chan urlfetcher.Response, 1)
	go func() {
		resp, err := tbl.Take(context.Background(), 7)
		require.NoError(t, err)
		done <- resp
	}()

	time.Sleep(10 * time.Millisecond)
	tbl.Publish(7, urlfetcher.Response{Body: []byte("done")})

	select {
	case resp := <-done:
		require.Equal(t, []byte("done"), resp.Body)
	case <-time.After(time.Second):
		t.Fatal("Take did not return within 1s of Publish")
	}
}

func TestTable_TakeFailsFastOnDuplicateTake(t *testing.T) {
	t.Parallel()

	tbl := New()
	require.NoError(t, tbl.Register(3))
	tbl.Publish(3, urlfetcher.Response{Body: []byte("x")})

	_, err := tbl.Take(context.Background(), 3)
	require.NoError(t, err)

	_, err = tbl.Take(context.Background(), 3)
	require.ErrorIs(t, err, ErrUnknownTicket)
}

func TestTable_ConcurrentTakeYieldsExactlyOneWinner(t *testing.T) {
	t.Parallel()

	tbl := New()
	require.NoError(t, tbl.Register(9))
	tbl.Publish(9, urlfetcher.Response{Body: []byte("x")})

	const racers = 20
	var wg sync.WaitGroup
	var successes int
	var mu sync.Mutex
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tbl.Take(context.Background(), 9)
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, successes)
}

func TestTable_UnknownTicketFailsFast(t *testing.T) {
	t.Parallel()

	tbl := New()
	_, err := tbl.Take(context.Background(), 999)
	require.ErrorIs(t, err, ErrUnknownTicket)
}

func TestTable_DuplicatePublishKeepsFirstValue(t *testing.T) {
	t.Parallel()

	tbl := New()
	require.NoError(t, tbl.Register(5))

	first := tbl.Publish(5, urlfetcher.Response{Body: []byte("first")})
	require.True(t, first)

	second := tbl.Publish(5, urlfetcher.Response{Body: []byte("second")})
	require.False(t, second)

	got, err := tbl.Take(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, []byte("first"), got.Body)
}

func TestTable_CloseUnblocksPendingWaitersWithError(t *testing.T) {
	t.Parallel()

	tbl := New()
	require.NoError(t, tbl.Register(11))

	errc := make(chan error, 1)
	go func() {
		_, err := tbl.Take(context.Background(), 11)
		errc <- err
	}()

	time.Sleep(10 * time.Millisecond)
	tbl.Close()

	select {
	case err := <-errc:
		require.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Take did not return within 1s of Close")
	}

	require.ErrorIs(t, tbl.Register(12), ErrClosed)
}

func TestTable_CloseLeavesAlreadyPublishedResultsTakeable(t *testing.T) {
	t.Parallel()

	tbl := New()
	require.NoError(t, tbl.Register(13))
	tbl.Publish(13, urlfetcher.Response{Body: []byte("before close")})
	tbl.Close()

	got, err := tbl.Take(context.Background(), 13)
	require.NoError(t, err)
	require.Equal(t, []byte("before close"), got.Body)
}

func TestTable_TakeRespectsContextCancellation(t *testing.T) {
	t.Parallel()

	tbl := New()
	require.NoError(t, tbl.Register(21))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := tbl.Take(ctx, 21)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

// TestTable_PublishRacingCloseNeverDoubleClosesReady guards against a
// prior bug where Publish and Close could each decide independently
// that they were the one to close an entry's ready channel, panicking
// on the second close.
func TestTable_PublishRacingCloseNeverDoubleClosesReady(t *testing.T) {
	t.Parallel()

	const tickets = 200
	tbl := New()
	for i := urlfetcher.Ticket(0); i < tickets; i++ {
		require.NoError(t, tbl.Register(i))
	}

	var wg sync.WaitGroup
	for i := urlfetcher.Ticket(0); i < tickets; i++ {
		wg.Add(1)
		go func(ticket urlfetcher.Ticket) {
			defer wg.Done()
			tbl.Publish(ticket, urlfetcher.Response{Body: []byte("x")})
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		tbl.Close()
	}()
	wg.Wait()
}
