package order_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/shufflecase/shufflecase-api/internal/lock"
	"github.com/shufflecase/shufflecase-api/internal/order"
)

type stubCanceller struct {
	cutoffs   []time.Time
	cancelled int64
	err       error
}

func (s *stubCanceller) CancelStalePending(_ context.Context, cutoff time.Time) (int64, error) {
	s.cutoffs = append(s.cutoffs, cutoff)
	return s.cancelled, s.err
}

func TestExpiryWorkerCancelsStaleOrders(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	canceller := &stubCanceller{cancelled: 3}
	worker := order.ExpiryWorker{
		Orders:     canceller,
		Locker:     lock.Locker{R: client, RetryBackoff: 5 * time.Millisecond},
		PendingTTL: 24 * time.Hour,
		LockTTL:    time.Minute,
		Log:        zerolog.Nop(),
	}

	before := time.Now().Add(-24 * time.Hour)
	require.NoError(t, worker.Handle(context.Background(), nil))
	require.Len(t, canceller.cutoffs, 1)
	require.WithinDuration(t, before, canceller.cutoffs[0], time.Minute)
}

func TestExpiryWorkerPropagatesStoreErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	canceller := &stubCanceller{err: context.DeadlineExceeded}
	worker := order.ExpiryWorker{
		Orders:     canceller,
		Locker:     lock.Locker{R: client, RetryBackoff: 5 * time.Millisecond},
		PendingTTL: time.Hour,
		LockTTL:    time.Minute,
		Log:        zerolog.Nop(),
	}
	require.ErrorIs(t, worker.Handle(context.Background(), nil), context.DeadlineExceeded)
}
