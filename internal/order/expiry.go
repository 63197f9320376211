package order

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/shufflecase/shufflecase-api/internal/lock"
	"github.com/shufflecase/shufflecase-api/internal/obs"
)

// TaskExpirePending is the asynq task type for the periodic pending-order sweep.
const TaskExpirePending = "order:expire_pending"

// expiryLockKey serialises the sweep across worker instances.
const expiryLockKey = "lock:order:expire_pending"

type staleCanceller interface {
	CancelStalePending(ctx context.Context, cutoff time.Time) (int64, error)
}

// ExpiryWorker cancels pending orders whose payment window has lapsed. A
// buyer who abandons the iframe never triggers a webhook, so without the
// sweep those orders would stay pending forever.
type ExpiryWorker struct {
	Orders     staleCanceller
	Locker     lock.Locker
	PendingTTL time.Duration
	LockTTL    time.Duration
	Log        zerolog.Logger
}

// Handle processes one sweep task.
func (w ExpiryWorker) Handle(ctx context.Context, _ *asynq.Task) error {
	return w.Locker.WithLock(ctx, expiryLockKey, w.LockTTL, func(ctx context.Context) error {
		cutoff := time.Now().Add(-w.PendingTTL)
		cancelled, err := w.Orders.CancelStalePending(ctx, cutoff)
		if err != nil {
			w.Log.Error().Err(err).Msg("expire pending orders")
			return err
		}
		if cancelled > 0 {
			w.Log.Info().Int64("cancelled", cancelled).Time("cutoff", cutoff).Msg("expired pending orders")
			if obs.OrdersExpiredTotal != nil {
				obs.OrdersExpiredTotal.Add(float64(cancelled))
			}
		}
		return nil
	})
}
