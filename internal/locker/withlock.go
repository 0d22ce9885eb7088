package locker

import (
	"context"

	"github.com/nkiryanov/ledger/internal/logger"
)

// WithLock runs fn while holding the named lock: acquire, invoke, release on
// every exit path including panic. If acquisition fails fn is never invoked and
// the acquisition error is returned as is.
//
// Release failures are logged, never returned: fn's result must not be masked,
// and the coordinator lease reclaims the lock anyway.
func WithLock(ctx context.Context, l Locker, log logger.Logger, key string, fn func(ctx context.Context) error) error {
	lock, err := l.Acquire(ctx, key, DefaultWait, DefaultLease)
	if err != nil {
		return err
	}

	defer func() {
		// Release even when ctx is already cancelled
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			log.Error("failed to release lock", "key", key, "error", err)
		}
	}()

	return fn(ctx)
}
