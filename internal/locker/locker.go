package locker

import (
	"context"
	"time"
)

const (
	// DefaultWait bounds how long an acquisition may block on a contended key.
	DefaultWait = 1 * time.Second

	// DefaultLease bounds how long the coordinator keeps the lock if the holder
	// never releases it. Normal operations release explicitly and finish well
	// under the lease; the lease only covers crashed holders.
	DefaultLease = 5 * time.Second
)

// Lock is an acquired, releasable hold on a single key.
type Lock interface {
	// Release gives the lock back.
	// Releasing an already expired or already released lock is not an error.
	Release(ctx context.Context) error
}

// Locker acquires named exclusive locks from an external coordinator.
type Locker interface {
	// Acquire obtains exclusive ownership of key, blocking at most wait.
	// The coordinator force releases the lock after lease even if Release is
	// never called.
	//
	// Returns apperrors.ErrLockUnavailable when the key stays contended for the
	// whole wait, and apperrors.ErrLockCoordinatorUnavailable when the
	// coordinator itself cannot be reached. The two are never conflated: a
	// coordinator outage must block the operation, not skip locking.
	Acquire(ctx context.Context, key string, wait time.Duration, lease time.Duration) (Lock, error)
}

// AccountKey names the mutual exclusion lock for one account.
func AccountKey(accountNumber string) string {
	return "account-lock:" + accountNumber
}
