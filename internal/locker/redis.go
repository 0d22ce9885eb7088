package locker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"

	"github.com/nkiryanov/ledger/internal/apperrors"
	"github.com/nkiryanov/ledger/internal/logger"
)

const retryDelay = 100 * time.Millisecond

// RedisLocker implements Locker on a single Redis coordinator via redsync.
// The lease maps to the mutex expiry, the wait to a bounded number of retries
// plus a context deadline.
type RedisLocker struct {
	client  redis.UniversalClient
	redsync *redsync.Redsync
	logger  logger.Logger
}

func NewRedisLocker(client redis.UniversalClient, l logger.Logger) *RedisLocker {
	return &RedisLocker{
		client:  client,
		redsync: redsync.New(goredis.NewPool(client)),
		logger:  l,
	}
}

func (r *RedisLocker) Acquire(ctx context.Context, key string, wait time.Duration, lease time.Duration) (Lock, error) {
	// Fail fast and distinguishably when the coordinator is down. Proceeding
	// without the lock is never acceptable here.
	if err := r.client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrLockCoordinatorUnavailable, err)
	}

	mutex := r.redsync.NewMutex(key,
		redsync.WithExpiry(lease),
		redsync.WithTries(int(wait/retryDelay)+1),
		redsync.WithRetryDelay(retryDelay),
	)

	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	if err := mutex.LockContext(waitCtx); err != nil {
		if isContention(err) {
			r.logger.Debug("lock is held by someone else", "key", key)
			return nil, fmt.Errorf("%w: key %s", apperrors.ErrLockUnavailable, key)
		}

		r.logger.Error("lock coordinator failure", "key", key, "error", err)
		return nil, fmt.Errorf("%w: %v", apperrors.ErrLockCoordinatorUnavailable, err)
	}

	r.logger.Debug("lock acquired", "key", key)

	return &redisLock{mutex: mutex, key: key, logger: r.logger}, nil
}

// isContention reports whether the acquisition failed because someone else
// holds the lock (or the wait ran out), as opposed to a coordinator fault.
func isContention(err error) bool {
	var taken *redsync.ErrTaken
	var nodeTaken *redsync.ErrNodeTaken

	return errors.Is(err, redsync.ErrFailed) ||
		errors.As(err, &taken) ||
		errors.As(err, &nodeTaken) ||
		errors.Is(err, context.DeadlineExceeded)
}

type redisLock struct {
	mutex  *redsync.Mutex
	key    string
	logger logger.Logger
}

func (l *redisLock) Release(ctx context.Context) error {
	ok, err := l.mutex.UnlockContext(ctx)

	switch {
	case err == nil && ok:
		l.logger.Debug("lock released", "key", l.key)
		return nil
	case errors.Is(err, redsync.ErrLockAlreadyExpired):
		// Lease ran out or the lock was released already, nothing left to do
		l.logger.Debug("lock was already gone on release", "key", l.key)
		return nil
	case err != nil:
		return fmt.Errorf("release lock %s: %w", l.key, err)
	default:
		// Unlock reported not ok without an error: the lock was not ours
		// anymore, treat as released
		l.logger.Debug("lock was not held on release", "key", l.key)
		return nil
	}
}
