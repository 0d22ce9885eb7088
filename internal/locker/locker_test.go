package locker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/ledger/internal/apperrors"
	"github.com/nkiryanov/ledger/internal/logger"
)

func newTestLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisLocker(client, logger.NewNoOpLogger()), mr
}

func TestRedisLocker(t *testing.T) {
	t.Parallel()

	t.Run("acquire and release ok", func(t *testing.T) {
		l, _ := newTestLocker(t)

		lock, err := l.Acquire(t.Context(), AccountKey("1000000001"), time.Second, 5*time.Second)

		require.NoError(t, err)
		require.NoError(t, lock.Release(t.Context()))
	})

	t.Run("reacquire after release ok", func(t *testing.T) {
		l, _ := newTestLocker(t)

		lock, err := l.Acquire(t.Context(), "key", time.Second, 5*time.Second)
		require.NoError(t, err)
		require.NoError(t, lock.Release(t.Context()))

		lock, err = l.Acquire(t.Context(), "key", time.Second, 5*time.Second)
		require.NoError(t, err)
		require.NoError(t, lock.Release(t.Context()))
	})

	t.Run("contended key fail", func(t *testing.T) {
		l, _ := newTestLocker(t)

		lock, err := l.Acquire(t.Context(), "key", time.Second, 5*time.Second)
		require.NoError(t, err)
		defer lock.Release(t.Context()) // nolint:errcheck

		_, err = l.Acquire(t.Context(), "key", 300*time.Millisecond, 5*time.Second)

		require.Error(t, err)
		require.ErrorIs(t, err, apperrors.ErrLockUnavailable, "contention must surface as lock unavailable")
		require.NotErrorIs(t, err, apperrors.ErrLockCoordinatorUnavailable)
	})

	t.Run("different keys do not contend", func(t *testing.T) {
		l, _ := newTestLocker(t)

		first, err := l.Acquire(t.Context(), AccountKey("1000000001"), time.Second, 5*time.Second)
		require.NoError(t, err)
		defer first.Release(t.Context()) // nolint:errcheck

		second, err := l.Acquire(t.Context(), AccountKey("1000000002"), time.Second, 5*time.Second)
		require.NoError(t, err)
		require.NoError(t, second.Release(t.Context()))
	})

	t.Run("release idempotent", func(t *testing.T) {
		l, _ := newTestLocker(t)

		lock, err := l.Acquire(t.Context(), "key", time.Second, 5*time.Second)
		require.NoError(t, err)

		require.NoError(t, lock.Release(t.Context()))
		require.NoError(t, lock.Release(t.Context()), "second release must not raise")
	})

	t.Run("release after lease expiry ok", func(t *testing.T) {
		l, mr := newTestLocker(t)

		lock, err := l.Acquire(t.Context(), "key", time.Second, 100*time.Millisecond)
		require.NoError(t, err)

		mr.FastForward(time.Second) // coordinator reclaims the lease

		require.NoError(t, lock.Release(t.Context()), "releasing an expired lock must not raise")
	})

	t.Run("coordinator down fail", func(t *testing.T) {
		l, mr := newTestLocker(t)
		mr.Close()

		_, err := l.Acquire(t.Context(), "key", time.Second, 5*time.Second)

		require.Error(t, err)
		require.ErrorIs(t, err, apperrors.ErrLockCoordinatorUnavailable, "coordinator outage must not look like contention")
		require.NotErrorIs(t, err, apperrors.ErrLockUnavailable)
	})
}

func TestWithLock(t *testing.T) {
	t.Parallel()

	t.Run("runs fn and releases", func(t *testing.T) {
		l, _ := newTestLocker(t)
		called := false

		err := WithLock(t.Context(), l, logger.NewNoOpLogger(), "key", func(ctx context.Context) error {
			called = true
			return nil
		})

		require.NoError(t, err)
		require.True(t, called, "fn must be invoked when lock acquired")

		// The key must be free again
		lock, err := l.Acquire(t.Context(), "key", 100*time.Millisecond, time.Second)
		require.NoError(t, err, "lock must be released after WithLock returns")
		require.NoError(t, lock.Release(t.Context()))
	})

	t.Run("releases on fn error", func(t *testing.T) {
		l, _ := newTestLocker(t)
		boom := errors.New("boom")

		err := WithLock(t.Context(), l, logger.NewNoOpLogger(), "key", func(ctx context.Context) error {
			return boom
		})

		require.ErrorIs(t, err, boom, "fn error must pass through unchanged")

		lock, err := l.Acquire(t.Context(), "key", 100*time.Millisecond, time.Second)
		require.NoError(t, err, "lock must be released even when fn fails")
		require.NoError(t, lock.Release(t.Context()))
	})

	t.Run("releases on panic", func(t *testing.T) {
		l, _ := newTestLocker(t)

		require.Panics(t, func() {
			_ = WithLock(t.Context(), l, logger.NewNoOpLogger(), "key", func(ctx context.Context) error {
				panic("boom")
			})
		})

		lock, err := l.Acquire(t.Context(), "key", 100*time.Millisecond, time.Second)
		require.NoError(t, err, "lock must be released even when fn panics")
		require.NoError(t, lock.Release(t.Context()))
	})

	t.Run("fn not invoked when lock unavailable", func(t *testing.T) {
		l, _ := newTestLocker(t)

		held, err := l.Acquire(t.Context(), "key", time.Second, 10*time.Second)
		require.NoError(t, err)
		defer held.Release(t.Context()) // nolint:errcheck

		called := false
		err = WithLock(t.Context(), l, logger.NewNoOpLogger(), "key", func(ctx context.Context) error {
			called = true
			return nil
		})

		require.ErrorIs(t, err, apperrors.ErrLockUnavailable)
		require.False(t, called, "fn must never run without the lock")
	})

	t.Run("serializes same key", func(t *testing.T) {
		l, _ := newTestLocker(t)

		var mu sync.Mutex
		var inside int
		var maxInside int

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()

				err := WithLock(t.Context(), l, logger.NewNoOpLogger(), "key", func(ctx context.Context) error {
					mu.Lock()
					inside++
					if inside > maxInside {
						maxInside = inside
					}
					mu.Unlock()

					time.Sleep(20 * time.Millisecond)

					mu.Lock()
					inside--
					mu.Unlock()
					return nil
				})
				require.NoError(t, err)
			}()
		}
		wg.Wait()

		require.Equal(t, 1, maxInside, "no two holders may be inside the critical section at once")
	})
}
