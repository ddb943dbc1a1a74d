// Package redis holds the Redis-backed adapters used when several instances
// share one database: a distributed lock and a cross-instance change feed.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/org_funding_app/internal/apperrors"
	portssvc "github.com/SscSPs/org_funding_app/internal/core/ports/services"
	"github.com/bsm/redislock"
)

const (
	// DefaultLockTTL is how long a lock survives a crashed holder.
	DefaultLockTTL = 30 * time.Second
	lockKeyPrefix  = "lock:"
	lockRetryEvery = 50 * time.Millisecond
)

// Locker implements portssvc.Locker on top of redislock.
type Locker struct {
	client *redislock.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ portssvc.Locker = (*Locker)(nil)

// NewLocker creates a distributed locker. A non-positive ttl means DefaultLockTTL.
func NewLocker(client redislock.RedisClient, ttl time.Duration, logger *slog.Logger) *Locker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &Locker{client: redislock.New(client), ttl: ttl, logger: logger}
}

// Acquire retries until the lock is obtained, ctx is done or the TTL elapses.
func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	lock, err := l.client.Obtain(waitCtx, lockKeyPrefix+key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(lockRetryEvery),
	})
	if err != nil {
		return nil, mapObtainError(key, err)
	}

	return func() {
		// Release must work even when the caller's ctx is already cancelled.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("failed to release redis lock", slog.String("key", key), slog.String("error", err.Error()))
		}
	}, nil
}

func mapObtainError(key string, err error) error {
	switch {
	case errors.Is(err, redislock.ErrNotObtained), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("could not obtain lock for %s: %w", key, apperrors.ErrConflict)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("lock %s: %w: %v", key, apperrors.ErrStoreUnavailable, err)
	}
}
