// Package lock provides per-key mutual exclusion for golden record upserts.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const retryInterval = 50 * time.Millisecond

// ErrNotObtained is returned when the lock stays held past the wait budget
var ErrNotObtained = errors.New("lock not obtained")

// RedisLocker serialises upserts of the same natural key across instances
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	wait   time.Duration
}

// NewRedisLocker creates a locker. ttl bounds how long a crashed holder blocks
// others; wait bounds how long Acquire retries.
func NewRedisLocker(client redis.UniversalClient, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{
		client: redislock.New(client),
		ttl:    ttl,
		wait:   wait,
	}
}

// Acquire obtains the lock for key, retrying until the wait budget is spent
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	retries := int(l.wait / retryInterval)
	lock, err := l.client.Obtain(ctx, key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(retryInterval), retries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", ErrNotObtained, key)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}

	return func(ctx context.Context) error {
		err := lock.Release(ctx)
		if errors.Is(err, redislock.ErrLockNotHeld) {
			// expired before release; another holder may already own it
			return nil
		}
		return err
	}, nil
}

var _ shared.Locker = (*RedisLocker)(nil)
