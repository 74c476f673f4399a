package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// unreachableClient points at a port nothing listens on
func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestRedisIdempotencyStore_WrapsErrors(t *testing.T) {
	client := unreachableClient()
	defer client.Close()

	s := NewRedisIdempotencyStore(client, "")
	assert.Equal(t, defaultIdempotencyPrefix, s.keyPrefix)

	ctx := context.Background()
	_, err := s.MarkProcessed(ctx, "m1", time.Minute)
	assert.ErrorContains(t, err, "mark message m1 processed")

	_, err = s.IsProcessed(ctx, "m1")
	assert.ErrorContains(t, err, "check message m1")

	assert.ErrorContains(t, s.Release(ctx, "m1"), "release message m1")
	assert.NoError(t, s.Close())
}
