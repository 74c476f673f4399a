package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const defaultIdempotencyPrefix = "mdm:idempotency:"

// RedisIdempotencyStore implements shared.IdempotencyStore on Redis so that
// every consumer instance shares the set of processed message IDs
type RedisIdempotencyStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisIdempotencyStore creates a store on an existing client. The client
// is owned by the caller and is not closed by Close.
func NewRedisIdempotencyStore(client redis.UniversalClient, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = defaultIdempotencyPrefix
	}
	return &RedisIdempotencyStore{client: client, keyPrefix: keyPrefix}
}

// MarkProcessed atomically claims messageID with SETNX. It reports false when
// another delivery already claimed it.
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, messageID string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+messageID, time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark message %s processed: %w", messageID, err)
	}
	return ok, nil
}

func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, messageID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyPrefix+messageID).Result()
	if err != nil {
		return false, fmt.Errorf("check message %s: %w", messageID, err)
	}
	return n > 0, nil
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, messageID string) error {
	if err := s.client.Del(ctx, s.keyPrefix+messageID).Err(); err != nil {
		return fmt.Errorf("release message %s: %w", messageID, err)
	}
	return nil
}

// Close is a no-op; the shared client is closed by its owner
func (s *RedisIdempotencyStore) Close() error {
	return nil
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
