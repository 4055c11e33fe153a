package idempotent

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ IdempotencyService = (*RedisIdempotencyService)(nil)

// RedisIdempotencyService 标记带过期时间，过期之后同一个 key 会被当成新的
type RedisIdempotencyService struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisService(client redis.Cmdable, prefix string, ttl time.Duration) *RedisIdempotencyService {
	return &RedisIdempotencyService{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisIdempotencyService) Exists(ctx context.Context, key string) (bool, error) {
	cnt, err := s.client.Exists(ctx, s.key(key)).Result()
	return cnt > 0, err
}

func (s *RedisIdempotencyService) Mark(ctx context.Context, key string) error {
	return s.client.Set(ctx, s.key(key), 1, s.ttl).Err()
}

func (s *RedisIdempotencyService) key(key string) string {
	return s.prefix + ":" + key
}
