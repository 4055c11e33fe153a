package blob

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gitee.com/flycash/workshop-notification/internal/domain"
	"gitee.com/flycash/workshop-notification/internal/errs"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "notification_blob:"

// RedisStore 多实例部署时使用，过期交给 redis
type RedisStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisStore(rdb redis.Cmdable, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) key(token string) string {
	return redisKeyPrefix + token
}

func (s *RedisStore) Store(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	if err := validate(data, filename); err != nil {
		return "", err
	}
	token, err := newToken()
	if err != nil {
		return "", err
	}
	now := time.Now()
	key := s.key(token)
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"filename", filename,
			"contentType", defaultContentType(contentType),
			"data", data,
			"createdAt", now.UnixMilli(),
		)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("保存临时文件失败: %w", err)
	}
	return token, nil
}

func (s *RedisStore) Retrieve(ctx context.Context, token string) (domain.Blob, error) {
	key := s.key(token)
	vals, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return domain.Blob{}, fmt.Errorf("读取临时文件失败: %w", err)
	}
	if len(vals) == 0 {
		return domain.Blob{}, fmt.Errorf("%w: %s", errs.ErrBlobNotFound, token)
	}
	ttl, err := s.rdb.PTTL(ctx, key).Result()
	if err != nil {
		return domain.Blob{}, fmt.Errorf("读取临时文件失败: %w", err)
	}
	if ttl < 0 {
		// 两次读取之间过期了
		return domain.Blob{}, fmt.Errorf("%w: %s", errs.ErrBlobNotFound, token)
	}
	createdAt, _ := strconv.ParseInt(vals["createdAt"], 10, 64)
	return domain.Blob{
		Token:       token,
		Filename:    vals["filename"],
		ContentType: vals["contentType"],
		Data:        []byte(vals["data"]),
		CreatedAt:   time.UnixMilli(createdAt),
		ExpiresAt:   time.Now().Add(ttl),
	}, nil
}
