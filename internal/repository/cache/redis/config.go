package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gitee.com/flycash/workshop-notification/internal/domain"
	"gitee.com/flycash/workshop-notification/internal/repository/cache"
	"github.com/redis/go-redis/v9"
)

var _ cache.ConfigCache = (*Cache)(nil)

type Cache struct {
	rdb redis.Cmdable
}

func NewCache(rdb redis.Cmdable) *Cache {
	return &Cache{
		rdb: rdb,
	}
}

func (c *Cache) Del(ctx context.Context, tenantID int64) error {
	return c.rdb.Del(ctx, cache.ConfigKey(tenantID)).Err()
}

func (c *Cache) Get(ctx context.Context, tenantID int64) (domain.TenantNotificationConfig, error) {
	key := cache.ConfigKey(tenantID)
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.TenantNotificationConfig{}, cache.ErrorKeyNotFound
		}
		return domain.TenantNotificationConfig{}, fmt.Errorf("failed to get config from redis %w", err)
	}

	var cfg domain.TenantNotificationConfig
	err = json.Unmarshal([]byte(val), &cfg)
	if err != nil {
		return domain.TenantNotificationConfig{}, fmt.Errorf("failed to unmarshal config data %w", err)
	}
	return cfg, nil
}

func (c *Cache) Set(ctx context.Context, cfg domain.TenantNotificationConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config data %w", err)
	}
	err = c.rdb.Set(ctx, cache.ConfigKey(cfg.TenantID), data, cache.DefaultExpiredTime).Err()
	if err != nil {
		return fmt.Errorf("failed to set config to redis %w", err)
	}
	return nil
}
