package local

import (
	"context"
	"strings"

	"gitee.com/flycash/workshop-notification/internal/domain"
	"gitee.com/flycash/workshop-notification/internal/repository/cache"
	"github.com/gotomicro/ego/core/elog"
	ca "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

var _ cache.ConfigCache = (*Cache)(nil)

// Cache 进程内的配置缓存。多实例部署时依赖 redis 的 keyspace 通知来淘汰其他实例删除的键，
// 需要 redis 开启 notify-keyspace-events（至少 Kg$x）。
type Cache struct {
	rdb    *redis.Client
	logger *elog.Component
	c      *ca.Cache
}

func NewLocalCache(rdb *redis.Client, c *ca.Cache) *Cache {
	return &Cache{
		rdb:    rdb,
		logger: elog.DefaultLogger,
		c:      c,
	}
}

func (l *Cache) Get(_ context.Context, tenantID int64) (domain.TenantNotificationConfig, error) {
	v, ok := l.c.Get(cache.ConfigKey(tenantID))
	if !ok {
		return domain.TenantNotificationConfig{}, cache.ErrorKeyNotFound
	}
	cfg, ok := v.(domain.TenantNotificationConfig)
	if !ok {
		return domain.TenantNotificationConfig{}, cache.ErrorKeyNotFound
	}
	return cfg, nil
}

func (l *Cache) Set(_ context.Context, cfg domain.TenantNotificationConfig) error {
	l.c.Set(cache.ConfigKey(cfg.TenantID), cfg, ca.DefaultExpiration)
	return nil
}

func (l *Cache) Del(_ context.Context, tenantID int64) error {
	l.c.Delete(cache.ConfigKey(tenantID))
	return nil
}

// Start 监听 redis 里配置键的变化，ctx 取消时退出
func (l *Cache) Start(ctx context.Context) {
	if l.rdb == nil {
		return
	}
	pubsub := l.rdb.PSubscribe(ctx, "__keyspace@*__:"+cache.ConfigPrefix+":*")
	defer pubsub.Close()
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			l.handleConfigChange(msg.Channel, msg.Payload)
		}
	}
}

// handleConfigChange channel 形如 __keyspace@0__:notification_config:1，payload 是命令名
func (l *Cache) handleConfigChange(channel, event string) {
	_, key, ok := strings.Cut(channel, "__:")
	if !ok {
		l.logger.Error("监听redis键不正确", elog.String("channel", channel))
		return
	}
	switch event {
	case "del", "expired", "set":
		// set 的时候也直接淘汰，下次读取时从 redis 回填
		l.c.Delete(key)
	}
}
