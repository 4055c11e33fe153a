package ioc

import (
	"context"
	"time"

	"gitee.com/flycash/workshop-notification/internal/service/blob"
	"github.com/gotomicro/ego/core/econf"
	"github.com/redis/go-redis/v9"
)

type BlobConfig struct {
	// Driver memory 或者 redis，多实例部署必须用 redis
	Driver        string        `yaml:"driver"`
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweepInterval"`
}

// BlobStore 同时暴露存储和后台清理任务，redis 依赖自身过期，不需要清理
type BlobStore struct {
	blob.Store
	sweeper Task
}

func InitBlobStore(rdb redis.Cmdable) *BlobStore {
	var cfg BlobConfig
	if err := econf.UnmarshalKey("blob", &cfg); err != nil {
		panic(err)
	}
	if cfg.Driver == "redis" {
		return &BlobStore{Store: blob.NewRedisStore(rdb, cfg.TTL)}
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	mem := blob.NewMemoryStore(cfg.TTL)
	return &BlobStore{
		Store:   mem,
		sweeper: &memorySweeper{store: mem, interval: cfg.SweepInterval},
	}
}

func InitBlob(s *BlobStore) blob.Store {
	return s.Store
}

type memorySweeper struct {
	store    *blob.MemoryStore
	interval time.Duration
}

func (m *memorySweeper) Start(ctx context.Context) {
	m.store.Start(ctx, m.interval)
}
