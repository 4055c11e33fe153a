package ioc

import (
	redismetrics "gitee.com/flycash/workshop-notification/internal/pkg/redis/metrics"
	"github.com/gotomicro/ego/core/econf"
	"github.com/meoying/dlock-go"
	dlockRedis "github.com/meoying/dlock-go/redis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func InitRedisClient() *redis.Client {
	type Config struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	}
	var cfg Config
	err := econf.UnmarshalKey("redis", &cfg)
	if err != nil {
		panic(err)
	}
	cmd := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return redismetrics.WithMetrics(cmd, redismetrics.NewHook(prometheus.DefaultRegisterer, metricsNamespace))
}

func InitRedisCmd(rdb *redis.Client) redis.Cmdable {
	return rdb
}

// InitDistributedLock 多实例部署时保证同一时刻只有一个实例在扫描投递记录
func InitDistributedLock(rdb redis.Cmdable) dlock.Client {
	return dlockRedis.NewClient(rdb)
}
