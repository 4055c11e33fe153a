package ioc

import (
	"time"

	"gitee.com/flycash/workshop-notification/internal/pkg/ratelimit"
	"gitee.com/flycash/workshop-notification/internal/web"
	"github.com/gin-gonic/gin"
	"github.com/gotomicro/ego/core/econf"
	"github.com/gotomicro/ego/server/egin"
	"github.com/redis/go-redis/v9"
)

// InitWebhookLimiter rate 没配置时不限流，返回 nil
func InitWebhookLimiter(rdb redis.Cmdable) ratelimit.Limiter {
	type Config struct {
		Interval time.Duration `yaml:"interval"`
		Rate     int           `yaml:"rate"`
	}
	var cfg Config
	if err := econf.UnmarshalKey("server.http.webhookLimit", &cfg); err != nil {
		panic(err)
	}
	if cfg.Rate <= 0 {
		return nil
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	return ratelimit.NewRedisSlidingWindowLimiter(rdb, cfg.Interval, cfg.Rate)
}

// InitWebServer 链路和访问日志由 egin 自带的拦截器处理，指标在 governor 上暴露
func InitWebServer(webhook *web.WebhookHandler, records *web.RecordHandler, limiter ratelimit.Limiter) *egin.Component {
	server := egin.Load("server.http").Build()
	var mdls []gin.HandlerFunc
	if limiter != nil {
		mdls = append(mdls, web.LimitByClientIP("webhook", limiter))
	}
	webhook.PublicRoutes(server.Engine, mdls...)
	records.PrivateRoutes(server.Engine)
	return server
}
