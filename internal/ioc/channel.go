package ioc

import (
	"time"

	"gitee.com/flycash/workshop-notification/internal/service/channel"
	"github.com/go-kratos/aegis/circuitbreaker/sre"
	"github.com/gotomicro/ego/core/econf"
	"github.com/gotomicro/ego/core/elog"
	"github.com/prometheus/client_golang/prometheus"
)

type ChannelsConfig struct {
	// HTTPTimeout 出站 HTTP 请求的兜底超时，真正的发送超时由编排服务控制
	HTTPTimeout time.Duration          `yaml:"httpTimeout"`
	Email       channel.EmailConfig    `yaml:"email"`
	WhatsApp    channel.WhatsAppConfig `yaml:"whatsapp"`
	Telegram    channel.TelegramConfig `yaml:"telegram"`
	Breaker     BreakerConfig          `yaml:"breaker"`
}

type BreakerConfig struct {
	Success float64       `yaml:"success"`
	Request int64         `yaml:"request"`
	Window  time.Duration `yaml:"window"`
	Bucket  int           `yaml:"bucket"`
}

func (c BreakerConfig) options() []sre.Option {
	var opts []sre.Option
	if c.Success > 0 {
		opts = append(opts, sre.WithSuccess(c.Success))
	}
	if c.Request > 0 {
		opts = append(opts, sre.WithRequest(c.Request))
	}
	if c.Window > 0 {
		opts = append(opts, sre.WithWindow(c.Window))
	}
	if c.Bucket > 0 {
		opts = append(opts, sre.WithBucket(c.Bucket))
	}
	return opts
}

// InitChannels 只注册配置了地址的提供方，没有注册的渠道发送时返回 CHANNEL_UNAVAILABLE
func InitChannels() *channel.Registry {
	var cfg ChannelsConfig
	if err := econf.UnmarshalKey("channels", &cfg); err != nil {
		panic(err)
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	client := channel.NewHTTPClient(cfg.HTTPTimeout)

	senders := []channel.Sender{channel.NewSMSSender()}
	if cfg.Email.BaseURL != "" {
		senders = append(senders, channel.NewEmailSender(cfg.Email, client))
	}
	if cfg.WhatsApp.BaseURL != "" {
		senders = append(senders, channel.NewWhatsAppSender(cfg.WhatsApp, client))
	}
	if cfg.Telegram.Token != "" {
		senders = append(senders, channel.NewTelegramSender(cfg.Telegram, client))
	}
	registry := channel.NewRegistry(senders...)
	elog.Info("通知渠道初始化完成", elog.Any("channels", registry.Channels()))

	return registry.Decorate(
		channel.WithBreaker(cfg.Breaker.options()...),
		channel.WithMetrics(channel.NewSendMetrics(prometheus.DefaultRegisterer)),
		channel.WithTracing(),
	)
}
