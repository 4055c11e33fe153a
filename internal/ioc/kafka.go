package ioc

import (
	"fmt"
	"time"

	"gitee.com/flycash/workshop-notification/internal/event/order"
	"gitee.com/flycash/workshop-notification/internal/pkg/idempotent"
	"gitee.com/flycash/workshop-notification/internal/pkg/mqx"
	notificationsvc "gitee.com/flycash/workshop-notification/internal/service/notification"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/gotomicro/ego/core/econf"
	"github.com/gotomicro/ego/core/elog"
	"github.com/redis/go-redis/v9"
)

type KafkaConfig struct {
	// Enabled 没有开启时只能通过 HTTP 接口触发发送
	Enabled          bool   `yaml:"enabled"`
	BootstrapServers string `yaml:"bootstrapServers"`
	GroupID          string `yaml:"groupId"`
	// PublishResults 是否把发送结果写回 workshop_notification_results
	PublishResults bool `yaml:"publishResults"`
	// DedupTTL 已处理消息的记录保留多久，0 表示不去重
	DedupTTL time.Duration `yaml:"dedupTTL"`
}

func InitKafkaConfig() KafkaConfig {
	var cfg KafkaConfig
	if err := econf.UnmarshalKey("kafka", &cfg); err != nil {
		panic(err)
	}
	if cfg.GroupID == "" {
		cfg.GroupID = "workshop-notification"
	}
	return cfg
}

// InitOrderEventConsumer kafka 没有开启时返回 nil
func InitOrderEventConsumer(svc notificationsvc.Service, cfg KafkaConfig, rdb redis.Cmdable) *order.EventConsumer {
	if !cfg.Enabled {
		elog.Info("没有开启 kafka，不消费业务事件")
		return nil
	}
	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  cfg.BootstrapServers,
		"group.id":           cfg.GroupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
	})
	if err != nil {
		panic(fmt.Sprintf("创建消费者失败: %v", err))
	}

	var producer order.ResultProducer
	if cfg.PublishResults {
		p, err1 := kafka.NewProducer(&kafka.ConfigMap{
			"bootstrap.servers": cfg.BootstrapServers,
			"client.id":         cfg.GroupID,
		})
		if err1 != nil {
			panic(fmt.Sprintf("创建生产者失败: %v", err1))
		}
		producer, err1 = mqx.NewGeneralProducer[order.ResultEvent](p, order.ResultEventName)
		if err1 != nil {
			panic(err1)
		}
	}

	var dedup idempotent.IdempotencyService
	if cfg.DedupTTL > 0 {
		dedup = idempotent.NewRedisService(rdb, "order_event", cfg.DedupTTL)
	}

	c, err := order.NewEventConsumer(svc, consumer, producer, dedup)
	if err != nil {
		panic(err)
	}
	return c
}
