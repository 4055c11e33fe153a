package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/workshop-notification/internal/errs"
	"gitee.com/flycash/workshop-notification/internal/pkg/idempotent"
	"gitee.com/flycash/workshop-notification/internal/pkg/mqx"
	notificationsvc "gitee.com/flycash/workshop-notification/internal/service/notification"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/gotomicro/ego/core/elog"
)

const (
	defaultPollTimeout  = time.Second
	defaultRetryBackoff = time.Second
)

// EventConsumer 消费业务事件并同步发送通知，处理完一条提交一条
type EventConsumer struct {
	svc      notificationsvc.Service
	consumer mqx.Consumer
	// producer 可以为 nil，表示不回传结果
	producer ResultProducer
	// dedup 可以为 nil，表示不去重
	dedup       idempotent.IdempotencyService
	pollTimeout time.Duration
	// retryBackoff 出错之后隔多久再读下一条
	retryBackoff time.Duration
	logger       *elog.Component
}

func NewEventConsumer(
	svc notificationsvc.Service,
	consumer *kafka.Consumer,
	producer ResultProducer,
	dedup idempotent.IdempotencyService,
) (*EventConsumer, error) {
	if err := consumer.SubscribeTopics([]string{EventName}, nil); err != nil {
		return nil, err
	}
	return newEventConsumer(svc, consumer, producer, dedup), nil
}

func newEventConsumer(
	svc notificationsvc.Service,
	consumer mqx.Consumer,
	producer ResultProducer,
	dedup idempotent.IdempotencyService,
) *EventConsumer {
	return &EventConsumer{
		svc:         svc,
		consumer:    consumer,
		producer:    producer,
		dedup:       dedup,
		pollTimeout:  defaultPollTimeout,
		retryBackoff: defaultRetryBackoff,
		logger:       elog.DefaultLogger,
	}
}

func (c *EventConsumer) Start(ctx context.Context) {
	go func() {
		for ctx.Err() == nil {
			if err := c.Consume(ctx); err != nil {
				c.logger.Error("消费业务事件失败", elog.FieldErr(err))
				c.wait(ctx)
			}
		}
	}()
}

func (c *EventConsumer) wait(ctx context.Context) {
	timer := time.NewTimer(c.retryBackoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (c *EventConsumer) Consume(ctx context.Context) error {
	msg, err := c.consumer.ReadMessage(c.pollTimeout)
	if err != nil {
		if mqx.IsTimeout(err) {
			return nil
		}
		return fmt.Errorf("获取消息失败: %w", err)
	}

	var evt Event
	if err = json.Unmarshal(msg.Value, &evt); err != nil {
		// 格式错误的消息重试也没用，提交之后跳过
		c.logger.Warn("解析消息失败，跳过",
			elog.FieldErr(err),
			elog.Any("partition", msg.TopicPartition.Partition),
			elog.Any("offset", msg.TopicPartition.Offset))
		return c.commit(msg)
	}

	// 上次发送成功但是没来得及提交的消息会被重新投递
	key := messageKey(msg)
	if c.processed(ctx, key) {
		c.logger.Info("消息已经处理过，跳过", elog.String("key", key))
		return c.commit(msg)
	}

	req := evt.toDomain()
	res, err := c.svc.Notify(ctx, req)
	switch {
	case err == nil:
		c.publish(ctx, newResultEvent(req, res))
	case isPermanent(err):
		c.logger.Warn("业务事件无法发送，跳过",
			elog.FieldErr(err),
			elog.Int64("tenantID", evt.TenantID),
			elog.String("event", evt.Event))
		c.publish(ctx, newResultEvent(req, res))
	default:
		// 不提交，并且把消费位置退回这条消息，否则后面的消息提交之后它就丢了
		err = fmt.Errorf("发送通知失败: %w", err)
		if seekErr := c.consumer.Seek(msg.TopicPartition, 0); seekErr != nil {
			c.logger.Error("回退消费位置失败",
				elog.FieldErr(seekErr),
				elog.Any("partition", msg.TopicPartition.Partition),
				elog.Any("offset", msg.TopicPartition.Offset))
			return errors.Join(err, seekErr)
		}
		return err
	}
	c.markProcessed(ctx, key)
	return c.commit(msg)
}

// messageKey 同一条消息重新投递时 topic、分区和偏移量都不变
func messageKey(msg *kafka.Message) string {
	var topic string
	if msg.TopicPartition.Topic != nil {
		topic = *msg.TopicPartition.Topic
	}
	return fmt.Sprintf("%s:%d:%d", topic, msg.TopicPartition.Partition, msg.TopicPartition.Offset)
}

// processed 查询失败时当作没处理过，宁可重复发送也不丢
func (c *EventConsumer) processed(ctx context.Context, key string) bool {
	if c.dedup == nil {
		return false
	}
	ok, err := c.dedup.Exists(ctx, key)
	if err != nil {
		c.logger.Warn("查询消息处理记录失败", elog.FieldErr(err), elog.String("key", key))
		return false
	}
	return ok
}

func (c *EventConsumer) markProcessed(ctx context.Context, key string) {
	if c.dedup == nil {
		return
	}
	if err := c.dedup.Mark(ctx, key); err != nil {
		c.logger.Warn("记录消息处理结果失败", elog.FieldErr(err), elog.String("key", key))
	}
}

func (c *EventConsumer) publish(ctx context.Context, evt ResultEvent) {
	if c.producer == nil {
		return
	}
	if err := c.producer.Produce(ctx, evt); err != nil {
		c.logger.Warn("回传发送结果失败",
			elog.FieldErr(err),
			elog.Int64("tenantID", evt.TenantID),
			elog.String("event", evt.Event))
	}
}

func (c *EventConsumer) commit(msg *kafka.Message) error {
	if _, err := c.consumer.CommitMessage(msg); err != nil {
		c.logger.Warn("提交消息失败",
			elog.FieldErr(err),
			elog.Any("partition", msg.TopicPartition.Partition),
			elog.Any("offset", msg.TopicPartition.Offset))
		return err
	}
	return nil
}

// isPermanent 这些错误重新消费也不会成功
func isPermanent(err error) bool {
	return errors.Is(err, errs.ErrInvalidParameter) ||
		errors.Is(err, errs.ErrConfigNotFound) ||
		errors.Is(err, errs.ErrNoChannelEnabled)
}
