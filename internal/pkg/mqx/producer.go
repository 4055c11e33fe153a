package mqx

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// rawProducer *kafka.Producer 的子集
type rawProducer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
}

// GeneralProducer 把 T 序列化成 JSON 发送到固定的 topic，等待 broker 确认
type GeneralProducer[T any] struct {
	producer rawProducer
	topic    string
}

func NewGeneralProducer[T any](producer *kafka.Producer, topic string) (*GeneralProducer[T], error) {
	if producer == nil {
		return nil, fmt.Errorf("kafka producer 不能为空, topic %s", topic)
	}
	return newGeneralProducer[T](producer, topic), nil
}

func newGeneralProducer[T any](producer rawProducer, topic string) *GeneralProducer[T] {
	return &GeneralProducer[T]{producer: producer, topic: topic}
}

func (p *GeneralProducer[T]) Produce(ctx context.Context, evt T) error {
	val, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}
	deliveryChan := make(chan kafka.Event, 1)
	err = p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Value:          val,
	}, deliveryChan)
	if err != nil {
		return fmt.Errorf("发送消息失败: %w", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case e := <-deliveryChan:
		m, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("未知的投递结果 %v", e)
		}
		return m.TopicPartition.Error
	}
}
