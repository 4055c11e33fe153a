package mqx

import (
	"errors"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// Consumer *kafka.Consumer 中消费者用到的方法，方便测试
//
//go:generate mockgen -source=./consumer.go -package=mqxmocks -destination=./mocks/consumer.mock.go Consumer
type Consumer interface {
	ReadMessage(timeout time.Duration) (*kafka.Message, error)
	CommitMessage(msg *kafka.Message) ([]kafka.TopicPartition, error)
	// Seek 把分区的消费位置移到 partition.Offset，下次 ReadMessage 从这里开始
	Seek(partition kafka.TopicPartition, ignoredTimeoutMs int) error
}

// IsTimeout ReadMessage 在 timeout 内没有读到消息
func IsTimeout(err error) bool {
	var kErr kafka.Error
	return errors.As(err, &kErr) && kErr.Code() == kafka.ErrTimedOut
}
