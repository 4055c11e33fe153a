package channel

import (
	"context"

	"gitee.com/flycash/workshop-notification/internal/domain"
)

// SMSSender 短信还没有接入提供方，始终返回 NOT_IMPLEMENTED
type SMSSender struct{}

func NewSMSSender() *SMSSender {
	return &SMSSender{}
}

func (s *SMSSender) Channel() domain.Channel {
	return domain.ChannelSMS
}

func (s *SMSSender) Send(_ context.Context, _ SendRequest) (SendResult, error) {
	return Failed(CodeNotImplemented, "短信渠道尚未实现"), nil
}
