package channel

import (
	"context"
	"strings"

	"github.com/go-kratos/aegis/circuitbreaker"
	"github.com/go-kratos/aegis/circuitbreaker/sre"
	"github.com/gotomicro/ego/core/elog"
)

// WithBreaker 每个渠道一个熔断器，提供方持续不可用时直接失败，不再等超时
func WithBreaker(opts ...sre.Option) func(Sender) Sender {
	return func(s Sender) Sender {
		return &breakerSender{
			Sender:  s,
			breaker: sre.NewBreaker(opts...),
			logger:  elog.DefaultLogger,
		}
	}
}

type breakerSender struct {
	Sender
	breaker circuitbreaker.CircuitBreaker
	logger  *elog.Component
}

func (s *breakerSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	if err := s.breaker.Allow(); err != nil {
		s.logger.Warn("渠道熔断中", elog.String("channel", s.Channel().String()))
		return Failed(CodeCircuitOpen, err.Error()), nil
	}
	res, err := s.Sender.Send(ctx, req)
	if err != nil || isUnavailable(res) {
		s.breaker.MarkFailed()
	} else {
		s.breaker.MarkSuccess()
	}
	return res, err
}

// isUnavailable 只有提供方本身出问题才计入熔断，收件人错误之类的不算
func isUnavailable(res SendResult) bool {
	if res.Success {
		return false
	}
	switch {
	case res.ErrorCode == CodeTimeout, res.ErrorCode == CodeNetworkError:
		return true
	case strings.HasPrefix(res.ErrorCode, "HTTP_5"), res.ErrorCode == "HTTP_429":
		return true
	default:
		return false
	}
}
