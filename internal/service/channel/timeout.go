package channel

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// WithTimeout 保证一次发送不会超过 timeout，提供方不理会 ctx 也一样
func WithTimeout(timeout time.Duration) func(Sender) Sender {
	return func(s Sender) Sender {
		return &timeoutSender{Sender: s, timeout: timeout}
	}
}

type timeoutSender struct {
	Sender
	timeout time.Duration
}

type sendOutcome struct {
	res SendResult
	err error
}

func (s *timeoutSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan sendOutcome, 1)
	go func() {
		res, err := s.Sender.Send(ctx, req)
		done <- sendOutcome{res: res, err: err}
	}()

	select {
	case o := <-done:
		return o.res, o.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Failed(CodeTimeout, fmt.Sprintf("渠道 %s 在 %s 内没有响应", s.Channel(), s.timeout)), nil
		}
		return SendResult{}, ctx.Err()
	}
}
