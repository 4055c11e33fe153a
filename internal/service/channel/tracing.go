package channel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// WithTracing 为发送器添加链路追踪
func WithTracing() func(Sender) Sender {
	return func(s Sender) Sender {
		return &tracingSender{
			Sender: s,
			tracer: otel.Tracer("workshop-notification/channel"),
		}
	}
}

type tracingSender struct {
	Sender
	tracer trace.Tracer
}

func (s *tracingSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	ctx, span := s.tracer.Start(ctx, "Sender.Send",
		trace.WithAttributes(
			attribute.String("notification.channel", s.Channel().String()),
			attribute.Bool("notification.attachment", req.Attachment != nil),
		))
	defer span.End()

	res, err := s.Sender.Send(ctx, req)
	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case !res.Success:
		span.SetStatus(codes.Error, res.ErrorCode)
		span.SetAttributes(
			attribute.String("notification.errorCode", res.ErrorCode),
			attribute.String("notification.errorMessage", res.ErrorMessage),
		)
	default:
		span.SetAttributes(attribute.String("notification.providerMessageId", res.ProviderMessageID))
	}
	return res, err
}
