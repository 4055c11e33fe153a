package notification

import (
	"context"
	"strconv"

	"gitee.com/flycash/workshop-notification/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracedService 为编排服务的主要入口添加链路追踪，其余方法直接透传
type TracedService struct {
	Service
	tracer trace.Tracer
}

func NewTracedService(svc Service) *TracedService {
	return &TracedService{
		Service: svc,
		tracer:  otel.Tracer("workshop-notification/notification"),
	}
}

func (t *TracedService) Notify(ctx context.Context, req domain.DispatchRequest) (domain.DispatchResult, error) {
	ctx, span := t.tracer.Start(ctx, "NotificationService.Notify",
		trace.WithAttributes(
			attribute.Int64("notification.tenantId", req.TenantID),
			attribute.String("notification.event", req.Event.String()),
			attribute.String("notification.channel", req.Channel.String()),
			attribute.Bool("notification.forceSend", req.ForceSend),
		))
	defer span.End()

	res, err := t.Service.Notify(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}
	span.SetAttributes(
		attribute.String("notification.status", res.Status.String()),
		attribute.Int("notification.channels", len(res.Channels)),
	)
	return res, nil
}

func (t *TracedService) Resend(ctx context.Context, id uint64) (domain.DeliveryRecord, error) {
	ctx, span := t.tracer.Start(ctx, "NotificationService.Resend",
		trace.WithAttributes(attribute.String("notification.recordId", strconv.FormatUint(id, 10))))
	defer span.End()

	record, err := t.Service.Resend(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return record, err
	}
	span.SetAttributes(attribute.String("notification.status", record.Status.String()))
	return record, nil
}

func (t *TracedService) ProcessDue(ctx context.Context, batchSize int) (int, error) {
	ctx, span := t.tracer.Start(ctx, "NotificationService.ProcessDue")
	defer span.End()

	cnt, err := t.Service.ProcessDue(ctx, batchSize)
	span.SetAttributes(attribute.Int("notification.processed", cnt))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return cnt, err
}
