package notification

import (
	"context"
	"fmt"

	"gitee.com/flycash/workshop-notification/internal/domain"
	"gitee.com/flycash/workshop-notification/internal/errs"
	"github.com/gotomicro/ego/core/elog"
)

func (s *service) UpdateStatusByExternalID(ctx context.Context, externalID string, status domain.DeliveryStatus) (bool, error) {
	if externalID == "" {
		return false, fmt.Errorf("%w: externalID 不能为空", errs.ErrInvalidParameter)
	}
	if status != domain.DeliveryStatusDelivered && status != domain.DeliveryStatusRead {
		return false, fmt.Errorf("%w: 回调状态 %s", errs.ErrInvalidParameter, status)
	}
	updated, err := s.repo.UpdateStatusByExternalID(ctx, externalID, status)
	if err != nil {
		return false, err
	}
	if !updated {
		// 乱序或者重复的回调，直接忽略
		s.logger.Debug("回调没有匹配的投递记录",
			elog.String("externalID", externalID),
			elog.String("status", status.String()))
	}
	return updated, nil
}

func (s *service) Cancel(ctx context.Context, id uint64) (domain.DeliveryRecord, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.DeliveryRecord{}, err
	}
	if !record.Status.CanTransitionTo(domain.DeliveryStatusCanceled) {
		return domain.DeliveryRecord{}, fmt.Errorf("%w: id=%d status=%s", errs.ErrNotCancellable, id, record.Status)
	}
	if err = s.repo.Cancel(ctx, record); err != nil {
		return domain.DeliveryRecord{}, err
	}
	// 和数据库保持一致，错误信息保留
	record.Status = domain.DeliveryStatusCanceled
	record.ExternalID = ""
	record.Version++
	return record, nil
}

func (s *service) CancelChannel(ctx context.Context, tenantID int64, ch domain.Channel) (int64, error) {
	if tenantID <= 0 || !ch.IsValid() {
		return 0, fmt.Errorf("%w: tenantID=%d channel=%s", errs.ErrInvalidParameter, tenantID, ch)
	}
	return s.repo.CancelByChannel(ctx, tenantID, ch)
}

func (s *service) GetRecord(ctx context.Context, id uint64) (domain.DeliveryRecord, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListRecords(ctx context.Context, q domain.DeliveryQuery) ([]domain.DeliveryRecord, error) {
	if q.TenantID <= 0 {
		return nil, fmt.Errorf("%w: 查询必须指定 TenantID", errs.ErrInvalidParameter)
	}
	return s.repo.Find(ctx, q)
}

func (s *service) NotifyAsync(ctx context.Context, req domain.DispatchRequest) {
	// 在调用方的 goroutine 里拿额度，后台发送满了就让调用方等
	if err := s.asyncSem.Acquire(ctx, 1); err != nil {
		s.logger.Error("异步发送获取并发额度失败，丢弃请求",
			elog.FieldErr(err),
			elog.Int64("tenantID", req.TenantID),
			elog.String("event", req.Event.String()))
		return
	}
	req = req.Clone()
	ctx = context.WithoutCancel(ctx)
	go func() {
		defer s.asyncSem.Release(1)

		res, err := s.Notify(ctx, req)
		if err != nil {
			s.logger.Warn("异步发送失败",
				elog.FieldErr(err),
				elog.Int64("tenantID", req.TenantID),
				elog.String("event", req.Event.String()))
			return
		}
		s.logger.Info("异步发送完成",
			elog.Int64("tenantID", req.TenantID),
			elog.String("event", req.Event.String()),
			elog.String("status", res.Status.String()),
			elog.String("message", res.Message))
	}()
}
