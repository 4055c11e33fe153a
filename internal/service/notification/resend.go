package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/workshop-notification/internal/domain"
	"gitee.com/flycash/workshop-notification/internal/errs"
	"gitee.com/flycash/workshop-notification/internal/service/schedule"
	"github.com/gotomicro/ego/core/elog"
	"github.com/hashicorp/go-multierror"
)

func (s *service) Resend(ctx context.Context, id uint64) (domain.DeliveryRecord, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.DeliveryRecord{}, err
	}
	if !record.Status.IsRetryable() {
		return domain.DeliveryRecord{}, fmt.Errorf("%w: id=%d status=%s", errs.ErrNotRetryable, id, record.Status)
	}
	cfg, err := s.configSvc.Get(ctx, record.TenantID)
	if err != nil {
		return domain.DeliveryRecord{}, fmt.Errorf("读取租户通知配置失败: %w", err)
	}
	if record.Attempts >= cfg.MaxRetries {
		return domain.DeliveryRecord{}, fmt.Errorf("%w: id=%d attempts=%d max=%d",
			errs.ErrRetryLimitExceeded, id, record.Attempts, cfg.MaxRetries)
	}

	// 先原子地认领，另一个实例同时重发这条记录时只有一个能成功
	claimed, err := s.repo.Claim(ctx, record)
	if err != nil {
		return domain.DeliveryRecord{}, err
	}
	claimed.Attempts++
	s.redeliver(ctx, cfg, &claimed)
	return s.repo.SaveResult(ctx, claimed)
}

// redeliver 基于记录上的变量快照重新渲染并发送
func (s *service) redeliver(ctx context.Context, cfg domain.TenantNotificationConfig, record *domain.DeliveryRecord) {
	if record.VariablesCorrupted {
		record.MarkFailed(codeTemplateUnavailable, "变量快照无法解析")
		return
	}
	if err := s.render(ctx, record); err != nil {
		record.MarkFailed(codeTemplateUnavailable, err.Error())
		return
	}
	s.deliver(ctx, cfg, record, s.attachmentFromRecord(ctx, *record), record.IgnoreSimulation)
}

func (s *service) ProcessDue(ctx context.Context, batchSize int) (int, error) {
	records, err := s.repo.FindDueScheduled(ctx, s.now(), batchSize)
	if err != nil {
		return 0, err
	}
	var (
		processed int
		result    *multierror.Error
	)
	for _, record := range records {
		if ctx.Err() != nil {
			break
		}
		ok, err1 := s.processDueRecord(ctx, record)
		if err1 != nil {
			result = multierror.Append(result, err1)
			continue
		}
		if ok {
			processed++
		}
	}
	return processed, result.ErrorOrNil()
}

// processDueRecord 返回 false 表示记录已经被别的实例认领
func (s *service) processDueRecord(ctx context.Context, record domain.DeliveryRecord) (bool, error) {
	claimed, err := s.repo.Claim(ctx, record)
	if errors.Is(err, errs.ErrDeliveryVersionMismatch) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	cfg, err := s.configSvc.Get(ctx, claimed.TenantID)
	switch {
	case errors.Is(err, errs.ErrConfigNotFound):
		claimed.MarkFailed(codeConfigNotFound, err.Error())
	case err != nil:
		// 认领了但是没有发送，交给 RecoverStuck 之后再处理
		return false, err
	case !claimed.Fallback && !cfg.IsChannelEnabled(claimed.Channel), !cfg.IsEventEnabled(claimed.Event, claimed.Channel):
		claimed.MarkCanceled(codeChannelDisabled, "渠道已经被租户关闭")
	case !cfg.IsWithinBusinessHours(s.now()):
		// 配置在推迟期间被修改过，重新计算发送时间
		claimed.MarkScheduled(schedule.NextValidSlot(cfg, s.now()))
	default:
		s.redeliver(ctx, cfg, &claimed)
	}
	if _, err = s.repo.SaveResult(ctx, claimed); err != nil {
		return false, err
	}
	return true, nil
}

func (s *service) RetryFailed(ctx context.Context, batchSize int) (int, error) {
	records, err := s.repo.FindRetryable(ctx, s.now().Add(-s.opts.RetryInterval), batchSize)
	if err != nil {
		return 0, err
	}
	var (
		retried int
		result  *multierror.Error
	)
	for _, record := range records {
		if ctx.Err() != nil {
			break
		}
		_, err1 := s.Resend(ctx, record.ID)
		switch {
		case err1 == nil:
			retried++
		case errors.Is(err1, errs.ErrRetryLimitExceeded), errors.Is(err1, errs.ErrConfigNotFound):
			// 租户调低了重发上限或者删掉了配置，这条记录不再参与自动重发
			if err2 := s.repo.MarkExhausted(ctx, record.ID); err2 != nil {
				result = multierror.Append(result, err2)
			}
		case errors.Is(err1, errs.ErrNotRetryable), errors.Is(err1, errs.ErrDeliveryVersionMismatch):
			// 在查询之后被别人处理了
		default:
			s.logger.Warn("自动重发失败", elog.FieldErr(err1), elog.Any("recordID", record.ID))
			result = multierror.Append(result, err1)
		}
	}
	return retried, result.ErrorOrNil()
}

func (s *service) RecoverStuck(ctx context.Context, batchSize int) (int64, error) {
	return s.repo.MarkTimeoutPendingAsFailed(ctx, s.now().Add(-s.opts.StuckTimeout), batchSize)
}

func (s *service) PurgeBefore(ctx context.Context, before time.Time, batchSize int) (int64, error) {
	return s.repo.DeleteBefore(ctx, before, batchSize)
}
