package notification

import (
	"context"
	"fmt"
	"slices"
	"time"

	"gitee.com/flycash/workshop-notification/internal/domain"
	"gitee.com/flycash/workshop-notification/internal/errs"
	"gitee.com/flycash/workshop-notification/internal/service/schedule"
	"github.com/gotomicro/ego/core/elog"
	"golang.org/x/sync/errgroup"
)

// dispatch 一次 Notify 调用里所有渠道共享的只读数据
type dispatch struct {
	req       domain.DispatchRequest
	cfg       domain.TenantNotificationConfig
	variables map[string]string
	// attachmentToken 附件只保存一次，所有渠道共用
	attachmentToken string
	now             time.Time
}

func (s *service) Notify(ctx context.Context, req domain.DispatchRequest) (domain.DispatchResult, error) {
	if err := req.Validate(); err != nil {
		return failedResult(err), err
	}
	cfg, err := s.configSvc.Get(ctx, req.TenantID)
	if err != nil {
		return failedResult(err), fmt.Errorf("读取租户通知配置失败: %w", err)
	}
	channels := cfg.SelectChannels(req.Event, req.Channel)
	if len(channels) == 0 {
		err = fmt.Errorf("%w: tenantID=%d event=%s", errs.ErrNoChannelEnabled, req.TenantID, req.Event)
		return failedResult(err), err
	}

	d := dispatch{
		req:       req,
		cfg:       cfg,
		variables: req.CopyVariables(),
		now:       s.now(),
	}
	d.attachmentToken = s.storeAttachment(ctx, req)

	// 营业时间之外，所有渠道都推迟到下一个可发送时间，不调用任何发送器
	if !req.ForceSend && !cfg.IsWithinBusinessHours(d.now) {
		slot := schedule.NextValidSlot(cfg, d.now)
		results := make([]domain.ChannelResult, 0, len(channels))
		for _, ch := range channels {
			results = append(results, s.scheduleChannel(ctx, d, ch, slot))
		}
		return domain.DispatchResult{
			Status:   domain.DispatchStatusScheduled,
			Message:  fmt.Sprintf("营业时间之外，推迟到 %s 发送", slot.Format(time.RFC3339)),
			Channels: results,
		}, nil
	}

	results := make([]domain.ChannelResult, len(channels))
	var eg errgroup.Group
	for i, ch := range channels {
		if delay := s.delayOf(d, ch); delay > 0 {
			results[i] = s.scheduleChannel(ctx, d, ch, schedule.SlotAfterDelay(cfg, d.now, delay))
			continue
		}
		eg.Go(func() error {
			results[i] = s.dispatchChannel(ctx, d, ch, false)
			return nil
		})
	}
	// 渠道之间互不影响，这里不会有 error
	_ = eg.Wait()

	if fb := cfg.FallbackChannel; fb != "" && domain.AllFailed(results) && !slices.Contains(channels, fb) {
		s.logger.Info("所有渠道都失败，尝试兜底渠道",
			elog.Int64("tenantID", req.TenantID),
			elog.String("event", req.Event.String()),
			elog.String("fallback", fb.String()))
		results = append(results, s.dispatchChannel(ctx, d, fb, true))
	}

	status := domain.Aggregate(results)
	return domain.DispatchResult{
		Status:   status,
		Message:  summarize(status, results),
		Channels: results,
	}, nil
}

// delayOf 事件和渠道配置的延迟，强制发送时忽略
func (s *service) delayOf(d dispatch, ch domain.Channel) time.Duration {
	if d.req.ForceSend {
		return 0
	}
	return time.Duration(d.cfg.EventSetting(d.req.Event, ch).DelayMinutes) * time.Minute
}

func (s *service) newRecord(d dispatch, ch domain.Channel) domain.DeliveryRecord {
	return domain.DeliveryRecord{
		TenantID:         d.req.TenantID,
		Event:            d.req.Event,
		Channel:          ch,
		Recipient:        d.req.RecipientFor(ch),
		RecipientName:    d.req.RecipientName,
		Variables:        d.variables,
		ServiceOrderID:   d.req.ServiceOrderID,
		CustomerID:       d.req.CustomerID,
		UserID:           d.req.UserID,
		MaxAttempts:      d.cfg.MaxRetries,
		AttachmentToken:  d.attachmentToken,
		IgnoreSimulation: d.req.IgnoreSimulation,
	}
}

// scheduleChannel 写一条 AGENDADO 记录，到期后由 ProcessDue 发送
func (s *service) scheduleChannel(ctx context.Context, d dispatch, ch domain.Channel, at time.Time) domain.ChannelResult {
	record := s.newRecord(d, ch)
	// 内容以真正发送时渲染的为准，这里先渲染一次方便查看
	_ = s.render(ctx, &record)
	record.MarkScheduled(at)
	return s.persist(ctx, record).Result()
}

// dispatchChannel 渲染并发送一个渠道，结果写入一条新记录。任何失败都体现在记录里
func (s *service) dispatchChannel(ctx context.Context, d dispatch, ch domain.Channel, fallback bool) domain.ChannelResult {
	record := s.newRecord(d, ch)
	record.ID = s.nextID()
	record.Fallback = fallback
	if err := s.render(ctx, &record); err != nil {
		record.MarkFailed(codeTemplateUnavailable, err.Error())
		return s.persist(ctx, record).Result()
	}
	s.deliver(ctx, d.cfg, &record, s.attachmentFromRequest(d), d.req.IgnoreSimulation)
	return s.persist(ctx, record).Result()
}

// persist 写入新记录。写入失败只记录日志，调用方依然能拿到这个渠道的结果
func (s *service) persist(ctx context.Context, record domain.DeliveryRecord) domain.DeliveryRecord {
	if record.ID == 0 {
		record.ID = s.nextID()
	}
	if record.ID == 0 {
		return record
	}
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		s.logger.Error("写入投递记录失败",
			elog.FieldErr(err),
			elog.Int64("tenantID", record.TenantID),
			elog.String("channel", record.Channel.String()),
			elog.String("status", record.Status.String()))
		return record
	}
	return created
}

// nextID 失败时返回 0，这条记录不会被写入
func (s *service) nextID() uint64 {
	id, err := s.idGen.NextID()
	if err != nil {
		s.logger.Error("生成投递记录ID失败", elog.FieldErr(err))
		return 0
	}
	return id
}

func failedResult(err error) domain.DispatchResult {
	return domain.DispatchResult{
		Status:  domain.DispatchStatusFailed,
		Message: err.Error(),
	}
}

func summarize(status domain.DispatchStatus, results []domain.ChannelResult) string {
	var sent, failed, scheduled int
	for _, r := range results {
		switch {
		case r.Status == domain.DeliveryStatusScheduled:
			scheduled++
		case r.Status.IsSuccess():
			sent++
		default:
			failed++
		}
	}
	return fmt.Sprintf("%s: 成功 %d, 失败 %d, 推迟 %d", status, sent, failed, scheduled)
}
