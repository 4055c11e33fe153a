package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gitee.com/flycash/workshop-notification/internal/domain"
	"gitee.com/flycash/workshop-notification/internal/errs"
	repomocks "gitee.com/flycash/workshop-notification/internal/repository/mocks"
	"gitee.com/flycash/workshop-notification/internal/service/channel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/sync/semaphore"
)

func failedRecord(id uint64, attempts int) domain.DeliveryRecord {
	return domain.DeliveryRecord{
		ID:          id,
		TenantID:    tenantID,
		Event:       domain.EventOSFinished,
		Channel:     domain.ChannelEmail,
		Recipient:   "cliente@example.com",
		Variables:   map[string]string{"nome": "Maria", "os": "77"},
		Status:      domain.DeliveryStatusFailed,
		ErrorCode:   "HTTP_500",
		Attempts:    attempts,
		MaxAttempts: 3,
		Version:     2,
	}
}

// expectClaim 认领成功，返回 PENDENTE 且版本加一的记录
func (s *NotificationServiceTestSuite) expectClaim(r domain.DeliveryRecord) {
	s.repo.EXPECT().Claim(gomock.Any(), r).
		DoAndReturn(func(_ context.Context, r domain.DeliveryRecord) (domain.DeliveryRecord, error) {
			r.Status = domain.DeliveryStatusPending
			r.Version++
			return r, nil
		})
}

func (s *NotificationServiceTestSuite) expectSaveResult(assertFn func(r domain.DeliveryRecord)) {
	s.repo.EXPECT().SaveResult(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r domain.DeliveryRecord) (domain.DeliveryRecord, error) {
			assertFn(r)
			r.Version++
			return r, nil
		})
}

func (s *NotificationServiceTestSuite) TestResend() {
	testCases := []struct {
		name   string
		before func()

		wantErr    error
		wantStatus domain.DeliveryStatus
	}{
		{
			name: "失败记录重发成功",
			before: func() {
				r := failedRecord(1, 1)
				s.repo.EXPECT().GetByID(gomock.Any(), uint64(1)).Return(r, nil)
				s.configSvc.EXPECT().Get(gomock.Any(), tenantID).Return(tenantConfig(), nil)
				s.expectClaim(r)
				s.senders[domain.ChannelEmail].EXPECT().Send(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, req channel.SendRequest) (channel.SendResult, error) {
						assert.Equal(s.T(), "Olá Maria, sua OS 77 foi atualizada", req.Body)
						return channel.Succeeded("email-2"), nil
					})
				s.expectSaveResult(func(r domain.DeliveryRecord) {
					assert.Equal(s.T(), domain.DeliveryStatusSent, r.Status)
					assert.Equal(s.T(), "email-2", r.ExternalID)
					assert.Empty(s.T(), r.ErrorCode)
					assert.Equal(s.T(), 2, r.Attempts)
					assert.Equal(s.T(), 3, r.Version)
				})
			},
			wantStatus: domain.DeliveryStatusSent,
		},
		{
			name: "重发再次失败",
			before: func() {
				r := failedRecord(1, 0)
				s.repo.EXPECT().GetByID(gomock.Any(), uint64(1)).Return(r, nil)
				s.configSvc.EXPECT().Get(gomock.Any(), tenantID).Return(tenantConfig(), nil)
				s.expectClaim(r)
				s.expectSend(domain.ChannelEmail, channel.Failed(channel.CodeNetworkError, "connection refused"))
				s.expectSaveResult(func(r domain.DeliveryRecord) {
					assert.Equal(s.T(), channel.CodeNetworkError, r.ErrorCode)
					assert.Equal(s.T(), 1, r.Attempts)
				})
			},
			wantStatus: domain.DeliveryStatusFailed,
		},
		{
			name: "模拟模式下重发不真正发送",
			before: func() {
				r := failedRecord(1, 0)
				cfg := tenantConfig()
				cfg.SimulationMode = true
				s.repo.EXPECT().GetByID(gomock.Any(), uint64(1)).Return(r, nil)
				s.configSvc.EXPECT().Get(gomock.Any(), tenantID).Return(cfg, nil)
				s.expectClaim(r)
				s.expectSaveResult(func(r domain.DeliveryRecord) {
					assert.Equal(s.T(), domain.DeliveryStatusSent, r.Status)
					assert.True(s.T(), strings.HasPrefix(r.ExternalID, "SIM-"))
				})
			},
			wantStatus: domain.DeliveryStatusSent,
		},
		{
			name: "创建时跳过模拟模式的记录重发时也跳过",
			before: func() {
				r := failedRecord(1, 0)
				r.IgnoreSimulation = true
				cfg := tenantConfig()
				cfg.SimulationMode = true
				s.repo.EXPECT().GetByID(gomock.Any(), uint64(1)).Return(r, nil)
				s.configSvc.EXPECT().Get(gomock.Any(), tenantID).Return(cfg, nil)
				s.expectClaim(r)
				s.expectSend(domain.ChannelEmail, channel.Succeeded("email-3"))
				s.expectSaveResult(func(r domain.DeliveryRecord) {
					assert.Equal(s.T(), "email-3", r.ExternalID)
					assert.True(s.T(), r.IgnoreSimulation)
				})
			},
			wantStatus: domain.DeliveryStatusSent,
		},
		{
			name: "变量快照损坏",
			before: func() {
				r := failedRecord(1, 0)
				r.Variables, r.VariablesCorrupted = nil, true
				s.repo.EXPECT().GetByID(gomock.Any(), uint64(1)).Return(r, nil)
				s.configSvc.EXPECT().Get(gomock.Any(), tenantID).Return(tenantConfig(), nil)
				s.expectClaim(r)
				// 不会调用任何发送器
				s.expectSaveResult(func(r domain.DeliveryRecord) {
					assert.Equal(s.T(), domain.DeliveryStatusFailed, r.Status)
					assert.Equal(s.T(), codeTemplateUnavailable, r.ErrorCode)
					assert.Equal(s.T(), 1, r.Attempts)
				})
			},
			wantStatus: domain.DeliveryStatusFailed,
		},
		{
			name: "已送达的记录不能重发",
			before: func() {
				r := failedRecord(1, 0)
				r.Status = domain.DeliveryStatusDelivered
				s.repo.EXPECT().GetByID(gomock.Any(), uint64(1)).Return(r, nil)
			},
			wantErr: errs.ErrNotRetryable,
		},
		{
			name: "达到重发上限",
			before: func() {
				s.repo.EXPECT().GetByID(gomock.Any(), uint64(1)).Return(failedRecord(1, 3), nil)
				s.configSvc.EXPECT().Get(gomock.Any(), tenantID).Return(tenantConfig(), nil)
			},
			wantErr: errs.ErrRetryLimitExceeded,
		},
		{
			name: "记录不存在",
			before: func() {
				s.repo.EXPECT().GetByID(gomock.Any(), uint64(1)).Return(domain.DeliveryRecord{}, errs.ErrDeliveryNotFound)
			},
			wantErr: errs.ErrDeliveryNotFound,
		},
		{
			name: "被其他实例抢先认领",
			before: func() {
				r := failedRecord(1, 0)
				s.repo.EXPECT().GetByID(gomock.Any(), uint64(1)).Return(r, nil)
				s.configSvc.EXPECT().Get(gomock.Any(), tenantID).Return(tenantConfig(), nil)
				s.repo.EXPECT().Claim(gomock.Any(), r).Return(domain.DeliveryRecord{}, errs.ErrDeliveryVersionMismatch)
			},
			wantErr: errs.ErrDeliveryVersionMismatch,
		},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.SetupTest()
			defer s.TearDownTest()
			t := s.T()
			tc.before()

			got, err := s.svc.Resend(context.Background(), 1)
			assert.ErrorIs(t, err, tc.wantErr)
			if err != nil {
				return
			}
			assert.Equal(t, tc.wantStatus, got.Status)
		})
	}
}

func (s *NotificationServiceTestSuite) TestProcessDue() {
	t := s.T()
	due := func(id uint64, ch domain.Channel) domain.DeliveryRecord {
		r := failedRecord(id, 0)
		r.Status = domain.DeliveryStatusScheduled
		r.ErrorCode = ""
		r.Channel = ch
		r.ScheduledAt = s.now.Add(-time.Minute)
		return r
	}
	sent, taken, disabled, gone := due(1, domain.ChannelEmail), due(2, domain.ChannelEmail), due(3, domain.ChannelTelegram), due(4, domain.ChannelEmail)
	gone.TenantID = 99

	s.repo.EXPECT().FindDueScheduled(gomock.Any(), s.now, 10).
		Return([]domain.DeliveryRecord{sent, taken, disabled, gone}, nil)

	s.expectClaim(sent)
	s.repo.EXPECT().Claim(gomock.Any(), taken).Return(domain.DeliveryRecord{}, errs.ErrDeliveryVersionMismatch)
	s.expectClaim(disabled)
	s.expectClaim(gone)

	s.configSvc.EXPECT().Get(gomock.Any(), tenantID).Return(tenantConfig(), nil).Times(2)
	s.configSvc.EXPECT().Get(gomock.Any(), int64(99)).
		Return(domain.TenantNotificationConfig{}, fmt.Errorf("%w: 99", errs.ErrConfigNotFound))
	s.expectSend(domain.ChannelEmail, channel.Succeeded("email-1"))

	saved := make(map[uint64]domain.DeliveryRecord)
	s.repo.EXPECT().SaveResult(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r domain.DeliveryRecord) (domain.DeliveryRecord, error) {
			saved[r.ID] = r
			return r, nil
		}).Times(3)

	cnt, err := s.svc.ProcessDue(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 3, cnt)

	assert.Equal(t, domain.DeliveryStatusSent, saved[1].Status)
	// 定时发送不算重发
	assert.Equal(t, 0, saved[1].Attempts)
	assert.Equal(t, domain.DeliveryStatusCanceled, saved[3].Status)
	assert.Equal(t, codeChannelDisabled, saved[3].ErrorCode)
	assert.Equal(t, domain.DeliveryStatusFailed, saved[4].Status)
	assert.Equal(t, codeConfigNotFound, saved[4].ErrorCode)
}

func (s *NotificationServiceTestSuite) TestProcessDue_Reschedule() {
	t := s.T()
	r := failedRecord(1, 0)
	r.Status = domain.DeliveryStatusScheduled
	cfg := tenantConfig()
	cfg.BusinessStart = domain.TimeOfDay{Hour: 8}
	cfg.BusinessEnd = domain.TimeOfDay{Hour: 9}

	s.repo.EXPECT().FindDueScheduled(gomock.Any(), s.now, 10).Return([]domain.DeliveryRecord{r}, nil)
	s.expectClaim(r)
	s.configSvc.EXPECT().Get(gomock.Any(), tenantID).Return(cfg, nil)
	s.expectSaveResult(func(r domain.DeliveryRecord) {
		assert.Equal(t, domain.DeliveryStatusScheduled, r.Status)
		assert.Equal(t, time.Date(2026, 10, 20, 8, 0, 0, 0, saoPaulo(t)).UnixMilli(), r.ScheduledAt.UnixMilli())
	})

	cnt, err := s.svc.ProcessDue(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, cnt)
}

func (s *NotificationServiceTestSuite) TestRetryFailed() {
	t := s.T()
	ok, exhausted := failedRecord(1, 0), failedRecord(2, 3)
	s.repo.EXPECT().FindRetryable(gomock.Any(), s.now.Add(-s.svc.opts.RetryInterval), 10).
		Return([]domain.DeliveryRecord{ok, exhausted}, nil)

	s.repo.EXPECT().GetByID(gomock.Any(), uint64(1)).Return(ok, nil)
	s.repo.EXPECT().GetByID(gomock.Any(), uint64(2)).Return(exhausted, nil)
	s.configSvc.EXPECT().Get(gomock.Any(), tenantID).Return(tenantConfig(), nil).Times(2)
	s.expectClaim(ok)
	s.expectSend(domain.ChannelEmail, channel.Succeeded("email-1"))
	s.expectSaveResult(func(r domain.DeliveryRecord) {
		assert.Equal(t, uint64(1), r.ID)
	})
	s.repo.EXPECT().MarkExhausted(gomock.Any(), uint64(2)).Return(nil)

	cnt, err := s.svc.RetryFailed(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, cnt)
}

func (s *NotificationServiceTestSuite) TestRetryFailed_ConfigRemoved() {
	t := s.T()
	r := failedRecord(1, 0)
	r.TenantID = 99
	s.repo.EXPECT().FindRetryable(gomock.Any(), gomock.Any(), 10).Return([]domain.DeliveryRecord{r}, nil)
	s.repo.EXPECT().GetByID(gomock.Any(), uint64(1)).Return(r, nil)
	s.configSvc.EXPECT().Get(gomock.Any(), int64(99)).
		Return(domain.TenantNotificationConfig{}, fmt.Errorf("%w: 99", errs.ErrConfigNotFound))
	// 不再参与自动重发，否则每一轮都会报同样的错误
	s.repo.EXPECT().MarkExhausted(gomock.Any(), uint64(1)).Return(nil)

	cnt, err := s.svc.RetryFailed(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 0, cnt)
}

func (s *NotificationServiceTestSuite) TestRetryFailed_AggregatesErrors() {
	t := s.T()
	r := failedRecord(1, 0)
	s.repo.EXPECT().FindRetryable(gomock.Any(), gomock.Any(), 10).Return([]domain.DeliveryRecord{r}, nil)
	s.repo.EXPECT().GetByID(gomock.Any(), uint64(1)).Return(domain.DeliveryRecord{}, errors.New("mock db error"))

	cnt, err := s.svc.RetryFailed(context.Background(), 10)
	assert.Error(t, err)
	assert.Equal(t, 0, cnt)
}

func (s *NotificationServiceTestSuite) TestRecoverStuckAndPurge() {
	t := s.T()
	s.repo.EXPECT().MarkTimeoutPendingAsFailed(gomock.Any(), s.now.Add(-s.svc.opts.StuckTimeout), 20).Return(int64(2), nil)
	cnt, err := s.svc.RecoverStuck(context.Background(), 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cnt)

	before := s.now.AddDate(0, 0, -90)
	s.repo.EXPECT().DeleteBefore(gomock.Any(), before, 100).Return(int64(100), nil)
	cnt, err = s.svc.PurgeBefore(context.Background(), before, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), cnt)
}

func (s *NotificationServiceTestSuite) TestUpdateStatusByExternalID() {
	testCases := []struct {
		name       string
		externalID string
		status     domain.DeliveryStatus
		before     func()

		want    bool
		wantErr error
	}{
		{
			name:       "送达",
			externalID: "email-1",
			status:     domain.DeliveryStatusDelivered,
			before: func() {
				s.repo.EXPECT().UpdateStatusByExternalID(gomock.Any(), "email-1", domain.DeliveryStatusDelivered).Return(true, nil)
			},
			want: true,
		},
		{
			name:       "没有匹配的记录",
			externalID: "unknown",
			status:     domain.DeliveryStatusRead,
			before: func() {
				s.repo.EXPECT().UpdateStatusByExternalID(gomock.Any(), "unknown", domain.DeliveryStatusRead).Return(false, nil)
			},
		},
		{
			name:       "回调不能把状态改为失败",
			externalID: "email-1",
			status:     domain.DeliveryStatusFailed,
			before:     func() {},
			wantErr:    errs.ErrInvalidParameter,
		},
		{
			name:    "外部ID为空",
			status:  domain.DeliveryStatusRead,
			before:  func() {},
			wantErr: errs.ErrInvalidParameter,
		},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.SetupTest()
			defer s.TearDownTest()
			tc.before()
			got, err := s.svc.UpdateStatusByExternalID(context.Background(), tc.externalID, tc.status)
			assert.ErrorIs(s.T(), err, tc.wantErr)
			assert.Equal(s.T(), tc.want, got)
		})
	}
}

func (s *NotificationServiceTestSuite) TestCancel() {
	t := s.T()
	scheduled := failedRecord(1, 0)
	scheduled.Status = domain.DeliveryStatusScheduled
	s.repo.EXPECT().GetByID(gomock.Any(), uint64(1)).Return(scheduled, nil)
	s.repo.EXPECT().Cancel(gomock.Any(), scheduled).Return(nil)

	got, err := s.svc.Cancel(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryStatusCanceled, got.Status)
	assert.Equal(t, scheduled.Version+1, got.Version)

	read := failedRecord(2, 0)
	read.Status = domain.DeliveryStatusRead
	read.ExternalID = "email-1"
	s.repo.EXPECT().GetByID(gomock.Any(), uint64(2)).Return(read, nil)
	_, err = s.svc.Cancel(context.Background(), 2)
	assert.ErrorIs(t, err, errs.ErrNotCancellable)
}

func (s *NotificationServiceTestSuite) TestCancelChannel() {
	t := s.T()
	s.repo.EXPECT().CancelByChannel(gomock.Any(), tenantID, domain.ChannelWhatsApp).Return(int64(5), nil)
	cnt, err := s.svc.CancelChannel(context.Background(), tenantID, domain.ChannelWhatsApp)
	require.NoError(t, err)
	assert.Equal(t, int64(5), cnt)

	_, err = s.svc.CancelChannel(context.Background(), tenantID, "FAX")
	assert.ErrorIs(t, err, errs.ErrInvalidParameter)
}

func (s *NotificationServiceTestSuite) TestListRecords() {
	t := s.T()
	_, err := s.svc.ListRecords(context.Background(), domain.DeliveryQuery{})
	assert.ErrorIs(t, err, errs.ErrInvalidParameter)

	q := domain.DeliveryQuery{TenantID: tenantID, Status: domain.DeliveryStatusFailed, Limit: 20}
	s.repo.EXPECT().Find(gomock.Any(), q).Return([]domain.DeliveryRecord{failedRecord(1, 0)}, nil)
	res, err := s.svc.ListRecords(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, res, 1)
}

func (s *NotificationServiceTestSuite) TestNotifyAsync() {
	t := s.T()
	done := make(chan struct{})
	s.configSvc.EXPECT().Get(gomock.Any(), tenantID).Return(tenantConfig(), nil)
	s.expectSend(domain.ChannelEmail, channel.Succeeded("email-1"))

	req := request()
	req.Channel = domain.ChannelEmail
	// 换一个仓储，确认只写入了一条记录
	repo := repomocks.NewMockDeliveryRepository(s.ctrl)
	s.svc.repo = repo
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r domain.DeliveryRecord) (domain.DeliveryRecord, error) {
			defer close(done)
			// 调用方修改变量不会影响已经提交的请求
			assert.Equal(t, "Maria", r.Variables["nome"])
			return r, nil
		}).Times(1)

	ctx, cancel := context.WithCancel(context.Background())
	s.svc.NotifyAsync(ctx, req)
	cancel()
	req.Variables["nome"] = "João"

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		require.FailNow(t, "异步发送没有完成")
	}
}

func (s *NotificationServiceTestSuite) TestNotifyAsync_WaitsForSlot() {
	t := s.T()
	s.svc.asyncSem = semaphore.NewWeighted(1)
	require.True(t, s.svc.asyncSem.TryAcquire(1))
	// 没有设置任何期望，后台一旦开始发送就会失败
	s.svc.repo = repomocks.NewMockDeliveryRepository(s.ctrl)

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	s.svc.NotifyAsync(ctx, request())
	// 额度被占满时调用方被阻塞，直到 ctx 超时
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	s.svc.asyncSem.Release(1)
	// 放弃的请求没有占用额度
	assert.True(t, s.svc.asyncSem.TryAcquire(1))
}

func (s *NotificationServiceTestSuite) TestNotify_RecordKeepsIgnoreSimulation() {
	t := s.T()
	cfg := tenantConfig()
	cfg.SimulationMode = true
	s.configSvc.EXPECT().Get(gomock.Any(), tenantID).Return(cfg, nil)
	s.expectSend(domain.ChannelEmail, channel.Succeeded("email-1"))

	repo := repomocks.NewMockDeliveryRepository(s.ctrl)
	s.svc.repo = repo
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r domain.DeliveryRecord) (domain.DeliveryRecord, error) {
			// 重发时据此决定是否跳过模拟模式
			assert.True(t, r.IgnoreSimulation)
			return r, nil
		})

	req := request()
	req.Channel = domain.ChannelEmail
	req.IgnoreSimulation = true
	res, err := s.svc.Notify(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.DispatchStatusSuccess, res.Status)
}
