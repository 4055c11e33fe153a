package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	notificationmocks "gitee.com/flycash/workshop-notification/internal/service/notification/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestSweepTask_HandleSweep(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		mock    func(svc *notificationmocks.MockService)
		wantErr bool
	}{
		{
			name: "积压时不休眠",
			mock: func(svc *notificationmocks.MockService) {
				svc.EXPECT().RecoverStuck(gomock.Any(), 5).Return(int64(0), nil)
				svc.EXPECT().ProcessDue(gomock.Any(), 5).Return(5, nil)
				svc.EXPECT().RetryFailed(gomock.Any(), 5).Return(1, nil)
			},
		},
		{
			name: "一个步骤失败，其他步骤照常执行",
			mock: func(svc *notificationmocks.MockService) {
				svc.EXPECT().RecoverStuck(gomock.Any(), 5).Return(int64(5), nil)
				svc.EXPECT().ProcessDue(gomock.Any(), 5).Return(0, errors.New("mock db error"))
				svc.EXPECT().RetryFailed(gomock.Any(), 5).Return(0, errors.New("mock db error"))
			},
			wantErr: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			svc := notificationmocks.NewMockService(ctrl)
			tc.mock(svc)

			// 休眠一小时的话测试会超时
			task := NewSweepTask(nil, svc, TaskConfig{BatchSize: 5, Interval: time.Hour})
			err := task.HandleSweep(context.Background())
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSweepTask_IdleSleepsUntilCanceled(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	svc := notificationmocks.NewMockService(ctrl)
	svc.EXPECT().RecoverStuck(gomock.Any(), gomock.Any()).Return(int64(0), nil)
	svc.EXPECT().ProcessDue(gomock.Any(), gomock.Any()).Return(0, nil)
	svc.EXPECT().RetryFailed(gomock.Any(), gomock.Any()).Return(0, nil)

	task := NewSweepTask(nil, svc, TaskConfig{Interval: time.Hour})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	require.NoError(t, task.HandleSweep(ctx))
	assert.Less(t, time.Since(start), time.Second)
}

func TestRetentionCron_Do(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	svc := notificationmocks.NewMockService(ctrl)

	now := time.Date(2026, 10, 19, 3, 0, 0, 0, time.UTC)
	before := now.Add(-30 * 24 * time.Hour)
	gomock.InOrder(
		svc.EXPECT().PurgeBefore(gomock.Any(), before, 500).Return(int64(500), nil),
		svc.EXPECT().PurgeBefore(gomock.Any(), before, 500).Return(int64(500), nil),
		svc.EXPECT().PurgeBefore(gomock.Any(), before, 500).Return(int64(12), nil),
	)

	c := NewRetentionCron(svc, 30*24*time.Hour)
	c.now = func() time.Time { return now }
	require.NoError(t, c.Do(context.Background()))
}

func TestRetentionCron_DoError(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	svc := notificationmocks.NewMockService(ctrl)
	svc.EXPECT().PurgeBefore(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), errors.New("mock db error"))

	c := NewRetentionCron(svc, 0)
	assert.Equal(t, 90*24*time.Hour, c.retention)
	assert.Error(t, c.Do(context.Background()))
}
