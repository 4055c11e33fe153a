package schedule

import (
	"testing"
	"time"

	"gitee.com/flycash/workshop-notification/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weekdayConfig() domain.TenantNotificationConfig {
	return domain.TenantNotificationConfig{
		TenantID:      1,
		BusinessStart: domain.TimeOfDay{Hour: 8},
		BusinessEnd:   domain.TimeOfDay{Hour: 18},
		Timezone:      "America/Sao_Paulo",
	}
}

func saoPaulo(t *testing.T) *time.Location {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	return loc
}

func TestNextValidSlot(t *testing.T) {
	t.Parallel()
	loc := saoPaulo(t)

	testCases := []struct {
		name   string
		cfg    func() domain.TenantNotificationConfig
		now    time.Time
		wantAt time.Time
	}{
		{
			name:   "工作日开始之前，返回当天开始时间",
			cfg:    weekdayConfig,
			now:    time.Date(2025, 6, 2, 6, 30, 0, 0, loc),
			wantAt: time.Date(2025, 6, 2, 8, 0, 0, 0, loc),
		},
		{
			name:   "工作日结束之后，返回第二天开始时间",
			cfg:    weekdayConfig,
			now:    time.Date(2025, 6, 2, 19, 0, 0, 0, loc),
			wantAt: time.Date(2025, 6, 3, 8, 0, 0, 0, loc),
		},
		{
			name:   "周五晚上，跳过周末",
			cfg:    weekdayConfig,
			now:    time.Date(2025, 6, 6, 20, 0, 0, 0, loc),
			wantAt: time.Date(2025, 6, 9, 8, 0, 0, 0, loc),
		},
		{
			name:   "周六早上，不允许周六，跳到周一",
			cfg:    weekdayConfig,
			now:    time.Date(2025, 6, 7, 7, 0, 0, 0, loc),
			wantAt: time.Date(2025, 6, 9, 8, 0, 0, 0, loc),
		},
		{
			name: "周五晚上，允许周六",
			cfg: func() domain.TenantNotificationConfig {
				cfg := weekdayConfig()
				cfg.SendOnSaturdays = true
				return cfg
			},
			now:    time.Date(2025, 6, 6, 20, 0, 0, 0, loc),
			wantAt: time.Date(2025, 6, 7, 8, 0, 0, 0, loc),
		},
		{
			name: "周六晚上，只允许周日",
			cfg: func() domain.TenantNotificationConfig {
				cfg := weekdayConfig()
				cfg.SendOnSundays = true
				return cfg
			},
			now:    time.Date(2025, 6, 7, 21, 0, 0, 0, loc),
			wantAt: time.Date(2025, 6, 8, 8, 0, 0, 0, loc),
		},
		{
			name:   "输入是UTC，按租户时区计算",
			cfg:    weekdayConfig,
			now:    time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
			wantAt: time.Date(2025, 6, 2, 8, 0, 0, 0, loc),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := NextValidSlot(tc.cfg(), tc.now)
			assert.True(t, tc.wantAt.Equal(got), "want %s, got %s", tc.wantAt, got)
		})
	}
}

func TestNextValidSlot_Deterministic(t *testing.T) {
	t.Parallel()
	loc := saoPaulo(t)
	now := time.Date(2025, 6, 6, 23, 59, 0, 0, loc)
	cfg := weekdayConfig()
	first := NextValidSlot(cfg, now)
	for i := 0; i < 10; i++ {
		assert.True(t, first.Equal(NextValidSlot(cfg, now)))
	}
	assert.True(t, first.After(now))
	assert.True(t, cfg.IsWithinBusinessHours(first))
}

func TestIsWithinBusinessHours(t *testing.T) {
	t.Parallel()
	loc := saoPaulo(t)

	testCases := []struct {
		name string
		cfg  func() domain.TenantNotificationConfig
		now  time.Time
		want bool
	}{
		{
			name: "开始时间包含在内",
			cfg:  weekdayConfig,
			now:  time.Date(2025, 6, 2, 8, 0, 0, 0, loc),
			want: true,
		},
		{
			name: "结束时间不包含",
			cfg:  weekdayConfig,
			now:  time.Date(2025, 6, 2, 18, 0, 0, 0, loc),
			want: false,
		},
		{
			name: "周日不允许",
			cfg:  weekdayConfig,
			now:  time.Date(2025, 6, 8, 10, 0, 0, 0, loc),
			want: false,
		},
		{
			name: "起止相同不限制时段",
			cfg: func() domain.TenantNotificationConfig {
				cfg := weekdayConfig()
				cfg.BusinessStart = domain.TimeOfDay{}
				cfg.BusinessEnd = domain.TimeOfDay{}
				return cfg
			},
			now:  time.Date(2025, 6, 2, 3, 0, 0, 0, loc),
			want: true,
		},
		{
			name: "跨零点窗口，凌晨在窗口内",
			cfg: func() domain.TenantNotificationConfig {
				cfg := weekdayConfig()
				cfg.BusinessStart = domain.TimeOfDay{Hour: 22}
				cfg.BusinessEnd = domain.TimeOfDay{Hour: 6}
				return cfg
			},
			now:  time.Date(2025, 6, 3, 2, 0, 0, 0, loc),
			want: true,
		},
		{
			name: "跨零点窗口，中午不在窗口内",
			cfg: func() domain.TenantNotificationConfig {
				cfg := weekdayConfig()
				cfg.BusinessStart = domain.TimeOfDay{Hour: 22}
				cfg.BusinessEnd = domain.TimeOfDay{Hour: 6}
				return cfg
			},
			now:  time.Date(2025, 6, 3, 12, 0, 0, 0, loc),
			want: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, IsWithinBusinessHours(tc.cfg(), tc.now))
		})
	}
}

func TestSlotAfterDelay(t *testing.T) {
	t.Parallel()
	loc := saoPaulo(t)
	cfg := weekdayConfig()

	// 延迟之后仍在营业时间内
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, loc)
	got := SlotAfterDelay(cfg, now, 30*time.Minute)
	assert.True(t, time.Date(2025, 6, 2, 10, 30, 0, 0, loc).Equal(got))

	// 延迟之后超出营业时间，顺延到第二天
	now = time.Date(2025, 6, 2, 17, 45, 0, 0, loc)
	got = SlotAfterDelay(cfg, now, 30*time.Minute)
	assert.True(t, time.Date(2025, 6, 3, 8, 0, 0, 0, loc).Equal(got))
}
