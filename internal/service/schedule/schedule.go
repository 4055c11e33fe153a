// Package schedule 营业时间相关的纯函数，不做任何 IO，方便测试
package schedule

import (
	"time"

	"gitee.com/flycash/workshop-notification/internal/domain"
)

// MaxScanDays 向后查找可发送日期的上限
const MaxScanDays = 14

// IsWithinBusinessHours now 是否允许立刻发送
func IsWithinBusinessHours(cfg domain.TenantNotificationConfig, now time.Time) bool {
	return cfg.IsWithinBusinessHours(now)
}

// NextValidSlot 下一个可以发送的时间点。
// 今天允许发送且还没到开始时间，返回今天的开始时间；否则逐天往后找第一个允许的日期。
func NextValidSlot(cfg domain.TenantNotificationConfig, now time.Time) time.Time {
	local := now.In(cfg.Location())
	start := cfg.BusinessStart
	if cfg.IsAllowedDay(local) && minuteOfDay(local) < start.Minutes() {
		return start.On(local)
	}
	day := local
	for i := 1; i <= MaxScanDays; i++ {
		day = local.AddDate(0, 0, i)
		if cfg.IsAllowedDay(day) {
			return start.On(day)
		}
	}
	return start.On(day)
}

// SlotAfterDelay 延迟发送的时间点，延迟之后不在营业时间内就顺延到下一个可发送时间
func SlotAfterDelay(cfg domain.TenantNotificationConfig, now time.Time, delay time.Duration) time.Time {
	at := now.Add(delay)
	if cfg.IsWithinBusinessHours(at) {
		return at
	}
	return NextValidSlot(cfg, at)
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
