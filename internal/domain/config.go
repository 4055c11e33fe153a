package domain

import (
	"fmt"
	"maps"
	"strings"
	"time"
	// 容器镜像里不一定有时区数据
	_ "time/tzdata"

	"gitee.com/flycash/workshop-notification/internal/errs"
)

const DefaultTimezone = "America/Sao_Paulo"

// TimeOfDay 一天中的时刻，分钟精度
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay 解析 "HH:MM"
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: 时刻格式错误 %s", errs.ErrInvalidParameter, s)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes 距离零点的分钟数
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// On 把时刻放到 day 所在的那一天（day 的时区）
func (t TimeOfDay) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, day.Location())
}

func (t TimeOfDay) IsValid() bool {
	return t.Hour >= 0 && t.Hour < 24 && t.Minute >= 0 && t.Minute < 60
}

// EventChannelKey 事件-渠道矩阵的键
type EventChannelKey struct {
	Event   Event
	Channel Channel
}

// MarshalText 让矩阵可以直接作为 JSON 对象序列化，格式 EVENT/CHANNEL
func (k EventChannelKey) MarshalText() ([]byte, error) {
	return []byte(string(k.Event) + "/" + string(k.Channel)), nil
}

func (k *EventChannelKey) UnmarshalText(text []byte) error {
	ev, ch, ok := strings.Cut(string(text), "/")
	if !ok {
		return fmt.Errorf("%w: 事件渠道键格式错误 %s", errs.ErrInvalidParameter, text)
	}
	k.Event, k.Channel = Event(ev), Channel(ch)
	return nil
}

type EventChannelSetting struct {
	Enabled      bool
	DelayMinutes int
}

// TenantNotificationConfig 租户通知配置。编排层拿到的是一个快照，不会在发送过程中修改
type TenantNotificationConfig struct {
	TenantID        int64
	EmailEnabled    bool
	WhatsAppEnabled bool
	TelegramEnabled bool
	SMSEnabled      bool
	// FallbackChannel 所有渠道都失败之后的兜底渠道，为空表示不兜底
	FallbackChannel Channel

	BusinessStart   TimeOfDay
	BusinessEnd     TimeOfDay
	SendOnSaturdays bool
	SendOnSundays   bool
	SimulationMode  bool
	MaxRetries      int
	// Timezone IANA 时区，营业时间按这个时区解释
	Timezone string

	// EventSettings 没有配置的组合视为启用且不延迟
	EventSettings map[EventChannelKey]EventChannelSetting

	Ctime int64
	Utime int64
}

// Clone 深拷贝，本地缓存里的配置是共享的
func (c TenantNotificationConfig) Clone() TenantNotificationConfig {
	if c.EventSettings != nil {
		c.EventSettings = maps.Clone(c.EventSettings)
	}
	return c
}

// IsChannelEnabled 渠道的全局开关
func (c TenantNotificationConfig) IsChannelEnabled(ch Channel) bool {
	switch ch {
	case ChannelEmail:
		return c.EmailEnabled
	case ChannelWhatsApp:
		return c.WhatsAppEnabled
	case ChannelTelegram:
		return c.TelegramEnabled
	case ChannelSMS:
		return c.SMSEnabled
	default:
		return false
	}
}

func (c TenantNotificationConfig) EventSetting(ev Event, ch Channel) EventChannelSetting {
	s, ok := c.EventSettings[EventChannelKey{Event: ev, Channel: ch}]
	if !ok {
		return EventChannelSetting{Enabled: true}
	}
	return s
}

func (c TenantNotificationConfig) IsEventEnabled(ev Event, ch Channel) bool {
	return c.EventSetting(ev, ch).Enabled
}

// SelectChannels 选择本次要发送的渠道。
// 指定了 override 时，只有它同时满足全局开关和事件开关才会被选中；
// 否则按 Channels 的顺序返回所有满足条件的渠道。
func (c TenantNotificationConfig) SelectChannels(ev Event, override Channel) []Channel {
	if override != "" {
		if c.IsChannelEnabled(override) && c.IsEventEnabled(ev, override) {
			return []Channel{override}
		}
		return nil
	}
	res := make([]Channel, 0, len(Channels))
	for _, ch := range Channels {
		if c.IsChannelEnabled(ch) && c.IsEventEnabled(ev, ch) {
			res = append(res, ch)
		}
	}
	return res
}

// Location 租户时区，非法时区退回默认值
func (c TenantNotificationConfig) Location() *time.Location {
	tz := c.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc, err = time.LoadLocation(DefaultTimezone)
		if err != nil {
			return time.UTC
		}
	}
	return loc
}

// IsAllowedDay t 需要已经在租户时区下
func (c TenantNotificationConfig) IsAllowedDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday:
		return c.SendOnSaturdays
	case time.Sunday:
		return c.SendOnSundays
	default:
		return true
	}
}

// IsWithinBusinessHours 判断 t 是否落在 [BusinessStart, BusinessEnd) 内。
// 起止相同表示不限制时段，结束早于开始表示跨越零点。
func (c TenantNotificationConfig) IsWithinBusinessHours(t time.Time) bool {
	t = t.In(c.Location())
	if !c.IsAllowedDay(t) {
		return false
	}
	start, end := c.BusinessStart.Minutes(), c.BusinessEnd.Minutes()
	if start == end {
		return true
	}
	now := t.Hour()*60 + t.Minute()
	if start < end {
		return now >= start && now < end
	}
	return now >= start || now < end
}

func (c TenantNotificationConfig) Validate() error {
	if c.TenantID <= 0 {
		return fmt.Errorf("%w: TenantID = %d", errs.ErrInvalidParameter, c.TenantID)
	}
	if !c.BusinessStart.IsValid() || !c.BusinessEnd.IsValid() {
		return fmt.Errorf("%w: 营业时间非法", errs.ErrInvalidParameter)
	}
	if c.FallbackChannel != "" && !c.FallbackChannel.IsValid() {
		return fmt.Errorf("%w: FallbackChannel = %s", errs.ErrInvalidParameter, c.FallbackChannel)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: MaxRetries = %d", errs.ErrInvalidParameter, c.MaxRetries)
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("%w: Timezone = %s", errs.ErrInvalidParameter, c.Timezone)
		}
	}
	for k, v := range c.EventSettings {
		if !k.Event.IsValid() || !k.Channel.IsValid() {
			return fmt.Errorf("%w: 事件渠道组合非法 %s/%s", errs.ErrInvalidParameter, k.Event, k.Channel)
		}
		if v.DelayMinutes < 0 {
			return fmt.Errorf("%w: DelayMinutes = %d", errs.ErrInvalidParameter, v.DelayMinutes)
		}
	}
	return nil
}
