package domain

import (
	"fmt"
	"maps"

	"gitee.com/flycash/workshop-notification/internal/errs"
)

// Attachment 随通知发送的附件，邮件直接内联，聊天渠道通过临时链接获取
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (a *Attachment) IsEmpty() bool {
	return a == nil || len(a.Data) == 0
}

// DispatchRequest 一次通知请求，构造之后不应该再修改
type DispatchRequest struct {
	TenantID      int64
	Event         Event
	Recipient     string
	RecipientName string
	// ChannelRecipients 按渠道覆盖收件人，比如邮件用邮箱、WhatsApp 用手机号
	ChannelRecipients map[Channel]string
	// Channel 指定渠道，为空时按租户配置选择
	Channel   Channel
	Variables map[string]string

	// 关联ID，0 表示没有
	ServiceOrderID int64
	CustomerID     int64
	UserID         int64

	// ForceSend 忽略营业时间限制
	ForceSend        bool
	IgnoreSimulation bool
	Attachment       *Attachment
}

func (r DispatchRequest) Validate() error {
	if r.TenantID <= 0 {
		return fmt.Errorf("%w: TenantID = %d", errs.ErrInvalidParameter, r.TenantID)
	}
	if !r.Event.IsValid() {
		return fmt.Errorf("%w: Event = %s", errs.ErrInvalidParameter, r.Event)
	}
	if r.Recipient == "" {
		return fmt.Errorf("%w: Recipient 不能为空", errs.ErrInvalidParameter)
	}
	if r.Channel != "" && !r.Channel.IsValid() {
		return fmt.Errorf("%w: Channel = %s", errs.ErrInvalidParameter, r.Channel)
	}
	return nil
}

// SystemTriggered 没有操作人的请求，由系统任务触发
func (r DispatchRequest) SystemTriggered() bool {
	return r.UserID == 0
}

// RecipientFor 渠道上的收件人，没有覆盖时使用 Recipient
func (r DispatchRequest) RecipientFor(ch Channel) string {
	if v, ok := r.ChannelRecipients[ch]; ok && v != "" {
		return v
	}
	return r.Recipient
}

// Clone 深拷贝，异步发送时和调用方彻底隔离
func (r DispatchRequest) Clone() DispatchRequest {
	r.Variables = r.CopyVariables()
	r.ChannelRecipients = maps.Clone(r.ChannelRecipients)
	if r.Attachment != nil {
		att := *r.Attachment
		att.Data = append([]byte(nil), att.Data...)
		r.Attachment = &att
	}
	return r
}

// CopyVariables 返回变量的副本，避免和调用方共享同一个 map
func (r DispatchRequest) CopyVariables() map[string]string {
	res := make(map[string]string, len(r.Variables))
	maps.Copy(res, r.Variables)
	return res
}

// DispatchStatus 一次请求的聚合结果
type DispatchStatus string

const (
	DispatchStatusSuccess   DispatchStatus = "SUCESSO"
	DispatchStatusPartial   DispatchStatus = "PARCIAL"
	DispatchStatusFailed    DispatchStatus = "FALHA"
	DispatchStatusScheduled DispatchStatus = "AGENDADO"
)

func (s DispatchStatus) String() string {
	return string(s)
}

// ChannelResult 单个渠道的结果
type ChannelResult struct {
	Channel      Channel
	RecordID     uint64
	Status       DeliveryStatus
	ExternalID   string
	ErrorCode    string
	ErrorMessage string
	Fallback     bool
	ScheduledAt  int64
}

type DispatchResult struct {
	Status   DispatchStatus
	Message  string
	Channels []ChannelResult
}

// Aggregate 根据各渠道结果计算聚合状态，AGENDADO 的渠道不参与计算
func Aggregate(results []ChannelResult) DispatchStatus {
	var attempted, succeeded int
	for _, r := range results {
		if r.Status == DeliveryStatusScheduled {
			continue
		}
		attempted++
		if r.Status.IsSuccess() {
			succeeded++
		}
	}
	switch {
	case attempted == 0 && len(results) > 0:
		return DispatchStatusScheduled
	case attempted > 0 && succeeded == attempted:
		return DispatchStatusSuccess
	case succeeded > 0:
		return DispatchStatusPartial
	default:
		return DispatchStatusFailed
	}
}

// AllFailed 所有实际尝试过的渠道都失败了
func AllFailed(results []ChannelResult) bool {
	attempted := 0
	for _, r := range results {
		if r.Status == DeliveryStatusScheduled {
			continue
		}
		attempted++
		if r.Status.IsSuccess() {
			return false
		}
	}
	return attempted > 0
}
