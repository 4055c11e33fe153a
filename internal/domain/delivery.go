package domain

import (
	"time"
)

// DeliveryStatus 投递记录状态
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "PENDENTE"  // 发送中，只在被认领后短暂落库
	DeliveryStatusScheduled DeliveryStatus = "AGENDADO"  // 等待营业时间
	DeliveryStatusSent      DeliveryStatus = "ENVIADO"   // 供应商已受理
	DeliveryStatusDelivered DeliveryStatus = "ENTREGUE"  // 供应商回调：已送达
	DeliveryStatusRead      DeliveryStatus = "LIDO"      // 供应商回调：已读
	DeliveryStatusFailed    DeliveryStatus = "FALHA"     // 发送失败
	DeliveryStatusCanceled  DeliveryStatus = "CANCELADO" // 已取消
)

func (s DeliveryStatus) String() string {
	return string(s)
}

func (s DeliveryStatus) IsValid() bool {
	switch s {
	case DeliveryStatusPending, DeliveryStatusScheduled, DeliveryStatusSent,
		DeliveryStatusDelivered, DeliveryStatusRead, DeliveryStatusFailed, DeliveryStatusCanceled:
		return true
	default:
		return false
	}
}

// IsRetryable FALHA 和 AGENDADO 可以重发
func (s DeliveryStatus) IsRetryable() bool {
	return s == DeliveryStatusFailed || s == DeliveryStatusScheduled
}

// IsTerminal 终态不会再参与重发
func (s DeliveryStatus) IsTerminal() bool {
	return s == DeliveryStatusDelivered || s == DeliveryStatusRead || s == DeliveryStatusCanceled
}

// HasExternalID 只有这几个状态的记录带有供应商ID
func (s DeliveryStatus) HasExternalID() bool {
	return s == DeliveryStatusSent || s == DeliveryStatusDelivered || s == DeliveryStatusRead
}

// IsSuccess 供应商已受理，或者之后的回调状态
func (s DeliveryStatus) IsSuccess() bool {
	return s.HasExternalID()
}

// CanTransitionTo 状态机
//
//	初始写入:           ENVIADO | FALHA | AGENDADO
//	AGENDADO -> PENDENTE -> ENVIADO | FALHA   （定时扫描或重发）
//	FALHA    -> PENDENTE -> ENVIADO | FALHA   （重发）
//	ENVIADO  -> ENTREGUE -> LIDO              （供应商回调，只能前进）
//	非终态    -> CANCELADO
func (s DeliveryStatus) CanTransitionTo(next DeliveryStatus) bool {
	if next == DeliveryStatusCanceled {
		return !s.IsTerminal()
	}
	switch s {
	case DeliveryStatusScheduled, DeliveryStatusFailed:
		return next == DeliveryStatusPending
	case DeliveryStatusPending:
		return next == DeliveryStatusSent || next == DeliveryStatusFailed
	case DeliveryStatusSent:
		return next == DeliveryStatusDelivered || next == DeliveryStatusRead
	case DeliveryStatusDelivered:
		return next == DeliveryStatusRead
	default:
		return false
	}
}

// CallbackPredecessors 回调把状态推进到 next 时，允许的前置状态
func CallbackPredecessors(next DeliveryStatus) []DeliveryStatus {
	switch next {
	case DeliveryStatusDelivered:
		return []DeliveryStatus{DeliveryStatusSent}
	case DeliveryStatusRead:
		return []DeliveryStatus{DeliveryStatusSent, DeliveryStatusDelivered}
	default:
		return nil
	}
}

// DeliveryRecord 投递记录，每个 (请求, 渠道) 一条
type DeliveryRecord struct {
	ID            uint64
	TenantID      int64
	Event         Event
	Channel       Channel
	Recipient     string
	RecipientName string
	Subject       string
	Message       string
	// Variables 发送时使用的变量快照，重发时基于它重新渲染
	Variables map[string]string
	// VariablesCorrupted 读取时快照无法解析，不落库
	VariablesCorrupted bool
	TemplateID         int64

	ServiceOrderID int64
	CustomerID     int64
	UserID         int64

	Status       DeliveryStatus
	ExternalID   string
	ErrorCode    string
	ErrorMessage string
	Attempts     int
	// MaxAttempts 创建时的租户重发上限快照，定时重发据此筛选
	MaxAttempts     int
	Fallback        bool
	AttachmentToken string
	// IgnoreSimulation 创建时的请求要求跳过模拟模式，重发时沿用
	IgnoreSimulation bool

	ScheduledAt time.Time
	SentAt      time.Time
	Version     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MarkSent 发送成功
func (r *DeliveryRecord) MarkSent(externalID string, at time.Time) {
	r.Status = DeliveryStatusSent
	r.ExternalID = externalID
	r.ErrorCode, r.ErrorMessage = "", ""
	r.SentAt = at
}

// MarkFailed 发送失败，清空供应商ID
func (r *DeliveryRecord) MarkFailed(code, message string) {
	r.Status = DeliveryStatusFailed
	r.ExternalID = ""
	r.ErrorCode = code
	r.ErrorMessage = message
}

// MarkScheduled 推迟到营业时间发送
func (r *DeliveryRecord) MarkScheduled(at time.Time) {
	r.Status = DeliveryStatusScheduled
	r.ExternalID = ""
	r.ScheduledAt = at
}

// MarkCanceled 取消之后不会再被发送
func (r *DeliveryRecord) MarkCanceled(code, message string) {
	r.Status = DeliveryStatusCanceled
	r.ExternalID = ""
	r.ErrorCode = code
	r.ErrorMessage = message
}

// Result 转换成返回给调用方的渠道结果
func (r DeliveryRecord) Result() ChannelResult {
	res := ChannelResult{
		Channel:      r.Channel,
		RecordID:     r.ID,
		Status:       r.Status,
		ExternalID:   r.ExternalID,
		ErrorCode:    r.ErrorCode,
		ErrorMessage: r.ErrorMessage,
		Fallback:     r.Fallback,
	}
	if !r.ScheduledAt.IsZero() {
		res.ScheduledAt = r.ScheduledAt.UnixMilli()
	}
	return res
}

// DeliveryQuery 投递记录查询条件，零值表示不过滤
type DeliveryQuery struct {
	TenantID       int64
	Status         DeliveryStatus
	Channel        Channel
	Event          Event
	ExternalID     string
	ServiceOrderID int64
	CustomerID     int64
	UserID         int64
	Offset         int
	Limit          int
}
