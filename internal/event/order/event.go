package order

import (
	"context"

	"gitee.com/flycash/workshop-notification/internal/domain"
)

const (
	// EventName 工单、付款等业务事件
	EventName = "workshop_order_events"
	// ResultEventName 每条业务事件的发送结果
	ResultEventName = "workshop_notification_results"
)

// Event 业务系统发出的通知请求
type Event struct {
	TenantID          int64             `json:"tenantId"`
	Event             string            `json:"event"`
	Recipient         string            `json:"recipient"`
	RecipientName     string            `json:"recipientName"`
	ChannelRecipients map[string]string `json:"channelRecipients,omitempty"`
	Channel           string            `json:"channel,omitempty"`
	Variables         map[string]string `json:"variables"`
	ServiceOrderID    int64             `json:"serviceOrderId,omitempty"`
	CustomerID        int64             `json:"customerId,omitempty"`
	UserID            int64             `json:"userId,omitempty"`
	ForceSend         bool              `json:"forceSend,omitempty"`
}

func (e Event) toDomain() domain.DispatchRequest {
	var recipients map[domain.Channel]string
	if len(e.ChannelRecipients) > 0 {
		recipients = make(map[domain.Channel]string, len(e.ChannelRecipients))
		for ch, r := range e.ChannelRecipients {
			recipients[domain.Channel(ch)] = r
		}
	}
	return domain.DispatchRequest{
		TenantID:          e.TenantID,
		Event:             domain.Event(e.Event),
		Recipient:         e.Recipient,
		RecipientName:     e.RecipientName,
		ChannelRecipients: recipients,
		Channel:           domain.Channel(e.Channel),
		Variables:         e.Variables,
		ServiceOrderID:    e.ServiceOrderID,
		CustomerID:        e.CustomerID,
		UserID:            e.UserID,
		ForceSend:         e.ForceSend,
	}
}

type ChannelResult struct {
	Channel      string `json:"channel"`
	RecordID     uint64 `json:"recordId"`
	Status       string `json:"status"`
	ErrorCode    string `json:"errorCode,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	Fallback     bool   `json:"fallback,omitempty"`
	ScheduledAt  int64  `json:"scheduledAt,omitempty"`
}

// ResultEvent 回传给业务系统的发送结果
type ResultEvent struct {
	TenantID       int64           `json:"tenantId"`
	Event          string          `json:"event"`
	ServiceOrderID int64           `json:"serviceOrderId,omitempty"`
	Status         string          `json:"status"`
	Message        string          `json:"message"`
	Channels       []ChannelResult `json:"channels"`
}

func newResultEvent(req domain.DispatchRequest, res domain.DispatchResult) ResultEvent {
	channels := make([]ChannelResult, 0, len(res.Channels))
	for _, c := range res.Channels {
		channels = append(channels, ChannelResult{
			Channel:      c.Channel.String(),
			RecordID:     c.RecordID,
			Status:       c.Status.String(),
			ErrorCode:    c.ErrorCode,
			ErrorMessage: c.ErrorMessage,
			Fallback:     c.Fallback,
			ScheduledAt:  c.ScheduledAt,
		})
	}
	return ResultEvent{
		TenantID:       req.TenantID,
		Event:          req.Event.String(),
		ServiceOrderID: req.ServiceOrderID,
		Status:         res.Status.String(),
		Message:        res.Message,
		Channels:       channels,
	}
}

type ResultProducer interface {
	Produce(ctx context.Context, evt ResultEvent) error
}
