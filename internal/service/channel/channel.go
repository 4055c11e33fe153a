package channel

import (
	"context"

	"gitee.com/flycash/workshop-notification/internal/domain"
)

// 渠道发送失败时写在投递记录上的错误码
const (
	CodeChannelUnavailable = "CHANNEL_UNAVAILABLE"
	CodeTimeout            = "TIMEOUT"
	CodeNotImplemented     = "NOT_IMPLEMENTED"
	CodeNetworkError       = "NETWORK_ERROR"
	CodeCircuitOpen        = "CIRCUIT_OPEN"
	CodeInvalidResponse    = "INVALID_RESPONSE"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeInvalidRecipient   = "INVALID_RECIPIENT"
)

// AttachmentRef 附件，提供方可以直接上传内容，也可以只发送下载链接
type AttachmentRef struct {
	Filename    string
	ContentType string
	Data        []byte
	URL         string
}

type SendRequest struct {
	Channel       domain.Channel
	Recipient     string
	RecipientName string
	Subject       string
	Body          string
	Attachment    *AttachmentRef
}

// SendResult 发送结果。Success 为 false 时 ErrorCode 一定不为空
type SendResult struct {
	Success           bool
	ProviderMessageID string
	ErrorCode         string
	ErrorMessage      string
}

func Succeeded(providerMessageID string) SendResult {
	return SendResult{Success: true, ProviderMessageID: providerMessageID}
}

func Failed(code, message string) SendResult {
	return SendResult{ErrorCode: code, ErrorMessage: message}
}

// Sender 单个渠道的发送器。
// 提供方拒绝或者网络错误都通过 SendResult 返回，error 只用于调用方自己的问题（比如 ctx 已经取消）。
//
//go:generate mockgen -source=./channel.go -destination=./mocks/channel.mock.go -package=channelmocks Sender
type Sender interface {
	Channel() domain.Channel
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}

// Registry 渠道到发送器的映射
type Registry struct {
	senders map[domain.Channel]Sender
}

func NewRegistry(senders ...Sender) *Registry {
	r := &Registry{senders: make(map[domain.Channel]Sender, len(senders))}
	for _, s := range senders {
		r.senders[s.Channel()] = s
	}
	return r
}

func (r *Registry) Get(ch domain.Channel) (Sender, bool) {
	s, ok := r.senders[ch]
	return s, ok
}

// Channels 按固定顺序返回已注册的渠道
func (r *Registry) Channels() []domain.Channel {
	res := make([]domain.Channel, 0, len(r.senders))
	for _, ch := range domain.Channels {
		if _, ok := r.senders[ch]; ok {
			res = append(res, ch)
		}
	}
	return res
}

// Decorate 对每个发送器套上装饰器，先传入的在最里层
func (r *Registry) Decorate(decorators ...func(Sender) Sender) *Registry {
	res := &Registry{senders: make(map[domain.Channel]Sender, len(r.senders))}
	for ch, s := range r.senders {
		for _, d := range decorators {
			s = d(s)
		}
		res.senders[ch] = s
	}
	return res
}
