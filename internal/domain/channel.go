package domain

// Channel 通知渠道
type Channel string

const (
	ChannelEmail    Channel = "EMAIL"    // 邮件
	ChannelWhatsApp Channel = "WHATSAPP" // 聊天机器人渠道A
	ChannelTelegram Channel = "TELEGRAM" // 聊天机器人渠道B
	ChannelSMS      Channel = "SMS"      // 短信，暂未实现
)

// Channels 渠道的固定顺序，选择渠道时按这个顺序输出
var Channels = []Channel{ChannelEmail, ChannelWhatsApp, ChannelTelegram, ChannelSMS}

func (c Channel) String() string {
	return string(c)
}

func (c Channel) IsValid() bool {
	switch c {
	case ChannelEmail, ChannelWhatsApp, ChannelTelegram, ChannelSMS:
		return true
	default:
		return false
	}
}

// IsChat 聊天类渠道使用轻量的行内标记，而不是 HTML
func (c Channel) IsChat() bool {
	return c == ChannelWhatsApp || c == ChannelTelegram
}
