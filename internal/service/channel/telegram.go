package channel

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"gitee.com/flycash/workshop-notification/internal/domain"
)

const defaultTelegramBaseURL = "https://api.telegram.org"

type TelegramConfig struct {
	BaseURL string `yaml:"baseURL"`
	Token   string `yaml:"token"`
}

// TelegramSender 通过 Bot API 发送，收件人是 chat id
type TelegramSender struct {
	client *httpClient
}

func NewTelegramSender(cfg TelegramConfig, client *http.Client) *TelegramSender {
	base := cfg.BaseURL
	if base == "" {
		base = defaultTelegramBaseURL
	}
	return &TelegramSender{
		client: newHTTPClient(client, strings.TrimRight(base, "/")+"/bot"+cfg.Token, nil),
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type telegramDocument struct {
	ChatID    string `json:"chat_id"`
	Document  string `json:"document"`
	Caption   string `json:"caption"`
	ParseMode string `json:"parse_mode"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

func (s *TelegramSender) Channel() domain.Channel {
	return domain.ChannelTelegram
}

// Send Bot API 只接受能下载的文档链接，没有链接时只发文本
func (s *TelegramSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	chatID := strings.TrimSpace(req.Recipient)
	if chatID == "" {
		return Failed(CodeInvalidRecipient, "chat id 为空"), nil
	}

	var (
		resp telegramResponse
		err  error
	)
	if att := req.Attachment; att != nil && att.URL != "" {
		err = s.client.postJSON(ctx, "/sendDocument", telegramDocument{
			ChatID:    chatID,
			Document:  att.URL,
			Caption:   req.Body,
			ParseMode: "Markdown",
		}, &resp)
	} else {
		err = s.client.postJSON(ctx, "/sendMessage", telegramMessage{
			ChatID:    chatID,
			Text:      req.Body,
			ParseMode: "Markdown",
		}, &resp)
	}
	if err != nil {
		return toFailure(err), nil
	}
	if !resp.OK || resp.Result.MessageID == 0 {
		return Failed(CodeInvalidResponse, resp.Description), nil
	}
	// message_id 只在同一个会话里唯一
	return Succeeded(chatID + ":" + strconv.FormatInt(resp.Result.MessageID, 10)), nil
}
