package channel

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/mail"

	"gitee.com/flycash/workshop-notification/internal/domain"
)

type EmailConfig struct {
	// BaseURL 邮件中继服务地址
	BaseURL  string `yaml:"baseURL"`
	APIKey   string `yaml:"apiKey"`
	From     string `yaml:"from"`
	FromName string `yaml:"fromName"`
}

// EmailSender 通过 HTTP 邮件中继发送 HTML 邮件，附件以 base64 内联
type EmailSender struct {
	cfg    EmailConfig
	client *httpClient
}

func NewEmailSender(cfg EmailConfig, client *http.Client) *EmailSender {
	return &EmailSender{
		cfg: cfg,
		client: newHTTPClient(client, cfg.BaseURL, map[string]string{
			"Authorization": "Bearer " + cfg.APIKey,
		}),
	}
}

type emailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type emailAttachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type emailMessage struct {
	From        emailAddress      `json:"from"`
	To          []emailAddress    `json:"to"`
	Subject     string            `json:"subject"`
	HTML        string            `json:"html"`
	Attachments []emailAttachment `json:"attachments,omitempty"`
}

type emailResponse struct {
	ID string `json:"id"`
}

func (s *EmailSender) Channel() domain.Channel {
	return domain.ChannelEmail
}

func (s *EmailSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	addr, err := mail.ParseAddress(req.Recipient)
	if err != nil {
		return Failed(CodeInvalidRecipient, err.Error()), nil
	}
	msg := emailMessage{
		From:    emailAddress{Email: s.cfg.From, Name: s.cfg.FromName},
		To:      []emailAddress{{Email: addr.Address, Name: req.RecipientName}},
		Subject: req.Subject,
		HTML:    req.Body,
	}
	if att := req.Attachment; att != nil && len(att.Data) > 0 {
		msg.Attachments = append(msg.Attachments, emailAttachment{
			Filename:    att.Filename,
			ContentType: att.ContentType,
			Content:     base64.StdEncoding.EncodeToString(att.Data),
		})
	}

	var resp emailResponse
	if err = s.client.postJSON(ctx, "/v1/messages", msg, &resp); err != nil {
		return toFailure(err), nil
	}
	if resp.ID == "" {
		return Failed(CodeInvalidResponse, "邮件服务没有返回消息ID"), nil
	}
	return Succeeded(resp.ID), nil
}
