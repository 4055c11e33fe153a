package channel

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"unicode"

	"gitee.com/flycash/workshop-notification/internal/domain"
)

type WhatsAppConfig struct {
	BaseURL  string `yaml:"baseURL"`
	APIKey   string `yaml:"apiKey"`
	Instance string `yaml:"instance"`
	// CountryCode 号码没有带国家码时补上
	CountryCode string `yaml:"countryCode"`
}

// WhatsAppSender 通过 WhatsApp HTTP 网关发送，文本走 sendText，附件走 sendMedia
type WhatsAppSender struct {
	cfg    WhatsAppConfig
	client *httpClient
}

func NewWhatsAppSender(cfg WhatsAppConfig, client *http.Client) *WhatsAppSender {
	if cfg.CountryCode == "" {
		cfg.CountryCode = "55"
	}
	return &WhatsAppSender{
		cfg: cfg,
		client: newHTTPClient(client, cfg.BaseURL, map[string]string{
			"apikey": cfg.APIKey,
		}),
	}
}

type whatsAppText struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

type whatsAppMedia struct {
	Number    string `json:"number"`
	MediaType string `json:"mediatype"`
	MimeType  string `json:"mimetype"`
	Caption   string `json:"caption"`
	Media     string `json:"media"`
	FileName  string `json:"fileName"`
}

type whatsAppResponse struct {
	Key struct {
		ID string `json:"id"`
	} `json:"key"`
}

func (s *WhatsAppSender) Channel() domain.Channel {
	return domain.ChannelWhatsApp
}

func (s *WhatsAppSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	number := s.normalizeNumber(req.Recipient)
	if number == "" {
		return Failed(CodeInvalidRecipient, "号码为空或者格式不对: "+req.Recipient), nil
	}

	var (
		resp whatsAppResponse
		err  error
	)
	if att := req.Attachment; att != nil && (att.URL != "" || len(att.Data) > 0) {
		media := att.URL
		if media == "" {
			media = base64.StdEncoding.EncodeToString(att.Data)
		}
		err = s.client.postJSON(ctx, "/message/sendMedia/"+s.cfg.Instance, whatsAppMedia{
			Number:    number,
			MediaType: "document",
			MimeType:  att.ContentType,
			Caption:   req.Body,
			Media:     media,
			FileName:  att.Filename,
		}, &resp)
	} else {
		err = s.client.postJSON(ctx, "/message/sendText/"+s.cfg.Instance, whatsAppText{
			Number: number,
			Text:   req.Body,
		}, &resp)
	}
	if err != nil {
		return toFailure(err), nil
	}
	if resp.Key.ID == "" {
		return Failed(CodeInvalidResponse, "网关没有返回消息ID"), nil
	}
	return Succeeded(resp.Key.ID), nil
}

// normalizeNumber 只保留数字，10 或 11 位的本地号码补国家码
func (s *WhatsAppSender) normalizeNumber(raw string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)
	switch {
	case len(digits) < 10:
		return ""
	case len(digits) <= 11:
		return s.cfg.CountryCode + digits
	default:
		return digits
	}
}
