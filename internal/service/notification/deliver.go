package notification

import (
	"context"
	"fmt"

	"gitee.com/flycash/workshop-notification/internal/domain"
	"gitee.com/flycash/workshop-notification/internal/service/blob"
	"gitee.com/flycash/workshop-notification/internal/service/channel"
	templatesvc "gitee.com/flycash/workshop-notification/internal/service/template"
	"github.com/gofrs/uuid"
	"github.com/gotomicro/ego/core/elog"
)

const (
	codeTemplateUnavailable = "TEMPLATE_UNAVAILABLE"
	codeSendFailed          = "SEND_FAILED"
	codeConfigNotFound      = "CONFIG_NOT_FOUND"
	codeChannelDisabled     = "CHANNEL_DISABLED"

	simulatedIDPrefix = "SIM-"
)

// render 解析模板并用记录上的变量快照渲染
func (s *service) render(ctx context.Context, record *domain.DeliveryRecord) error {
	tmpl, err := s.resolver.Resolve(ctx, record.TenantID, record.Event, record.Channel)
	if err != nil {
		s.logger.Error("解析模板失败",
			elog.FieldErr(err),
			elog.Int64("tenantID", record.TenantID),
			elog.String("event", record.Event.String()),
			elog.String("channel", record.Channel.String()))
		return err
	}
	record.Subject, record.Message = templatesvc.Render(tmpl, record.Channel, record.Variables)
	record.TemplateID = tmpl.TemplateID
	return nil
}

// deliver 调用发送器（或者模拟发送），把结果写到 record 上
func (s *service) deliver(
	ctx context.Context,
	cfg domain.TenantNotificationConfig,
	record *domain.DeliveryRecord,
	att *channel.AttachmentRef,
	ignoreSimulation bool,
) {
	if cfg.SimulationMode && !ignoreSimulation {
		id, err := uuid.NewV4()
		if err != nil {
			record.MarkFailed(channel.CodeInternalError, err.Error())
			return
		}
		record.MarkSent(simulatedIDPrefix+id.String(), s.now())
		return
	}

	sender, ok := s.senders.Get(record.Channel)
	if !ok {
		record.MarkFailed(channel.CodeChannelUnavailable, fmt.Sprintf("渠道 %s 没有可用的发送器", record.Channel))
		return
	}
	res, err := sender.Send(ctx, channel.SendRequest{
		Channel:       record.Channel,
		Recipient:     record.Recipient,
		RecipientName: record.RecipientName,
		Subject:       record.Subject,
		Body:          record.Message,
		Attachment:    att,
	})
	switch {
	case err != nil:
		record.MarkFailed(channel.CodeInternalError, err.Error())
	case !res.Success:
		code := res.ErrorCode
		if code == "" {
			code = codeSendFailed
		}
		record.MarkFailed(code, res.ErrorMessage)
	case res.ProviderMessageID == "":
		record.MarkFailed(channel.CodeInvalidResponse, "提供方没有返回消息ID")
	default:
		record.MarkSent(res.ProviderMessageID, s.now())
	}
	if record.Status == domain.DeliveryStatusFailed {
		s.logger.Warn("渠道发送失败",
			elog.Any("recordID", record.ID),
			elog.Int64("tenantID", record.TenantID),
			elog.String("channel", record.Channel.String()),
			elog.String("code", record.ErrorCode),
			elog.String("message", record.ErrorMessage))
	}
}

// storeAttachment 保存失败不影响发送，邮件还可以直接内联附件
func (s *service) storeAttachment(ctx context.Context, req domain.DispatchRequest) string {
	if req.Attachment.IsEmpty() {
		return ""
	}
	token, err := s.blobs.Store(ctx, req.Attachment.Data, req.Attachment.Filename, req.Attachment.ContentType)
	if err != nil {
		s.logger.Warn("保存附件失败，附件只能内联发送",
			elog.FieldErr(err),
			elog.Int64("tenantID", req.TenantID),
			elog.String("filename", req.Attachment.Filename))
		return ""
	}
	return token
}

func (s *service) attachmentFromRequest(d dispatch) *channel.AttachmentRef {
	att := d.req.Attachment
	if att.IsEmpty() {
		return nil
	}
	ref := &channel.AttachmentRef{
		Filename:    att.Filename,
		ContentType: att.ContentType,
		Data:        att.Data,
	}
	if d.attachmentToken != "" {
		ref.URL = blob.FileURL(s.opts.BaseURL, d.attachmentToken)
	}
	return ref
}

// attachmentFromRecord 重发时从临时存储取回附件，已经过期就不带附件发送
func (s *service) attachmentFromRecord(ctx context.Context, record domain.DeliveryRecord) *channel.AttachmentRef {
	if record.AttachmentToken == "" {
		return nil
	}
	b, err := s.blobs.Retrieve(ctx, record.AttachmentToken)
	if err != nil {
		s.logger.Warn("附件已经不可用，不带附件发送",
			elog.FieldErr(err),
			elog.Any("recordID", record.ID))
		return nil
	}
	return &channel.AttachmentRef{
		Filename:    b.Filename,
		ContentType: b.ContentType,
		Data:        b.Data,
		URL:         blob.FileURL(s.opts.BaseURL, b.Token),
	}
}
