package web

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	"gitee.com/flycash/workshop-notification/internal/domain"
	"gitee.com/flycash/workshop-notification/internal/errs"
	"gitee.com/flycash/workshop-notification/internal/service/blob"
	notificationsvc "gitee.com/flycash/workshop-notification/internal/service/notification"
	"github.com/gin-gonic/gin"
	"github.com/gotomicro/ego/core/elog"
)

// providerStatuses 各提供方回调里的状态词汇，统一成 ENTREGUE / LIDO。
// "generic" 给自己搭的中转服务用
var providerStatuses = map[string]map[string]domain.DeliveryStatus{
	"email": {
		"delivered": domain.DeliveryStatusDelivered,
		"opened":    domain.DeliveryStatusRead,
		"read":      domain.DeliveryStatusRead,
	},
	"whatsapp": {
		"delivery_ack": domain.DeliveryStatusDelivered,
		"delivered":    domain.DeliveryStatusDelivered,
		"read":         domain.DeliveryStatusRead,
		"played":       domain.DeliveryStatusRead,
	},
	"telegram": {
		"delivered": domain.DeliveryStatusDelivered,
		"read":      domain.DeliveryStatusRead,
	},
	"generic": {
		"entregue":  domain.DeliveryStatusDelivered,
		"lido":      domain.DeliveryStatusRead,
		"delivered": domain.DeliveryStatusDelivered,
		"read":      domain.DeliveryStatusRead,
	},
}

// mapProviderStatus 大小写不敏感
func mapProviderStatus(provider, status string) (domain.DeliveryStatus, bool) {
	vocabulary, ok := providerStatuses[strings.ToLower(provider)]
	if !ok {
		return "", false
	}
	res, ok := vocabulary[strings.ToLower(strings.TrimSpace(status))]
	return res, ok
}

type StatusCallbackReq struct {
	ExternalID string `json:"externalId"`
	Status     string `json:"status"`
}

type StatusCallbackResp struct {
	Updated bool `json:"updated"`
}

// WebhookHandler 提供方回调和附件下载，都不需要登录
type WebhookHandler struct {
	svc    notificationsvc.Service
	blobs  blob.Store
	logger *elog.Component
}

func NewWebhookHandler(svc notificationsvc.Service, blobs blob.Store) *WebhookHandler {
	return &WebhookHandler{
		svc:    svc,
		blobs:  blobs,
		logger: elog.DefaultLogger,
	}
}

// PublicRoutes mdls 只作用在回调上
func (h *WebhookHandler) PublicRoutes(server *gin.Engine, mdls ...gin.HandlerFunc) {
	webhooks := server.Group("/webhooks", mdls...)
	webhooks.POST("/:provider/status", h.StatusCallback)
	server.GET("/files/:token", h.Download)
}

func (h *WebhookHandler) StatusCallback(c *gin.Context) {
	provider := c.Param("provider")
	var req StatusCallbackReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, codeBadRequest, "请求格式错误")
		return
	}
	status, ok := mapProviderStatus(provider, req.Status)
	if !ok || req.ExternalID == "" {
		fail(c, http.StatusBadRequest, codeBadRequest, "未知的提供方或状态")
		return
	}

	updated, err := h.svc.UpdateStatusByExternalID(c.Request.Context(), req.ExternalID, status)
	switch {
	case errors.Is(err, errs.ErrInvalidParameter):
		fail(c, http.StatusBadRequest, codeBadRequest, err.Error())
	case err != nil:
		h.logger.Error("处理状态回调失败",
			elog.FieldErr(err),
			elog.String("provider", provider),
			elog.String("externalID", req.ExternalID))
		fail(c, http.StatusInternalServerError, codeSystemError, "系统错误")
	default:
		// 没有匹配的记录也返回成功，避免提供方不停重试
		success(c, StatusCallbackResp{Updated: updated})
	}
}

func (h *WebhookHandler) Download(c *gin.Context) {
	b, err := h.blobs.Retrieve(c.Request.Context(), c.Param("token"))
	switch {
	case errors.Is(err, errs.ErrBlobNotFound):
		fail(c, http.StatusNotFound, codeNotFound, "文件不存在或已过期")
		return
	case err != nil:
		h.logger.Error("读取临时文件失败", elog.FieldErr(err))
		fail(c, http.StatusInternalServerError, codeSystemError, "系统错误")
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": b.Filename}))
	c.Data(http.StatusOK, b.ContentType, b.Data)
}
