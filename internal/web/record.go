package web

import (
	"errors"
	"net/http"
	"strconv"

	"gitee.com/flycash/workshop-notification/internal/domain"
	"gitee.com/flycash/workshop-notification/internal/errs"
	notificationsvc "gitee.com/flycash/workshop-notification/internal/service/notification"
	"github.com/ecodeclub/ekit/slice"
	"github.com/gin-gonic/gin"
	"github.com/gotomicro/ego/core/elog"
)

const maxPageSize = 100

type Record struct {
	ID             uint64 `json:"id,string"`
	TenantID       int64  `json:"tenantId"`
	Event          string `json:"event"`
	Channel        string `json:"channel"`
	Recipient      string `json:"recipient"`
	Subject        string `json:"subject,omitempty"`
	Message        string `json:"message"`
	Status         string `json:"status"`
	ExternalID     string `json:"externalId,omitempty"`
	ErrorCode      string `json:"errorCode,omitempty"`
	ErrorMessage   string `json:"errorMessage,omitempty"`
	Attempts       int    `json:"attempts"`
	Fallback       bool   `json:"fallback,omitempty"`
	ServiceOrderID int64  `json:"serviceOrderId,omitempty"`
	ScheduledAt    int64  `json:"scheduledAt,omitempty"`
	SentAt         int64  `json:"sentAt,omitempty"`
	CreatedAt      int64  `json:"createdAt"`
}

func toRecord(r domain.DeliveryRecord) Record {
	res := Record{
		ID:             r.ID,
		TenantID:       r.TenantID,
		Event:          r.Event.String(),
		Channel:        r.Channel.String(),
		Recipient:      r.Recipient,
		Subject:        r.Subject,
		Message:        r.Message,
		Status:         r.Status.String(),
		ExternalID:     r.ExternalID,
		ErrorCode:      r.ErrorCode,
		ErrorMessage:   r.ErrorMessage,
		Attempts:       r.Attempts,
		Fallback:       r.Fallback,
		ServiceOrderID: r.ServiceOrderID,
		CreatedAt:      r.CreatedAt.UnixMilli(),
	}
	if !r.ScheduledAt.IsZero() {
		res.ScheduledAt = r.ScheduledAt.UnixMilli()
	}
	if !r.SentAt.IsZero() {
		res.SentAt = r.SentAt.UnixMilli()
	}
	return res
}

type ListRecordsReq struct {
	TenantID       int64  `form:"tenantId"`
	Status         string `form:"status"`
	Channel        string `form:"channel"`
	Event          string `form:"event"`
	ServiceOrderID int64  `form:"serviceOrderId"`
	CustomerID     int64  `form:"customerId"`
	Offset         int    `form:"offset"`
	Limit          int    `form:"limit"`
}

// RecordHandler 后台查看、重发、取消投递记录
type RecordHandler struct {
	svc    notificationsvc.Service
	logger *elog.Component
}

func NewRecordHandler(svc notificationsvc.Service) *RecordHandler {
	return &RecordHandler{
		svc:    svc,
		logger: elog.DefaultLogger,
	}
}

func (h *RecordHandler) PrivateRoutes(server *gin.Engine) {
	g := server.Group("/notifications/records")
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("/:id/resend", h.Resend)
	g.POST("/:id/cancel", h.Cancel)
}

func (h *RecordHandler) List(c *gin.Context) {
	var req ListRecordsReq
	if err := c.ShouldBindQuery(&req); err != nil {
		fail(c, http.StatusBadRequest, codeBadRequest, "请求格式错误")
		return
	}
	if req.Limit <= 0 || req.Limit > maxPageSize {
		req.Limit = maxPageSize
	}
	records, err := h.svc.ListRecords(c.Request.Context(), domain.DeliveryQuery{
		TenantID:       req.TenantID,
		Status:         domain.DeliveryStatus(req.Status),
		Channel:        domain.Channel(req.Channel),
		Event:          domain.Event(req.Event),
		ServiceOrderID: req.ServiceOrderID,
		CustomerID:     req.CustomerID,
		Offset:         req.Offset,
		Limit:          req.Limit,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	success(c, slice.Map(records, func(_ int, src domain.DeliveryRecord) Record {
		return toRecord(src)
	}))
}

func (h *RecordHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	record, err := h.svc.GetRecord(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	success(c, toRecord(record))
}

func (h *RecordHandler) Resend(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	record, err := h.svc.Resend(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	success(c, toRecord(record))
}

func (h *RecordHandler) Cancel(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	record, err := h.svc.Cancel(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	success(c, toRecord(record))
}

func parseID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, codeBadRequest, "id 格式错误")
		return 0, false
	}
	return id, true
}

func (h *RecordHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrInvalidParameter):
		fail(c, http.StatusBadRequest, codeBadRequest, err.Error())
	case errors.Is(err, errs.ErrDeliveryNotFound):
		fail(c, http.StatusNotFound, codeNotFound, "投递记录不存在")
	case errors.Is(err, errs.ErrNotRetryable),
		errors.Is(err, errs.ErrRetryLimitExceeded),
		errors.Is(err, errs.ErrNotCancellable),
		errors.Is(err, errs.ErrDeliveryVersionMismatch):
		fail(c, http.StatusConflict, codeBadRequest, err.Error())
	default:
		h.logger.Error("处理投递记录请求失败", elog.FieldErr(err), elog.String("path", c.FullPath()))
		fail(c, http.StatusInternalServerError, codeSystemError, "系统错误")
	}
}
