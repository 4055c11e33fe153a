package repository

import (
	"context"
	"database/sql"
	"time"

	"gitee.com/flycash/workshop-notification/internal/domain"
	"gitee.com/flycash/workshop-notification/internal/repository/dao"
	"github.com/ecodeclub/ekit/slice"
	"github.com/gotomicro/ego/core/elog"
)

// DeliveryRepository 投递记录仓储
//
//go:generate mockgen -source=./delivery.go -destination=./mocks/delivery.mock.go -package=repomocks DeliveryRepository
type DeliveryRepository interface {
	Create(ctx context.Context, r domain.DeliveryRecord) (domain.DeliveryRecord, error)
	GetByID(ctx context.Context, id uint64) (domain.DeliveryRecord, error)
	GetByExternalID(ctx context.Context, externalID string) (domain.DeliveryRecord, error)
	Find(ctx context.Context, q domain.DeliveryQuery) ([]domain.DeliveryRecord, error)

	// Claim 把记录从当前状态原子地改为 PENDENTE，返回认领后的记录（版本号已经加一）
	Claim(ctx context.Context, r domain.DeliveryRecord) (domain.DeliveryRecord, error)
	// SaveResult 写回发送结果，r.Version 必须是认领后的版本
	SaveResult(ctx context.Context, r domain.DeliveryRecord) (domain.DeliveryRecord, error)
	// UpdateStatusByExternalID 返回是否真的更新了记录
	UpdateStatusByExternalID(ctx context.Context, externalID string, status domain.DeliveryStatus) (bool, error)
	Cancel(ctx context.Context, r domain.DeliveryRecord) error
	CancelByChannel(ctx context.Context, tenantID int64, ch domain.Channel) (int64, error)
	MarkExhausted(ctx context.Context, id uint64) error

	FindDueScheduled(ctx context.Context, now time.Time, limit int) ([]domain.DeliveryRecord, error)
	FindRetryable(ctx context.Context, updatedBefore time.Time, limit int) ([]domain.DeliveryRecord, error)
	MarkTimeoutPendingAsFailed(ctx context.Context, updatedBefore time.Time, batchSize int) (int64, error)
	DeleteBefore(ctx context.Context, createdBefore time.Time, batchSize int) (int64, error)
}

type deliveryRepository struct {
	dao    dao.DeliveryDAO
	logger *elog.Component
}

// NewDeliveryRepository 创建投递记录仓储实例
func NewDeliveryRepository(d dao.DeliveryDAO) DeliveryRepository {
	return &deliveryRepository{
		dao:    d,
		logger: elog.DefaultLogger,
	}
}

func (r *deliveryRepository) Create(ctx context.Context, record domain.DeliveryRecord) (domain.DeliveryRecord, error) {
	entity, err := r.toEntity(record)
	if err != nil {
		return domain.DeliveryRecord{}, err
	}
	created, err := r.dao.Create(ctx, entity)
	if err != nil {
		return domain.DeliveryRecord{}, err
	}
	return r.toDomain(created), nil
}

func (r *deliveryRepository) GetByID(ctx context.Context, id uint64) (domain.DeliveryRecord, error) {
	entity, err := r.dao.GetByID(ctx, id)
	if err != nil {
		return domain.DeliveryRecord{}, err
	}
	return r.toDomain(entity), nil
}

func (r *deliveryRepository) GetByExternalID(ctx context.Context, externalID string) (domain.DeliveryRecord, error) {
	entity, err := r.dao.GetByExternalID(ctx, externalID)
	if err != nil {
		return domain.DeliveryRecord{}, err
	}
	return r.toDomain(entity), nil
}

func (r *deliveryRepository) Find(ctx context.Context, q domain.DeliveryQuery) ([]domain.DeliveryRecord, error) {
	entities, err := r.dao.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	return r.toDomains(entities), nil
}

func (r *deliveryRepository) Claim(ctx context.Context, record domain.DeliveryRecord) (domain.DeliveryRecord, error) {
	err := r.dao.Claim(ctx, record.ID, record.Version, []string{record.Status.String()})
	if err != nil {
		return domain.DeliveryRecord{}, err
	}
	record.Status = domain.DeliveryStatusPending
	record.Version++
	return record, nil
}

func (r *deliveryRepository) SaveResult(ctx context.Context, record domain.DeliveryRecord) (domain.DeliveryRecord, error) {
	entity, err := r.toEntity(record)
	if err != nil {
		return domain.DeliveryRecord{}, err
	}
	if err = r.dao.CASResult(ctx, entity); err != nil {
		return domain.DeliveryRecord{}, err
	}
	record.Version++
	return record, nil
}

func (r *deliveryRepository) UpdateStatusByExternalID(ctx context.Context, externalID string, status domain.DeliveryStatus) (bool, error) {
	from := slice.Map(domain.CallbackPredecessors(status), func(_ int, src domain.DeliveryStatus) string {
		return src.String()
	})
	if len(from) == 0 {
		return false, nil
	}
	cnt, err := r.dao.UpdateStatusByExternalID(ctx, externalID, status.String(), from)
	return cnt > 0, err
}

func (r *deliveryRepository) Cancel(ctx context.Context, record domain.DeliveryRecord) error {
	return r.dao.Cancel(ctx, record.ID, record.Version)
}

func (r *deliveryRepository) CancelByChannel(ctx context.Context, tenantID int64, ch domain.Channel) (int64, error) {
	return r.dao.CancelByChannel(ctx, tenantID, ch.String())
}

func (r *deliveryRepository) MarkExhausted(ctx context.Context, id uint64) error {
	return r.dao.MarkExhausted(ctx, id)
}

func (r *deliveryRepository) FindDueScheduled(ctx context.Context, now time.Time, limit int) ([]domain.DeliveryRecord, error) {
	entities, err := r.dao.FindDueScheduled(ctx, now.UnixMilli(), limit)
	if err != nil {
		return nil, err
	}
	return r.toDomains(entities), nil
}

func (r *deliveryRepository) FindRetryable(ctx context.Context, updatedBefore time.Time, limit int) ([]domain.DeliveryRecord, error) {
	entities, err := r.dao.FindRetryable(ctx, updatedBefore.UnixMilli(), limit)
	if err != nil {
		return nil, err
	}
	return r.toDomains(entities), nil
}

func (r *deliveryRepository) MarkTimeoutPendingAsFailed(ctx context.Context, updatedBefore time.Time, batchSize int) (int64, error) {
	return r.dao.MarkTimeoutPendingAsFailed(ctx, updatedBefore.UnixMilli(), batchSize)
}

func (r *deliveryRepository) DeleteBefore(ctx context.Context, createdBefore time.Time, batchSize int) (int64, error) {
	return r.dao.DeleteBefore(ctx, createdBefore.UnixMilli(), batchSize)
}

func (r *deliveryRepository) toEntity(record domain.DeliveryRecord) (dao.DeliveryRecord, error) {
	variables, err := pkgJSON(record.Variables)
	if err != nil {
		return dao.DeliveryRecord{}, err
	}
	return dao.DeliveryRecord{
		ID:            record.ID,
		TenantID:      record.TenantID,
		Event:         record.Event.String(),
		Channel:       record.Channel.String(),
		Recipient:     record.Recipient,
		RecipientName: record.RecipientName,
		Subject:       record.Subject,
		Message:       record.Message,
		Variables:     variables,
		TemplateID:    record.TemplateID,

		ServiceOrderID: record.ServiceOrderID,
		CustomerID:     record.CustomerID,
		UserID:         record.UserID,

		Status: record.Status.String(),
		ExternalID: sql.NullString{
			String: record.ExternalID,
			Valid:  record.ExternalID != "",
		},
		ErrorCode:        record.ErrorCode,
		ErrorMessage:     record.ErrorMessage,
		Attempts:         record.Attempts,
		MaxAttempts:      record.MaxAttempts,
		Fallback:         record.Fallback,
		AttachmentToken:  record.AttachmentToken,
		IgnoreSimulation: record.IgnoreSimulation,
		ScheduledAt:      toMillis(record.ScheduledAt),
		SentAt:           toMillis(record.SentAt),
		Version:          record.Version,
	}, nil
}

func (r *deliveryRepository) toDomain(entity dao.DeliveryRecord) domain.DeliveryRecord {
	var variables map[string]string
	corrupted := false
	if err := entity.Variables.Decode(&variables); err != nil {
		// 记录照常返回，重发时会因为快照损坏而失败
		r.logger.Error("变量快照无法解析",
			elog.FieldErr(err),
			elog.Any("recordID", entity.ID),
			elog.Int64("tenantID", entity.TenantID))
		variables, corrupted = nil, true
	}
	return domain.DeliveryRecord{
		ID:                 entity.ID,
		TenantID:           entity.TenantID,
		Event:              domain.Event(entity.Event),
		Channel:            domain.Channel(entity.Channel),
		Recipient:          entity.Recipient,
		RecipientName:      entity.RecipientName,
		Subject:            entity.Subject,
		Message:            entity.Message,
		Variables:          variables,
		VariablesCorrupted: corrupted,
		TemplateID:         entity.TemplateID,

		ServiceOrderID: entity.ServiceOrderID,
		CustomerID:     entity.CustomerID,
		UserID:         entity.UserID,

		Status:           domain.DeliveryStatus(entity.Status),
		ExternalID:       entity.ExternalID.String,
		ErrorCode:        entity.ErrorCode,
		ErrorMessage:     entity.ErrorMessage,
		Attempts:         entity.Attempts,
		MaxAttempts:      entity.MaxAttempts,
		Fallback:         entity.Fallback,
		AttachmentToken:  entity.AttachmentToken,
		IgnoreSimulation: entity.IgnoreSimulation,
		ScheduledAt:      fromMillis(entity.ScheduledAt),
		SentAt:           fromMillis(entity.SentAt),
		Version:          entity.Version,
		CreatedAt:        fromMillis(entity.Ctime),
		UpdatedAt:        fromMillis(entity.Utime),
	}
}

func (r *deliveryRepository) toDomains(entities []dao.DeliveryRecord) []domain.DeliveryRecord {
	return slice.Map(entities, func(_ int, src dao.DeliveryRecord) domain.DeliveryRecord {
		return r.toDomain(src)
	})
}
