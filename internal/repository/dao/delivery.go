package dao

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/workshop-notification/internal/domain"
	"gitee.com/flycash/workshop-notification/internal/errs"
	pkgdao "gitee.com/flycash/workshop-notification/internal/pkg/dao"
	"github.com/ecodeclub/ekit/slice"
	"github.com/ego-component/egorm"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// DeliveryRecord 投递记录表
type DeliveryRecord struct {
	ID              uint64         `gorm:"primaryKey;comment:'雪花算法ID'"`
	TenantID        int64          `gorm:"type:BIGINT;NOT NULL;index:idx_tenant_status,priority:1;index:idx_tenant_channel_status,priority:1;comment:'租户ID'"`
	Event           string         `gorm:"type:VARCHAR(64);NOT NULL;comment:'触发事件'"`
	Channel         string         `gorm:"type:ENUM('EMAIL','WHATSAPP','TELEGRAM','SMS');NOT NULL;index:idx_tenant_channel_status,priority:2;comment:'发送渠道'"`
	Recipient       string         `gorm:"type:VARCHAR(256);NOT NULL;comment:'接收者(邮箱/手机号/聊天ID)'"`
	RecipientName   string         `gorm:"type:VARCHAR(256);comment:'接收者名称'"`
	Subject         string         `gorm:"type:VARCHAR(512);comment:'渲染后的主题'"`
	Message         string         `gorm:"type:TEXT;comment:'渲染后的正文'"`
	Variables       pkgdao.JSON    `gorm:"type:JSON;comment:'渲染变量快照'"`
	TemplateID      int64          `gorm:"type:BIGINT;NOT NULL;DEFAULT:0;comment:'模板ID，0表示内置模板'"`
	ServiceOrderID  int64          `gorm:"type:BIGINT;NOT NULL;DEFAULT:0;index:idx_service_order_id;comment:'工单ID'"`
	CustomerID      int64          `gorm:"type:BIGINT;NOT NULL;DEFAULT:0;index:idx_customer_id;comment:'客户ID'"`
	UserID          int64          `gorm:"type:BIGINT;NOT NULL;DEFAULT:0;comment:'操作人ID，0表示系统触发'"`
	Status          string         `gorm:"type:ENUM('PENDENTE','AGENDADO','ENVIADO','ENTREGUE','LIDO','FALHA','CANCELADO');NOT NULL;index:idx_tenant_status,priority:2;index:idx_tenant_channel_status,priority:3;index:idx_status_scheduled,priority:1;index:idx_status_utime,priority:1;comment:'投递状态'"`
	ExternalID      sql.NullString `gorm:"type:VARCHAR(128);uniqueIndex:uk_external_id;comment:'供应商消息ID'"`
	ErrorCode       string         `gorm:"type:VARCHAR(64);comment:'错误码'"`
	ErrorMessage    string         `gorm:"type:VARCHAR(1024);comment:'错误信息'"`
	Attempts        int            `gorm:"type:INT;NOT NULL;DEFAULT:0;comment:'重发次数'"`
	MaxAttempts     int            `gorm:"type:INT;NOT NULL;DEFAULT:0;comment:'创建时的重发上限'"`
	Fallback        bool           `gorm:"NOT NULL;DEFAULT:false;comment:'是否为兜底渠道'"`
	AttachmentToken string         `gorm:"type:VARCHAR(64);comment:'临时附件token'"`
	// IgnoreSimulation 只在创建时写入
	IgnoreSimulation bool `gorm:"NOT NULL;DEFAULT:false;comment:'是否跳过模拟模式'"`
	ScheduledAt     int64          `gorm:"index:idx_status_scheduled,priority:2;comment:'计划发送时间'"`
	SentAt          int64          `gorm:"comment:'发送时间'"`
	Version         int            `gorm:"type:INT;NOT NULL;DEFAULT:1;comment:'版本号，用于CAS操作'"`
	Ctime           int64
	Utime           int64 `gorm:"index:idx_status_utime,priority:2"`
}

// TableName 重命名表
func (DeliveryRecord) TableName() string {
	return "delivery_records"
}

// DeliveryDAO 投递记录数据访问接口
type DeliveryDAO interface {
	Create(ctx context.Context, r DeliveryRecord) (DeliveryRecord, error)
	GetByID(ctx context.Context, id uint64) (DeliveryRecord, error)
	GetByExternalID(ctx context.Context, externalID string) (DeliveryRecord, error)
	Find(ctx context.Context, q domain.DeliveryQuery) ([]DeliveryRecord, error)

	// Claim 认领一条记录：状态属于 from 且版本匹配时改为 PENDENTE，失败返回 ErrDeliveryVersionMismatch
	Claim(ctx context.Context, id uint64, version int, from []string) error
	// CASResult 写入一次发送的结果，使用乐观锁
	CASResult(ctx context.Context, r DeliveryRecord) error
	// UpdateStatusByExternalID 供应商回调，状态属于 from 时才更新，返回影响行数
	UpdateStatusByExternalID(ctx context.Context, externalID string, status string, from []string) (int64, error)
	// Cancel 取消单条记录，终态的记录不会被修改
	Cancel(ctx context.Context, id uint64, version int) error
	// CancelByChannel 取消租户在某个渠道上所有 AGENDADO 和 FALHA 的记录
	CancelByChannel(ctx context.Context, tenantID int64, channel string) (int64, error)
	// MarkExhausted 让记录不再参与自动重发
	MarkExhausted(ctx context.Context, id uint64) error

	FindDueScheduled(ctx context.Context, now int64, limit int) ([]DeliveryRecord, error)
	FindRetryable(ctx context.Context, utimeBefore int64, limit int) ([]DeliveryRecord, error)
	MarkTimeoutPendingAsFailed(ctx context.Context, utimeBefore int64, batchSize int) (int64, error)
	DeleteBefore(ctx context.Context, ctimeBefore int64, batchSize int) (int64, error)
}

type deliveryDAO struct {
	db *egorm.Component
}

// NewDeliveryDAO 创建投递记录DAO实例
func NewDeliveryDAO(db *egorm.Component) DeliveryDAO {
	return &deliveryDAO{
		db: db,
	}
}

func (d *deliveryDAO) Create(ctx context.Context, r DeliveryRecord) (DeliveryRecord, error) {
	now := time.Now().UnixMilli()
	r.Ctime, r.Utime = now, now
	r.Version = 1
	err := d.db.WithContext(ctx).Create(&r).Error
	if err != nil {
		if d.isUniqueConstraintError(err) {
			return DeliveryRecord{}, fmt.Errorf("%w: externalID=%s", errs.ErrDeliveryDuplicate, r.ExternalID.String)
		}
		return DeliveryRecord{}, err
	}
	return r, nil
}

// isUniqueConstraintError 检查是否是唯一索引冲突错误
func (d *deliveryDAO) isUniqueConstraintError(err error) bool {
	me := new(mysql.MySQLError)
	if ok := errors.As(err, &me); ok {
		const uniqueIndexErrNo uint16 = 1062
		return me.Number == uniqueIndexErrNo
	}
	return false
}

func (d *deliveryDAO) GetByID(ctx context.Context, id uint64) (DeliveryRecord, error) {
	var r DeliveryRecord
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DeliveryRecord{}, fmt.Errorf("%w: id=%d", errs.ErrDeliveryNotFound, id)
		}
		return DeliveryRecord{}, err
	}
	return r, nil
}

func (d *deliveryDAO) GetByExternalID(ctx context.Context, externalID string) (DeliveryRecord, error) {
	var r DeliveryRecord
	err := d.db.WithContext(ctx).Where("external_id = ?", externalID).First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DeliveryRecord{}, fmt.Errorf("%w: externalID=%s", errs.ErrDeliveryNotFound, externalID)
		}
		return DeliveryRecord{}, err
	}
	return r, nil
}

func (d *deliveryDAO) Find(ctx context.Context, q domain.DeliveryQuery) ([]DeliveryRecord, error) {
	db := d.db.WithContext(ctx).Model(&DeliveryRecord{})
	if q.TenantID > 0 {
		db = db.Where("tenant_id = ?", q.TenantID)
	}
	if q.Status != "" {
		db = db.Where("status = ?", q.Status.String())
	}
	if q.Channel != "" {
		db = db.Where("channel = ?", q.Channel.String())
	}
	if q.Event != "" {
		db = db.Where("event = ?", q.Event.String())
	}
	if q.ExternalID != "" {
		db = db.Where("external_id = ?", q.ExternalID)
	}
	if q.ServiceOrderID > 0 {
		db = db.Where("service_order_id = ?", q.ServiceOrderID)
	}
	if q.CustomerID > 0 {
		db = db.Where("customer_id = ?", q.CustomerID)
	}
	if q.UserID > 0 {
		db = db.Where("user_id = ?", q.UserID)
	}
	const defaultLimit = 50
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	var res []DeliveryRecord
	err := db.Order("id DESC").Offset(q.Offset).Limit(limit).Find(&res).Error
	return res, err
}

func (d *deliveryDAO) Claim(ctx context.Context, id uint64, version int, from []string) error {
	res := d.db.WithContext(ctx).Model(&DeliveryRecord{}).
		Where("id = ? AND version = ? AND status IN ?", id, version, from).
		Updates(map[string]any{
			"status":  domain.DeliveryStatusPending.String(),
			"version": gorm.Expr("version + 1"),
			"utime":   time.Now().UnixMilli(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected < 1 {
		return fmt.Errorf("认领失败 %w, id %d", errs.ErrDeliveryVersionMismatch, id)
	}
	return nil
}

func (d *deliveryDAO) CASResult(ctx context.Context, r DeliveryRecord) error {
	res := d.db.WithContext(ctx).Model(&DeliveryRecord{}).
		Where("id = ? AND version = ?", r.ID, r.Version).
		Updates(map[string]any{
			"status":        r.Status,
			"external_id":   r.ExternalID,
			"error_code":    r.ErrorCode,
			"error_message": r.ErrorMessage,
			"attempts":      r.Attempts,
			"subject":       r.Subject,
			"message":       r.Message,
			"template_id":   r.TemplateID,
			"scheduled_at":  r.ScheduledAt,
			"sent_at":       r.SentAt,
			"version":       gorm.Expr("version + 1"),
			"utime":         time.Now().UnixMilli(),
		})
	if res.Error != nil {
		if d.isUniqueConstraintError(res.Error) {
			return fmt.Errorf("%w: externalID=%s", errs.ErrDeliveryDuplicate, r.ExternalID.String)
		}
		return res.Error
	}
	if res.RowsAffected < 1 {
		return fmt.Errorf("并发竞争失败 %w, id %d", errs.ErrDeliveryVersionMismatch, r.ID)
	}
	return nil
}

func (d *deliveryDAO) UpdateStatusByExternalID(ctx context.Context, externalID string, status string, from []string) (int64, error) {
	res := d.db.WithContext(ctx).Model(&DeliveryRecord{}).
		Where("external_id = ? AND status IN ?", externalID, from).
		Updates(map[string]any{
			"status":  status,
			"version": gorm.Expr("version + 1"),
			"utime":   time.Now().UnixMilli(),
		})
	return res.RowsAffected, res.Error
}

func (d *deliveryDAO) Cancel(ctx context.Context, id uint64, version int) error {
	res := d.db.WithContext(ctx).Model(&DeliveryRecord{}).
		Where("id = ? AND version = ? AND status NOT IN ?", id, version, terminalStatuses()).
		Updates(map[string]any{
			"status":      domain.DeliveryStatusCanceled.String(),
			"external_id": sql.NullString{},
			"version":     gorm.Expr("version + 1"),
			"utime":       time.Now().UnixMilli(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected < 1 {
		return fmt.Errorf("取消失败 %w, id %d", errs.ErrDeliveryVersionMismatch, id)
	}
	return nil
}

func (d *deliveryDAO) CancelByChannel(ctx context.Context, tenantID int64, channel string) (int64, error) {
	res := d.db.WithContext(ctx).Model(&DeliveryRecord{}).
		Where("tenant_id = ? AND channel = ? AND status IN ?", tenantID, channel, []string{
			domain.DeliveryStatusScheduled.String(),
			domain.DeliveryStatusFailed.String(),
		}).
		Updates(map[string]any{
			"status":      domain.DeliveryStatusCanceled.String(),
			"external_id": sql.NullString{},
			"version":     gorm.Expr("version + 1"),
			"utime":       time.Now().UnixMilli(),
		})
	return res.RowsAffected, res.Error
}

func (d *deliveryDAO) MarkExhausted(ctx context.Context, id uint64) error {
	return d.db.WithContext(ctx).Model(&DeliveryRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"max_attempts": gorm.Expr("attempts"),
			"version":      gorm.Expr("version + 1"),
			"utime":        time.Now().UnixMilli(),
		}).Error
}

func (d *deliveryDAO) FindDueScheduled(ctx context.Context, now int64, limit int) ([]DeliveryRecord, error) {
	var res []DeliveryRecord
	err := d.db.WithContext(ctx).
		Where("status = ? AND scheduled_at <= ?", domain.DeliveryStatusScheduled.String(), now).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&res).Error
	return res, err
}

func (d *deliveryDAO) FindRetryable(ctx context.Context, utimeBefore int64, limit int) ([]DeliveryRecord, error) {
	var res []DeliveryRecord
	err := d.db.WithContext(ctx).
		Where("status = ? AND attempts < max_attempts AND utime <= ?", domain.DeliveryStatusFailed.String(), utimeBefore).
		Order("utime ASC").
		Limit(limit).
		Find(&res).Error
	return res, err
}

// MarkTimeoutPendingAsFailed 认领之后迟迟没有写回结果的记录，一般是进程在发送过程中退出了
func (d *deliveryDAO) MarkTimeoutPendingAsFailed(ctx context.Context, utimeBefore int64, batchSize int) (int64, error) {
	res := d.db.WithContext(ctx).Model(&DeliveryRecord{}).
		Where("status = ? AND utime <= ?", domain.DeliveryStatusPending.String(), utimeBefore).
		Limit(batchSize).
		Updates(map[string]any{
			"status":        domain.DeliveryStatusFailed.String(),
			"external_id":   sql.NullString{},
			"error_code":    "STUCK_TIMEOUT",
			"error_message": "发送超时未写回结果",
			"version":       gorm.Expr("version + 1"),
			"utime":         time.Now().UnixMilli(),
		})
	return res.RowsAffected, res.Error
}

func (d *deliveryDAO) DeleteBefore(ctx context.Context, ctimeBefore int64, batchSize int) (int64, error) {
	res := d.db.WithContext(ctx).
		Where("ctime < ?", ctimeBefore).
		Limit(batchSize).
		Delete(&DeliveryRecord{})
	return res.RowsAffected, res.Error
}

func terminalStatuses() []string {
	return slice.Map([]domain.DeliveryStatus{
		domain.DeliveryStatusDelivered,
		domain.DeliveryStatusRead,
		domain.DeliveryStatusCanceled,
	}, func(_ int, src domain.DeliveryStatus) string {
		return src.String()
	})
}
