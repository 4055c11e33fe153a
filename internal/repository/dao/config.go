package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/workshop-notification/internal/errs"
	pkgdao "gitee.com/flycash/workshop-notification/internal/pkg/dao"
	"github.com/ego-component/egorm"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NotificationConfig 租户通知配置表
type NotificationConfig struct {
	TenantID        int64       `gorm:"primaryKey;autoIncrement:false;type:BIGINT;comment:'租户ID'"`
	EmailEnabled    bool        `gorm:"column:email_enabled;NOT NULL;DEFAULT:false"`
	WhatsAppEnabled bool        `gorm:"column:whatsapp_enabled;NOT NULL;DEFAULT:false"`
	TelegramEnabled bool        `gorm:"column:telegram_enabled;NOT NULL;DEFAULT:false"`
	SMSEnabled      bool        `gorm:"column:sms_enabled;NOT NULL;DEFAULT:false"`
	FallbackChannel string      `gorm:"type:VARCHAR(16);comment:'兜底渠道，空表示不兜底'"`
	BusinessStart   string      `gorm:"type:CHAR(5);NOT NULL;DEFAULT:'08:00';comment:'营业开始时间 HH:MM'"`
	BusinessEnd     string      `gorm:"type:CHAR(5);NOT NULL;DEFAULT:'18:00';comment:'营业结束时间 HH:MM'"`
	SendOnSaturdays bool        `gorm:"NOT NULL;DEFAULT:false"`
	SendOnSundays   bool        `gorm:"NOT NULL;DEFAULT:false"`
	SimulationMode  bool        `gorm:"NOT NULL;DEFAULT:false;comment:'模拟模式，不真正调用供应商'"`
	MaxRetries      int         `gorm:"type:INT;NOT NULL;DEFAULT:3;comment:'最大重发次数'"`
	Timezone        string      `gorm:"type:VARCHAR(64);comment:'IANA 时区'"`
	EventSettings   pkgdao.JSON `gorm:"type:JSON;comment:'{\"OS_CRIADA/EMAIL\":{\"Enabled\":true,\"DelayMinutes\":0}}'"`
	Ctime           int64
	Utime           int64
}

// TableName 重命名表
func (NotificationConfig) TableName() string {
	return "notification_configs"
}

type NotificationConfigDAO interface {
	GetByTenantID(ctx context.Context, tenantID int64) (NotificationConfig, error)
	Save(ctx context.Context, cfg NotificationConfig) (NotificationConfig, error)
	Delete(ctx context.Context, tenantID int64) error
}

type notificationConfigDAO struct {
	db *egorm.Component
}

// NewNotificationConfigDAO 创建租户通知配置DAO实例
func NewNotificationConfigDAO(db *egorm.Component) NotificationConfigDAO {
	return &notificationConfigDAO{
		db: db,
	}
}

func (d *notificationConfigDAO) GetByTenantID(ctx context.Context, tenantID int64) (NotificationConfig, error) {
	var cfg NotificationConfig
	err := d.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotificationConfig{}, fmt.Errorf("%w: tenantID=%d", errs.ErrConfigNotFound, tenantID)
		}
		return NotificationConfig{}, err
	}
	return cfg, nil
}

// Save 存在则更新，不存在则插入
func (d *notificationConfigDAO) Save(ctx context.Context, cfg NotificationConfig) (NotificationConfig, error) {
	now := time.Now().UnixMilli()
	cfg.Ctime = now
	cfg.Utime = now
	err := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}},
		DoUpdates: clause.AssignmentColumns(configUpdateColumns),
	}).Create(&cfg).Error
	if err != nil {
		return NotificationConfig{}, err
	}
	return cfg, nil
}

func (d *notificationConfigDAO) Delete(ctx context.Context, tenantID int64) error {
	return d.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Delete(&NotificationConfig{}).Error
}

var configUpdateColumns = []string{
	"email_enabled",
	"whatsapp_enabled",
	"telegram_enabled",
	"sms_enabled",
	"fallback_channel",
	"business_start",
	"business_end",
	"send_on_saturdays",
	"send_on_sundays",
	"simulation_mode",
	"max_retries",
	"timezone",
	"event_settings",
	"utime",
}
