package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/workshop-notification/internal/errs"
	"github.com/ego-component/egorm"
	"gorm.io/gorm"
)

// ErrTemplateNotFound 这一层没有模板，由上层决定是否继续往下找
var ErrTemplateNotFound = errors.New("模板不存在")

// Template 通知模板表，tenant_id = 0 的是系统默认模板
type Template struct {
	ID       int64  `gorm:"primaryKey;autoIncrement;comment:'模板ID'"`
	TenantID int64  `gorm:"type:BIGINT;NOT NULL;index:idx_tenant_event_channel,priority:1;comment:'租户ID，0表示系统默认'"`
	Event    string `gorm:"type:VARCHAR(64);NOT NULL;index:idx_tenant_event_channel,priority:2;comment:'事件'"`
	Channel  string `gorm:"type:ENUM('EMAIL','WHATSAPP','TELEGRAM','SMS');NOT NULL;index:idx_tenant_event_channel,priority:3;comment:'渠道'"`
	Subject  string `gorm:"type:VARCHAR(512);comment:'主题，聊天渠道可以为空'"`
	Body     string `gorm:"type:TEXT;NOT NULL;comment:'正文，变量格式 {{name}} 或 {name}'"`
	Active   bool   `gorm:"NOT NULL;DEFAULT:true;comment:'是否启用'"`
	Ctime    int64
	Utime    int64
}

// TableName 重命名表
func (Template) TableName() string {
	return "notification_templates"
}

type TemplateDAO interface {
	// FindActive 同一组合有多条启用的模板时取最新的一条
	FindActive(ctx context.Context, tenantID int64, event, channel string) (Template, error)
	Create(ctx context.Context, tmpl Template) (Template, error)
}

type templateDAO struct {
	db *egorm.Component
}

// NewTemplateDAO 创建模板DAO实例
func NewTemplateDAO(db *egorm.Component) TemplateDAO {
	return &templateDAO{
		db: db,
	}
}

func (d *templateDAO) FindActive(ctx context.Context, tenantID int64, event, channel string) (Template, error) {
	var tmpl Template
	err := d.db.WithContext(ctx).
		Where("tenant_id = ? AND event = ? AND channel = ? AND active = ?", tenantID, event, channel, true).
		Order("utime DESC").
		First(&tmpl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Template{}, fmt.Errorf("%w: tenantID=%d event=%s channel=%s", ErrTemplateNotFound, tenantID, event, channel)
		}
		return Template{}, err
	}
	return tmpl, nil
}

func (d *templateDAO) Create(ctx context.Context, tmpl Template) (Template, error) {
	if tmpl.Body == "" {
		return Template{}, fmt.Errorf("%w: 模板正文不能为空", errs.ErrInvalidParameter)
	}
	now := time.Now().UnixMilli()
	tmpl.Ctime, tmpl.Utime = now, now
	err := d.db.WithContext(ctx).Create(&tmpl).Error
	return tmpl, err
}
