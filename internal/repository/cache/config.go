package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/workshop-notification/internal/domain"
)

const (
	ConfigPrefix       = "notification_config"
	DefaultExpiredTime = 10 * time.Minute
)

var ErrorKeyNotFound = errors.New("key not found")

// ConfigCache 租户通知配置缓存
type ConfigCache interface {
	Get(ctx context.Context, tenantID int64) (domain.TenantNotificationConfig, error)
	Set(ctx context.Context, cfg domain.TenantNotificationConfig) error
	Del(ctx context.Context, tenantID int64) error
}

func ConfigKey(tenantID int64) string {
	return fmt.Sprintf("%s:%d", ConfigPrefix, tenantID)
}
