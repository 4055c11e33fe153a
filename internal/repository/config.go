package repository

import (
	"context"

	"gitee.com/flycash/workshop-notification/internal/domain"
	"gitee.com/flycash/workshop-notification/internal/repository/cache"
	"gitee.com/flycash/workshop-notification/internal/repository/cache/local"
	"gitee.com/flycash/workshop-notification/internal/repository/cache/redis"
	"gitee.com/flycash/workshop-notification/internal/repository/dao"
	"github.com/gotomicro/ego/core/elog"
)

// NotificationConfigRepository 租户通知配置仓储
//
//go:generate mockgen -source=./config.go -destination=./mocks/config.mock.go -package=repomocks NotificationConfigRepository
type NotificationConfigRepository interface {
	GetByTenantID(ctx context.Context, tenantID int64) (domain.TenantNotificationConfig, error)
	Save(ctx context.Context, cfg domain.TenantNotificationConfig) error
	Delete(ctx context.Context, tenantID int64) error
}

// notificationConfigRepository 读取顺序：本地缓存 -> redis -> 数据库
type notificationConfigRepository struct {
	dao        dao.NotificationConfigDAO
	localCache cache.ConfigCache
	redisCache cache.ConfigCache
	logger     *elog.Component
}

// NewNotificationConfigRepository 创建租户通知配置仓储实例
func NewNotificationConfigRepository(
	configDao dao.NotificationConfigDAO,
	localCache *local.Cache,
	redisCache *redis.Cache,
) NotificationConfigRepository {
	return newNotificationConfigRepository(configDao, localCache, redisCache)
}

func newNotificationConfigRepository(configDao dao.NotificationConfigDAO, localCache, redisCache cache.ConfigCache) *notificationConfigRepository {
	return &notificationConfigRepository{
		dao:        configDao,
		localCache: localCache,
		redisCache: redisCache,
		logger:     elog.DefaultLogger,
	}
}

func (r *notificationConfigRepository) GetByTenantID(ctx context.Context, tenantID int64) (domain.TenantNotificationConfig, error) {
	cfg, err := r.localCache.Get(ctx, tenantID)
	if err == nil {
		return cfg, nil
	}
	cfg, err = r.redisCache.Get(ctx, tenantID)
	if err == nil {
		_ = r.localCache.Set(ctx, cfg)
		return cfg, nil
	}

	entity, err := r.dao.GetByTenantID(ctx, tenantID)
	if err != nil {
		return domain.TenantNotificationConfig{}, err
	}
	cfg, err = r.toDomain(entity)
	if err != nil {
		return domain.TenantNotificationConfig{}, err
	}
	if err1 := r.redisCache.Set(ctx, cfg); err1 != nil {
		// 缓存失败不影响读取
		r.logger.Warn("回写redis配置缓存失败", elog.FieldErr(err1), elog.Int64("tenantID", tenantID))
	}
	_ = r.localCache.Set(ctx, cfg)
	return cfg, nil
}

func (r *notificationConfigRepository) Save(ctx context.Context, cfg domain.TenantNotificationConfig) error {
	entity, err := r.toEntity(cfg)
	if err != nil {
		return err
	}
	if _, err = r.dao.Save(ctx, entity); err != nil {
		return err
	}
	r.invalidate(ctx, cfg.TenantID)
	return nil
}

func (r *notificationConfigRepository) Delete(ctx context.Context, tenantID int64) error {
	if err := r.dao.Delete(ctx, tenantID); err != nil {
		return err
	}
	r.invalidate(ctx, tenantID)
	return nil
}

func (r *notificationConfigRepository) invalidate(ctx context.Context, tenantID int64) {
	if err := r.redisCache.Del(ctx, tenantID); err != nil {
		r.logger.Warn("删除redis配置缓存失败", elog.FieldErr(err), elog.Int64("tenantID", tenantID))
	}
	_ = r.localCache.Del(ctx, tenantID)
}

func (r *notificationConfigRepository) toEntity(cfg domain.TenantNotificationConfig) (dao.NotificationConfig, error) {
	settings, err := pkgJSON(cfg.EventSettings)
	if err != nil {
		return dao.NotificationConfig{}, err
	}
	return dao.NotificationConfig{
		TenantID:        cfg.TenantID,
		EmailEnabled:    cfg.EmailEnabled,
		WhatsAppEnabled: cfg.WhatsAppEnabled,
		TelegramEnabled: cfg.TelegramEnabled,
		SMSEnabled:      cfg.SMSEnabled,
		FallbackChannel: cfg.FallbackChannel.String(),
		BusinessStart:   cfg.BusinessStart.String(),
		BusinessEnd:     cfg.BusinessEnd.String(),
		SendOnSaturdays: cfg.SendOnSaturdays,
		SendOnSundays:   cfg.SendOnSundays,
		SimulationMode:  cfg.SimulationMode,
		MaxRetries:      cfg.MaxRetries,
		Timezone:        cfg.Timezone,
		EventSettings:   settings,
	}, nil
}

func (r *notificationConfigRepository) toDomain(entity dao.NotificationConfig) (domain.TenantNotificationConfig, error) {
	start, err := domain.ParseTimeOfDay(entity.BusinessStart)
	if err != nil {
		return domain.TenantNotificationConfig{}, err
	}
	end, err := domain.ParseTimeOfDay(entity.BusinessEnd)
	if err != nil {
		return domain.TenantNotificationConfig{}, err
	}
	var settings map[domain.EventChannelKey]domain.EventChannelSetting
	if err = entity.EventSettings.Decode(&settings); err != nil {
		return domain.TenantNotificationConfig{}, err
	}
	return domain.TenantNotificationConfig{
		TenantID:        entity.TenantID,
		EmailEnabled:    entity.EmailEnabled,
		WhatsAppEnabled: entity.WhatsAppEnabled,
		TelegramEnabled: entity.TelegramEnabled,
		SMSEnabled:      entity.SMSEnabled,
		FallbackChannel: domain.Channel(entity.FallbackChannel),
		BusinessStart:   start,
		BusinessEnd:     end,
		SendOnSaturdays: entity.SendOnSaturdays,
		SendOnSundays:   entity.SendOnSundays,
		SimulationMode:  entity.SimulationMode,
		MaxRetries:      entity.MaxRetries,
		Timezone:        entity.Timezone,
		EventSettings:   settings,
		Ctime:           entity.Ctime,
		Utime:           entity.Utime,
	}, nil
}
