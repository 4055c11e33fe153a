package config

import (
	"context"
	"fmt"

	"gitee.com/flycash/workshop-notification/internal/domain"
	"gitee.com/flycash/workshop-notification/internal/errs"
	"gitee.com/flycash/workshop-notification/internal/repository"
)

// Service 租户通知配置服务。编排层只读，Save/Delete 给管理端用
//
//go:generate mockgen -source=./config.go -destination=./mocks/config.mock.go -package=configmocks Service
type Service interface {
	// Get 返回配置快照，调用方修改它不会影响缓存；不存在返回 errs.ErrConfigNotFound
	Get(ctx context.Context, tenantID int64) (domain.TenantNotificationConfig, error)
	Save(ctx context.Context, cfg domain.TenantNotificationConfig) error
	Delete(ctx context.Context, tenantID int64) error
}

type service struct {
	repo repository.NotificationConfigRepository
}

// NewService 创建租户通知配置服务实例
func NewService(repo repository.NotificationConfigRepository) Service {
	return &service{
		repo: repo,
	}
}

func (s *service) Get(ctx context.Context, tenantID int64) (domain.TenantNotificationConfig, error) {
	if tenantID <= 0 {
		return domain.TenantNotificationConfig{}, fmt.Errorf("%w: tenantID = %d", errs.ErrInvalidParameter, tenantID)
	}
	cfg, err := s.repo.GetByTenantID(ctx, tenantID)
	if err != nil {
		return domain.TenantNotificationConfig{}, err
	}
	return cfg.Clone(), nil
}

func (s *service) Save(ctx context.Context, cfg domain.TenantNotificationConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Timezone == "" {
		cfg.Timezone = domain.DefaultTimezone
	}
	return s.repo.Save(ctx, cfg)
}

func (s *service) Delete(ctx context.Context, tenantID int64) error {
	if tenantID <= 0 {
		return fmt.Errorf("%w: tenantID = %d", errs.ErrInvalidParameter, tenantID)
	}
	return s.repo.Delete(ctx, tenantID)
}
