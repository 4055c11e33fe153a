package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/workshop-notification/internal/domain"
	"gitee.com/flycash/workshop-notification/internal/repository/dao"
	ca "github.com/patrickmn/go-cache"
)

// ErrTemplateNotFound 这一层没有启用的模板
var ErrTemplateNotFound = dao.ErrTemplateNotFound

// TemplateRepository 模板仓储，只读
//
//go:generate mockgen -source=./template.go -destination=./mocks/template.mock.go -package=repomocks TemplateRepository
type TemplateRepository interface {
	// FindActive 找不到返回 ErrTemplateNotFound
	FindActive(ctx context.Context, tenantID int64, event domain.Event, ch domain.Channel) (domain.Template, error)
	Create(ctx context.Context, tmpl domain.Template) (domain.Template, error)
}

// templateRepository 在数据库前面挡一层本地缓存，"不存在" 也会被缓存
type templateRepository struct {
	dao   dao.TemplateDAO
	cache *ca.Cache
}

// NewTemplateRepository 创建模板仓储实例
func NewTemplateRepository(d dao.TemplateDAO, c *ca.Cache) TemplateRepository {
	return &templateRepository{
		dao:   d,
		cache: c,
	}
}

type templateCacheEntry struct {
	tmpl  domain.Template
	found bool
}

const templateCacheExpiration = time.Minute

func templateKey(tenantID int64, event domain.Event, ch domain.Channel) string {
	return fmt.Sprintf("template:%d:%s:%s", tenantID, event, ch)
}

func (r *templateRepository) FindActive(ctx context.Context, tenantID int64, event domain.Event, ch domain.Channel) (domain.Template, error) {
	key := templateKey(tenantID, event, ch)
	if v, ok := r.cache.Get(key); ok {
		if entry, ok := v.(templateCacheEntry); ok {
			if !entry.found {
				return domain.Template{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, key)
			}
			return entry.tmpl, nil
		}
	}

	entity, err := r.dao.FindActive(ctx, tenantID, event.String(), ch.String())
	switch {
	case err == nil:
		tmpl := r.toDomain(entity)
		r.cache.Set(key, templateCacheEntry{tmpl: tmpl, found: true}, templateCacheExpiration)
		return tmpl, nil
	case errors.Is(err, dao.ErrTemplateNotFound):
		r.cache.Set(key, templateCacheEntry{}, templateCacheExpiration)
		return domain.Template{}, err
	default:
		// 数据库错误不缓存
		return domain.Template{}, err
	}
}

func (r *templateRepository) Create(ctx context.Context, tmpl domain.Template) (domain.Template, error) {
	entity, err := r.dao.Create(ctx, dao.Template{
		TenantID: tmpl.TenantID,
		Event:    tmpl.Event.String(),
		Channel:  tmpl.Channel.String(),
		Subject:  tmpl.Subject,
		Body:     tmpl.Body,
		Active:   tmpl.Active,
	})
	if err != nil {
		return domain.Template{}, err
	}
	r.cache.Delete(templateKey(tmpl.TenantID, tmpl.Event, tmpl.Channel))
	return r.toDomain(entity), nil
}

func (r *templateRepository) toDomain(entity dao.Template) domain.Template {
	return domain.Template{
		ID:       entity.ID,
		TenantID: entity.TenantID,
		Event:    domain.Event(entity.Event),
		Channel:  domain.Channel(entity.Channel),
		Subject:  entity.Subject,
		Body:     entity.Body,
		Active:   entity.Active,
		Ctime:    entity.Ctime,
		Utime:    entity.Utime,
	}
}
