package template

import (
	"context"
	"errors"
	"fmt"

	"gitee.com/flycash/workshop-notification/internal/domain"
	"gitee.com/flycash/workshop-notification/internal/errs"
	"gitee.com/flycash/workshop-notification/internal/repository"
	"github.com/gotomicro/ego/core/elog"
)

// Resolver 按 租户模板 -> 系统默认模板 -> 内置模板 的顺序解析模板
//
//go:generate mockgen -source=./resolver.go -destination=./mocks/resolver.mock.go -package=templatemocks Resolver
type Resolver interface {
	Resolve(ctx context.Context, tenantID int64, event domain.Event, ch domain.Channel) (domain.ResolvedTemplate, error)
}

type resolver struct {
	repo    repository.TemplateRepository
	builtin *Builtin
	logger  *elog.Component
}

func NewResolver(repo repository.TemplateRepository, builtin *Builtin) Resolver {
	return &resolver{
		repo:    repo,
		builtin: builtin,
		logger:  elog.DefaultLogger,
	}
}

func (r *resolver) Resolve(ctx context.Context, tenantID int64, event domain.Event, ch domain.Channel) (domain.ResolvedTemplate, error) {
	if tenantID != domain.SystemTenantID {
		if tmpl, ok := r.lookup(ctx, tenantID, event, ch); ok {
			return r.toResolved(tmpl, domain.TemplateOriginTenant), nil
		}
	}
	if tmpl, ok := r.lookup(ctx, domain.SystemTenantID, event, ch); ok {
		return r.toResolved(tmpl, domain.TemplateOriginSystem), nil
	}
	if res, ok := r.builtin.Get(event, ch); ok {
		return res, nil
	}
	return domain.ResolvedTemplate{}, fmt.Errorf("%w: event=%s channel=%s", errs.ErrTemplateUnavailable, event, ch)
}

// lookup 查询出错时记录日志并继续往下一层找
func (r *resolver) lookup(ctx context.Context, tenantID int64, event domain.Event, ch domain.Channel) (domain.Template, bool) {
	tmpl, err := r.repo.FindActive(ctx, tenantID, event, ch)
	if err == nil {
		return tmpl, tmpl.Body != ""
	}
	if !errors.Is(err, repository.ErrTemplateNotFound) {
		r.logger.Warn("查询模板失败，使用下一层模板",
			elog.FieldErr(err),
			elog.Int64("tenantID", tenantID),
			elog.String("event", event.String()),
			elog.String("channel", ch.String()))
	}
	return domain.Template{}, false
}

func (r *resolver) toResolved(tmpl domain.Template, origin domain.TemplateOrigin) domain.ResolvedTemplate {
	return domain.ResolvedTemplate{
		Subject:    tmpl.Subject,
		Body:       tmpl.Body,
		Origin:     origin,
		TemplateID: tmpl.ID,
	}
}
