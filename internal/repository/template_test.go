package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gitee.com/flycash/workshop-notification/internal/domain"
	"gitee.com/flycash/workshop-notification/internal/repository/dao"
	ca "github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTemplateDAO struct {
	dao.TemplateDAO
	calls int
	tmpl  dao.Template
	err   error
}

func (f *fakeTemplateDAO) FindActive(_ context.Context, tenantID int64, event, channel string) (dao.Template, error) {
	f.calls++
	if f.err != nil {
		return dao.Template{}, f.err
	}
	return f.tmpl, nil
}

func (f *fakeTemplateDAO) Create(_ context.Context, tmpl dao.Template) (dao.Template, error) {
	tmpl.ID = 10
	return tmpl, nil
}

func TestTemplateRepository_FindActive(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name      string
		dao       *fakeTemplateDAO
		wantErr   error
		wantCalls int
	}{
		{
			name: "命中之后走缓存",
			dao: &fakeTemplateDAO{tmpl: dao.Template{
				ID: 7, TenantID: 42, Event: "OS_CRIADA", Channel: "EMAIL", Subject: "OS {{os}}", Body: "Olá {{nome}}", Active: true,
			}},
			wantCalls: 1,
		},
		{
			name:      "不存在也会缓存",
			dao:       &fakeTemplateDAO{err: fmt.Errorf("%w: tenantID=42", dao.ErrTemplateNotFound)},
			wantErr:   ErrTemplateNotFound,
			wantCalls: 1,
		},
		{
			name:      "数据库错误不缓存",
			dao:       &fakeTemplateDAO{err: errors.New("mock db error")},
			wantErr:   errors.New("mock db error"),
			wantCalls: 2,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			repo := NewTemplateRepository(tc.dao, ca.New(time.Minute, time.Minute))
			for i := 0; i < 2; i++ {
				tmpl, err := repo.FindActive(context.Background(), 42, domain.EventOSCreated, domain.ChannelEmail)
				switch {
				case tc.wantErr == nil:
					require.NoError(t, err)
					assert.Equal(t, int64(7), tmpl.ID)
					assert.Equal(t, "OS {{os}}", tmpl.Subject)
				case errors.Is(tc.wantErr, ErrTemplateNotFound):
					assert.ErrorIs(t, err, ErrTemplateNotFound)
				default:
					assert.EqualError(t, err, tc.wantErr.Error())
				}
			}
			assert.Equal(t, tc.wantCalls, tc.dao.calls)
		})
	}
}

func TestTemplateRepository_CreateInvalidatesCache(t *testing.T) {
	t.Parallel()
	d := &fakeTemplateDAO{err: dao.ErrTemplateNotFound}
	repo := NewTemplateRepository(d, ca.New(time.Minute, time.Minute))
	ctx := context.Background()

	_, err := repo.FindActive(ctx, 42, domain.EventOSCreated, domain.ChannelEmail)
	require.ErrorIs(t, err, ErrTemplateNotFound)

	_, err = repo.Create(ctx, domain.Template{TenantID: 42, Event: domain.EventOSCreated, Channel: domain.ChannelEmail, Body: "oi", Active: true})
	require.NoError(t, err)

	d.err = nil
	d.tmpl = dao.Template{ID: 10, TenantID: 42, Event: "OS_CRIADA", Channel: "EMAIL", Body: "oi", Active: true}
	tmpl, err := repo.FindActive(ctx, 42, domain.EventOSCreated, domain.ChannelEmail)
	require.NoError(t, err)
	assert.Equal(t, int64(10), tmpl.ID)
	assert.Equal(t, 2, d.calls)
}
