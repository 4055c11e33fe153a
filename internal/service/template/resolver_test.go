package template

import (
	"context"
	"errors"
	"testing"

	"gitee.com/flycash/workshop-notification/internal/domain"
	"gitee.com/flycash/workshop-notification/internal/errs"
	"gitee.com/flycash/workshop-notification/internal/repository"
	repomocks "gitee.com/flycash/workshop-notification/internal/repository/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	const tenantID int64 = 42
	tenantTmpl := domain.Template{ID: 11, TenantID: tenantID, Subject: "T {{numeroOS}}", Body: "tenant body", Active: true}
	systemTmpl := domain.Template{ID: 22, TenantID: domain.SystemTenantID, Subject: "S", Body: "system body", Active: true}

	testCases := []struct {
		name       string
		tenantID   int64
		event      domain.Event
		mock       func(repo *repomocks.MockTemplateRepository)
		wantOrigin domain.TemplateOrigin
		wantBody   string
		wantID     int64
		wantErr    error
	}{
		{
			name:     "租户模板优先",
			tenantID: tenantID,
			event:    domain.EventOSCreated,
			mock: func(repo *repomocks.MockTemplateRepository) {
				repo.EXPECT().FindActive(gomock.Any(), tenantID, domain.EventOSCreated, domain.ChannelEmail).
					Return(tenantTmpl, nil)
			},
			wantOrigin: domain.TemplateOriginTenant,
			wantBody:   "tenant body",
			wantID:     11,
		},
		{
			name:     "租户没有就用系统默认",
			tenantID: tenantID,
			event:    domain.EventOSCreated,
			mock: func(repo *repomocks.MockTemplateRepository) {
				repo.EXPECT().FindActive(gomock.Any(), tenantID, domain.EventOSCreated, domain.ChannelEmail).
					Return(domain.Template{}, repository.ErrTemplateNotFound)
				repo.EXPECT().FindActive(gomock.Any(), domain.SystemTenantID, domain.EventOSCreated, domain.ChannelEmail).
					Return(systemTmpl, nil)
			},
			wantOrigin: domain.TemplateOriginSystem,
			wantBody:   "system body",
			wantID:     22,
		},
		{
			name:     "两层都没有就用内置模板",
			tenantID: tenantID,
			event:    domain.EventOSCreated,
			mock: func(repo *repomocks.MockTemplateRepository) {
				repo.EXPECT().FindActive(gomock.Any(), gomock.Any(), domain.EventOSCreated, domain.ChannelEmail).
					Return(domain.Template{}, repository.ErrTemplateNotFound).Times(2)
			},
			wantOrigin: domain.TemplateOriginBuiltin,
		},
		{
			name:     "数据库出错也降级",
			tenantID: tenantID,
			event:    domain.EventOSCreated,
			mock: func(repo *repomocks.MockTemplateRepository) {
				repo.EXPECT().FindActive(gomock.Any(), gomock.Any(), domain.EventOSCreated, domain.ChannelEmail).
					Return(domain.Template{}, errors.New("mock db error")).Times(2)
			},
			wantOrigin: domain.TemplateOriginBuiltin,
		},
		{
			name:     "系统租户不查租户层",
			tenantID: domain.SystemTenantID,
			event:    domain.EventOSCreated,
			mock: func(repo *repomocks.MockTemplateRepository) {
				repo.EXPECT().FindActive(gomock.Any(), domain.SystemTenantID, domain.EventOSCreated, domain.ChannelEmail).
					Return(systemTmpl, nil).Times(1)
			},
			wantOrigin: domain.TemplateOriginSystem,
			wantBody:   "system body",
			wantID:     22,
		},
		{
			name:     "正文为空的模板视为不存在",
			tenantID: tenantID,
			event:    domain.EventOSCreated,
			mock: func(repo *repomocks.MockTemplateRepository) {
				repo.EXPECT().FindActive(gomock.Any(), tenantID, domain.EventOSCreated, domain.ChannelEmail).
					Return(domain.Template{ID: 1, TenantID: tenantID}, nil)
				repo.EXPECT().FindActive(gomock.Any(), domain.SystemTenantID, domain.EventOSCreated, domain.ChannelEmail).
					Return(systemTmpl, nil)
			},
			wantOrigin: domain.TemplateOriginSystem,
			wantBody:   "system body",
			wantID:     22,
		},
		{
			name:     "未知事件没有内置模板",
			tenantID: tenantID,
			event:    domain.Event("DESCONHECIDO"),
			mock: func(repo *repomocks.MockTemplateRepository) {
				repo.EXPECT().FindActive(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(domain.Template{}, repository.ErrTemplateNotFound).Times(2)
			},
			wantErr: errs.ErrTemplateUnavailable,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := repomocks.NewMockTemplateRepository(ctrl)
			tc.mock(repo)
			r := NewResolver(repo, MustLoadBuiltin())

			res, err := r.Resolve(context.Background(), tc.tenantID, tc.event, domain.ChannelEmail)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantOrigin, res.Origin)
			assert.Equal(t, tc.wantID, res.TemplateID)
			if tc.wantBody != "" {
				assert.Equal(t, tc.wantBody, res.Body)
			} else {
				assert.NotEmpty(t, res.Body)
			}
		})
	}
}
