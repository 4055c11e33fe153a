package ioc

import (
	"gitee.com/flycash/workshop-notification/internal/repository"
	"gitee.com/flycash/workshop-notification/internal/service/blob"
	"gitee.com/flycash/workshop-notification/internal/service/channel"
	configsvc "gitee.com/flycash/workshop-notification/internal/service/config"
	notificationsvc "gitee.com/flycash/workshop-notification/internal/service/notification"
	templatesvc "gitee.com/flycash/workshop-notification/internal/service/template"
	"github.com/gotomicro/ego/core/econf"
	"github.com/meoying/dlock-go"
	"github.com/sony/sonyflake"
)

func InitNotificationOptions() notificationsvc.Options {
	var opts notificationsvc.Options
	if err := econf.UnmarshalKey("notification", &opts); err != nil {
		panic(err)
	}
	return opts
}

// InitNotificationService 编排服务外面套一层链路追踪
func InitNotificationService(
	configSvc configsvc.Service,
	resolver templatesvc.Resolver,
	senders *channel.Registry,
	repo repository.DeliveryRepository,
	blobs blob.Store,
	idGen *sonyflake.Sonyflake,
	opts notificationsvc.Options,
) notificationsvc.Service {
	svc := notificationsvc.NewService(configSvc, resolver, senders, repo, blobs, idGen, opts)
	return notificationsvc.NewTracedService(svc)
}

func InitSweepTask(dclient dlock.Client, svc notificationsvc.Service) *notificationsvc.SweepTask {
	var cfg notificationsvc.TaskConfig
	if err := econf.UnmarshalKey("notification.sweep", &cfg); err != nil {
		panic(err)
	}
	return notificationsvc.NewSweepTask(dclient, svc, cfg)
}

// InitRetentionCron notification.retention 没有配置时保留 90 天
func InitRetentionCron(svc notificationsvc.Service) *notificationsvc.RetentionCron {
	return notificationsvc.NewRetentionCron(svc, econf.GetDuration("notification.retention"))
}

func InitBuiltinTemplates() *templatesvc.Builtin {
	return templatesvc.MustLoadBuiltin()
}
