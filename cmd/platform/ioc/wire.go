//go:build wireinject

package ioc

import (
	"gitee.com/flycash/workshop-notification/internal/ioc"
	"gitee.com/flycash/workshop-notification/internal/repository"
	"gitee.com/flycash/workshop-notification/internal/repository/cache/local"
	rediscache "gitee.com/flycash/workshop-notification/internal/repository/cache/redis"
	"gitee.com/flycash/workshop-notification/internal/repository/dao"
	configsvc "gitee.com/flycash/workshop-notification/internal/service/config"
	templatesvc "gitee.com/flycash/workshop-notification/internal/service/template"
	"gitee.com/flycash/workshop-notification/internal/web"
	"github.com/google/wire"
)

var (
	BaseSet = wire.NewSet(
		ioc.InitDB,
		ioc.InitRedisClient,
		ioc.InitRedisCmd,
		ioc.InitDistributedLock,
		ioc.InitIDGenerator,
		ioc.InitGoCache,

		local.NewLocalCache,
		rediscache.NewCache,
	)
	configSvcSet = wire.NewSet(
		configsvc.NewService,
		repository.NewNotificationConfigRepository,
		dao.NewNotificationConfigDAO,
	)
	templateSvcSet = wire.NewSet(
		ioc.InitBuiltinTemplates,
		templatesvc.NewResolver,
		repository.NewTemplateRepository,
		dao.NewTemplateDAO,
	)
	notificationSvcSet = wire.NewSet(
		ioc.InitChannels,
		ioc.InitBlobStore,
		ioc.InitBlob,
		ioc.InitNotificationOptions,
		ioc.InitNotificationService,
		repository.NewDeliveryRepository,
		dao.NewDeliveryDAO,
	)
	eventSet = wire.NewSet(
		ioc.InitKafkaConfig,
		ioc.InitOrderEventConsumer,
	)
	webSet = wire.NewSet(
		web.NewWebhookHandler,
		web.NewRecordHandler,
		ioc.InitWebhookLimiter,
		ioc.InitWebServer,
	)
)

func InitApp() *ioc.App {
	wire.Build(
		// 基础设施
		BaseSet,

		// 租户配置
		configSvcSet,
		// 模板
		templateSvcSet,
		// 通知编排
		notificationSvcSet,
		// 业务事件
		eventSet,
		// HTTP
		webSet,

		// 后台任务
		ioc.InitSweepTask,
		ioc.InitRetentionCron,
		ioc.InitTasks,
		ioc.Crons,

		wire.Struct(new(ioc.App), "*"),
	)
	return new(ioc.App)
}
