package ioc

import (
	notificationsvc "gitee.com/flycash/workshop-notification/internal/service/notification"
	"github.com/gotomicro/ego/task/ecron"
)

func Crons(r *notificationsvc.RetentionCron) []ecron.Ecron {
	retention := ecron.Load("cron.retention").Build(ecron.WithJob(r.Do))
	return []ecron.Ecron{retention}
}
