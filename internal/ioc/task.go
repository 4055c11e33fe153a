package ioc

import (
	"context"

	"gitee.com/flycash/workshop-notification/internal/event/order"
	"gitee.com/flycash/workshop-notification/internal/repository/cache/local"
	notificationsvc "gitee.com/flycash/workshop-notification/internal/service/notification"
)

// Task 后台任务，Start 可以阻塞，由 App 放到单独的 goroutine 里
type Task interface {
	Start(ctx context.Context)
}

func InitTasks(
	sweep *notificationsvc.SweepTask,
	consumer *order.EventConsumer,
	localCache *local.Cache,
	blobs *BlobStore,
) []Task {
	tasks := []Task{sweep, localCache}
	if consumer != nil {
		tasks = append(tasks, consumer)
	}
	if blobs.sweeper != nil {
		tasks = append(tasks, blobs.sweeper)
	}
	return tasks
}
