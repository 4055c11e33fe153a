package main

import (
	"context"
	"time"

	"gitee.com/flycash/workshop-notification/cmd/platform/ioc"
	prodioc "gitee.com/flycash/workshop-notification/internal/ioc"
	"github.com/gotomicro/ego"
	"github.com/gotomicro/ego/core/elog"
	"github.com/gotomicro/ego/server/egovernor"
)

func main() {
	app := ego.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp := prodioc.InitZipkinTracer()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			elog.Error("Shutdown zipkinTracer", elog.FieldErr(err))
		}
	}()

	platform := ioc.InitApp()
	platform.StartTasks(ctx)

	if err := app.Serve(
		egovernor.Load("server.governor").Build(),
		platform.WebServer,
	).Cron(platform.Crons...).Run(); err != nil {
		elog.Panic("startup", elog.FieldErr(err))
	}
}
