package ioc

import (
	"context"
	"time"

	"gitee.com/flycash/workshop-notification/internal/pkg/retry"
	"gitee.com/flycash/workshop-notification/internal/repository/dao"
	"github.com/ego-component/egorm"
	"github.com/gotomicro/ego/core/econf"
	"github.com/gotomicro/ego/core/elog"
)

// InitDB 连接 mysql，等数据库可用之后建表
func InitDB() *egorm.Component {
	db := egorm.Load("mysql").Build()
	waitForDB(db)
	if err := dao.InitTables(db); err != nil {
		panic(err)
	}
	return db
}

func waitForDB(db *egorm.Component) {
	cfg := retry.Config{
		Type: "exponential",
		ExponentialBackoff: &retry.ExponentialBackoffConfig{
			InitialInterval: time.Second,
			MaxInterval:     10 * time.Second,
			MaxRetries:      10,
		},
	}
	if econf.Get("mysql.retry") != nil {
		if err := econf.UnmarshalKey("mysql.retry", &cfg); err != nil {
			panic(err)
		}
	}
	strategy, err := retry.NewRetry(cfg)
	if err != nil {
		panic(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	const pingTimeout = 5 * time.Second
	err = retry.Do(context.Background(), strategy, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		err1 := sqlDB.PingContext(ctx)
		if err1 != nil {
			elog.Warn("等待数据库启动", elog.FieldErr(err1))
		}
		return err1
	})
	if err != nil {
		panic(err)
	}
}
