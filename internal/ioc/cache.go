package ioc

import (
	"time"

	"gitee.com/flycash/workshop-notification/internal/repository/cache"
	"github.com/gotomicro/ego/core/econf"
	ca "github.com/patrickmn/go-cache"
	"github.com/sony/sonyflake"
)

const metricsNamespace = "workshop_notification"

func InitGoCache() *ca.Cache {
	const cleanupInterval = time.Minute
	return ca.New(cache.DefaultExpiredTime, cleanupInterval)
}

func InitIDGenerator() *sonyflake.Sonyflake {
	type Config struct {
		MachineID uint16 `yaml:"machineID"`
	}
	var cfg Config
	if err := econf.UnmarshalKey("idGenerator", &cfg); err != nil {
		panic(err)
	}
	settings := sonyflake.Settings{
		StartTime: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	// 没有配置时用内网 IP 的低 16 位
	if cfg.MachineID != 0 {
		settings.MachineID = func() (uint16, error) {
			return cfg.MachineID, nil
		}
	}
	gen := sonyflake.NewSonyflake(settings)
	if gen == nil {
		panic("创建 sonyflake 失败")
	}
	return gen
}
