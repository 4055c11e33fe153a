package metrics

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

var _ redis.Hook = (*Hook)(nil)

// Hook 统计 redis 命令、管道和建连。
// 配置缓存、临时文件和分布式锁共用同一个客户端，用 command 标签区分
type Hook struct {
	commands        *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	pipelines       *prometheus.CounterVec
	pipelineSize    prometheus.Histogram
	dials           *prometheus.CounterVec
}

func NewHook(reg prometheus.Registerer, namespace string) *Hook {
	h := &Hook{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "commands_total",
			Help:      "redis 命令执行次数",
		}, []string{"command", "status"}),
		commandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "command_duration_seconds",
			Help:      "redis 命令耗时（秒）",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"command"}),
		pipelines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "pipelines_total",
			Help:      "redis 管道执行次数",
		}, []string{"status"}),
		pipelineSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "pipeline_commands",
			Help:      "每个管道里的命令数量",
			Buckets:   prometheus.LinearBuckets(1, 5, 6),
		}),
		dials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "dials_total",
			Help:      "redis 建连次数",
		}, []string{"status"}),
	}
	reg.MustRegister(h.commands, h.commandDuration, h.pipelines, h.pipelineSize, h.dials)
	return h
}

func (h *Hook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		name := cmd.Name()
		h.commandDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		h.commands.WithLabelValues(name, status(err)).Inc()
		return err
	}
}

func (h *Hook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if len(cmds) == 0 {
			return err
		}
		h.pipelineSize.Observe(float64(len(cmds)))
		st := status(err)
		for _, cmd := range cmds {
			if status(cmd.Err()) == statusError {
				st = statusError
				break
			}
		}
		h.pipelines.WithLabelValues(st).Inc()
		return err
	}
}

func (h *Hook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		h.dials.WithLabelValues(status(err)).Inc()
		return conn, err
	}
}

// status redis.Nil 是正常的未命中
func status(err error) string {
	if err != nil && !errors.Is(err, redis.Nil) {
		return statusError
	}
	return statusSuccess
}

// WithMetrics 给客户端挂上指标钩子
func WithMetrics(client *redis.Client, h *Hook) *redis.Client {
	client.AddHook(h)
	return client
}
