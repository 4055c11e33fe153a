package channel

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SendMetrics 渠道发送指标，所有渠道共用同一组指标，用 channel 标签区分
type SendMetrics struct {
	duration *prometheus.SummaryVec
	total    *prometheus.CounterVec
}

func NewSendMetrics(reg prometheus.Registerer) *SendMetrics {
	duration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "channel_send_duration_seconds",
			Help:       "渠道发送通知耗时统计（秒）",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.95: 0.005, 0.99: 0.001},
			MaxAge:     time.Minute * 5,
		},
		[]string{"channel", "status"},
	)
	total := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "channel_send_total",
			Help: "渠道发送通知结果统计",
		},
		[]string{"channel", "status", "code"},
	)
	return &SendMetrics{
		duration: register(reg, duration),
		total:    register(reg, total),
	}
}

// register 重复注册时复用已经注册的指标
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing
		}
	}
	panic(err)
}

// WithMetrics 记录每次发送的耗时和结果
func WithMetrics(m *SendMetrics) func(Sender) Sender {
	return func(s Sender) Sender {
		return &metricsSender{Sender: s, metrics: m}
	}
}

type metricsSender struct {
	Sender
	metrics *SendMetrics
}

func (s *metricsSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	start := time.Now()
	res, err := s.Sender.Send(ctx, req)

	status, code := "success", ""
	switch {
	case err != nil:
		status, code = "error", CodeInternalError
	case !res.Success:
		status, code = "failed", res.ErrorCode
	}
	ch := s.Channel().String()
	s.metrics.total.WithLabelValues(ch, status, code).Inc()
	s.metrics.duration.WithLabelValues(ch, status).Observe(time.Since(start).Seconds())
	return res, err
}
