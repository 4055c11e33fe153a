package notification

import (
	"context"
	"time"

	"gitee.com/flycash/workshop-notification/internal/domain"
	"gitee.com/flycash/workshop-notification/internal/repository"
	"gitee.com/flycash/workshop-notification/internal/service/blob"
	"gitee.com/flycash/workshop-notification/internal/service/channel"
	configsvc "gitee.com/flycash/workshop-notification/internal/service/config"
	templatesvc "gitee.com/flycash/workshop-notification/internal/service/template"
	"github.com/gotomicro/ego/core/elog"
	"github.com/sony/sonyflake"
	"golang.org/x/sync/semaphore"
)

// Service 通知编排服务
//
//go:generate mockgen -source=./notification.go -destination=./mocks/notification.mock.go -package=notificationmocks Service
type Service interface {
	// Notify 同步发送，返回每个渠道的结果。
	// 只有配置缺失、没有可用渠道这类编排层错误才会返回 error，渠道失败体现在结果里
	Notify(ctx context.Context, req domain.DispatchRequest) (domain.DispatchResult, error)
	// NotifyAsync 发送在后台进行，不会受调用方 ctx 取消的影响。
	// 后台并发已满时会阻塞到有空闲额度，等待期间 ctx 被取消则放弃这次发送
	NotifyAsync(ctx context.Context, req domain.DispatchRequest)

	// Resend 对 FALHA 或 AGENDADO 的记录重新发送，原地修改这条记录
	Resend(ctx context.Context, id uint64) (domain.DeliveryRecord, error)
	// UpdateStatusByExternalID 提供方回调，找不到记录或者状态不能前进时什么都不做
	UpdateStatusByExternalID(ctx context.Context, externalID string, status domain.DeliveryStatus) (bool, error)
	Cancel(ctx context.Context, id uint64) (domain.DeliveryRecord, error)
	// CancelChannel 租户关闭渠道之后，取消这个渠道上还没发出去的记录
	CancelChannel(ctx context.Context, tenantID int64, ch domain.Channel) (int64, error)

	GetRecord(ctx context.Context, id uint64) (domain.DeliveryRecord, error)
	ListRecords(ctx context.Context, q domain.DeliveryQuery) ([]domain.DeliveryRecord, error)

	// ProcessDue 发送已经到期的 AGENDADO 记录
	ProcessDue(ctx context.Context, batchSize int) (int, error)
	// RetryFailed 自动重发 FALHA 的记录
	RetryFailed(ctx context.Context, batchSize int) (int, error)
	// RecoverStuck 把卡在 PENDENTE 的记录改成 FALHA，之后可以重发
	RecoverStuck(ctx context.Context, batchSize int) (int64, error)
	// PurgeBefore 删除创建时间早于 before 的记录
	PurgeBefore(ctx context.Context, before time.Time, batchSize int) (int64, error)
}

// Options 编排服务的运行参数
type Options struct {
	// BaseURL 对外可以访问的地址，附件下载链接以它开头
	BaseURL string `yaml:"baseURL"`
	// SendTimeout 单个渠道一次发送的上限
	SendTimeout time.Duration `yaml:"sendTimeout"`
	// AsyncConcurrency 后台同时进行的异步发送数量
	AsyncConcurrency int64 `yaml:"asyncConcurrency"`
	// RetryInterval 失败之后至少间隔多久才会被自动重发
	RetryInterval time.Duration `yaml:"retryInterval"`
	// StuckTimeout PENDENTE 超过这个时间视为发送进程已经退出
	StuckTimeout time.Duration `yaml:"stuckTimeout"`
}

func (o Options) withDefaults() Options {
	if o.SendTimeout <= 0 {
		o.SendTimeout = 15 * time.Second
	}
	if o.AsyncConcurrency <= 0 {
		o.AsyncConcurrency = 32
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = 5 * time.Minute
	}
	if o.StuckTimeout <= 0 {
		o.StuckTimeout = 10 * time.Minute
	}
	return o
}

type service struct {
	configSvc configsvc.Service
	resolver  templatesvc.Resolver
	senders   *channel.Registry
	repo      repository.DeliveryRepository
	blobs     blob.Store
	idGen     *sonyflake.Sonyflake

	opts     Options
	asyncSem *semaphore.Weighted
	now      func() time.Time
	logger   *elog.Component
}

// NewService 创建通知编排服务。每个发送器都会被套上 SendTimeout 超时
func NewService(
	configSvc configsvc.Service,
	resolver templatesvc.Resolver,
	senders *channel.Registry,
	repo repository.DeliveryRepository,
	blobs blob.Store,
	idGen *sonyflake.Sonyflake,
	opts Options,
) Service {
	return newService(configSvc, resolver, senders, repo, blobs, idGen, opts)
}

func newService(
	configSvc configsvc.Service,
	resolver templatesvc.Resolver,
	senders *channel.Registry,
	repo repository.DeliveryRepository,
	blobs blob.Store,
	idGen *sonyflake.Sonyflake,
	opts Options,
) *service {
	opts = opts.withDefaults()
	return &service{
		configSvc: configSvc,
		resolver:  resolver,
		senders:   senders.Decorate(channel.WithTimeout(opts.SendTimeout)),
		repo:      repo,
		blobs:     blobs,
		idGen:     idGen,
		opts:      opts,
		asyncSem:  semaphore.NewWeighted(opts.AsyncConcurrency),
		now:       time.Now,
		logger:    elog.DefaultLogger,
	}
}
