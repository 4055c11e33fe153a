package notification

import (
	"context"
	"time"

	"gitee.com/flycash/workshop-notification/internal/pkg/loopjob"
	"github.com/gotomicro/ego/core/elog"
	"github.com/hashicorp/go-multierror"
	"github.com/meoying/dlock-go"
)

// TaskConfig 后台扫描任务的参数
type TaskConfig struct {
	BatchSize int `yaml:"batchSize"`
	// Interval 一轮没有处理满一批时的休眠时间
	Interval time.Duration `yaml:"interval"`
	// LockInterval 分布式锁的过期时间
	LockInterval time.Duration `yaml:"lockInterval"`
}

func (c TaskConfig) withDefaults() TaskConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.Interval <= 0 {
		c.Interval = 10 * time.Second
	}
	if c.LockInterval <= 0 {
		c.LockInterval = time.Minute
	}
	return c
}

// SweepTask 发送到期的推迟记录、自动重发失败记录、回收卡住的 PENDENTE 记录
type SweepTask struct {
	dclient dlock.Client
	svc     Service
	cfg     TaskConfig
	logger  *elog.Component
}

func NewSweepTask(dclient dlock.Client, svc Service, cfg TaskConfig) *SweepTask {
	return &SweepTask{
		dclient: dclient,
		svc:     svc,
		cfg:     cfg.withDefaults(),
		logger:  elog.DefaultLogger,
	}
}

func (s *SweepTask) Start(ctx context.Context) {
	const key = "notification_delivery_sweep"
	lp := loopjob.NewInfiniteLoop(s.dclient, s.HandleSweep, key, loopjob.WithInterval(s.cfg.LockInterval))
	go lp.Run(ctx)
}

// HandleSweep 执行一轮。三类记录都没有积压的时候休眠 Interval
func (s *SweepTask) HandleSweep(ctx context.Context) error {
	busy, err := s.sweepOnce(ctx)
	if !busy {
		loopjob.Sleep(ctx, s.cfg.Interval)
	}
	return err
}

func (s *SweepTask) sweepOnce(ctx context.Context) (bool, error) {
	const roundTimeout = time.Minute
	ctx, cancel := context.WithTimeout(ctx, roundTimeout)
	defer cancel()

	var result *multierror.Error
	recovered, err := s.svc.RecoverStuck(ctx, s.cfg.BatchSize)
	if err != nil {
		result = multierror.Append(result, err)
	}
	due, err := s.svc.ProcessDue(ctx, s.cfg.BatchSize)
	if err != nil {
		result = multierror.Append(result, err)
	}
	retried, err := s.svc.RetryFailed(ctx, s.cfg.BatchSize)
	if err != nil {
		result = multierror.Append(result, err)
	}
	if recovered > 0 || due > 0 || retried > 0 {
		s.logger.Info("后台扫描完成",
			elog.Int64("recovered", recovered),
			elog.Int("due", due),
			elog.Int("retried", retried))
	}
	busy := int(recovered) >= s.cfg.BatchSize || due >= s.cfg.BatchSize || retried >= s.cfg.BatchSize
	return busy, result.ErrorOrNil()
}

// RetentionCron 定期删除过期的投递记录，由 ecron 调度
type RetentionCron struct {
	svc       Service
	retention time.Duration
	batchSize int
	now       func() time.Time
	logger    *elog.Component
}

func NewRetentionCron(svc Service, retention time.Duration) *RetentionCron {
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}
	return &RetentionCron{
		svc:       svc,
		retention: retention,
		batchSize: 500,
		now:       time.Now,
		logger:    elog.DefaultLogger,
	}
}

func (c *RetentionCron) Do(ctx context.Context) error {
	before := c.now().Add(-c.retention)
	var total int64
	for {
		loopCtx, cancel := context.WithTimeout(ctx, time.Second*15)
		cnt, err := c.svc.PurgeBefore(loopCtx, before, c.batchSize)
		cancel()
		if err != nil {
			c.logger.Error("删除过期投递记录失败", elog.FieldErr(err), elog.Int64("deleted", total))
			return err
		}
		total += cnt
		if cnt < int64(c.batchSize) {
			break
		}
	}
	c.logger.Info("删除过期投递记录完成", elog.Int64("deleted", total))
	return nil
}
