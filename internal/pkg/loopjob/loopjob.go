package loopjob

import (
	"context"
	"time"

	"github.com/gotomicro/ego/core/elog"
	"github.com/meoying/dlock-go"
	"github.com/pkg/errors"
)

// 多个实例同时部署的时候，只有拿到分布式锁的那个实例执行后台任务

const (
	defaultTimeout  = time.Second * 3
	defaultInterval = time.Minute
)

type InfiniteLoop struct {
	dclient dlock.Client
	key     string
	// interval 锁的过期时间，也是抢锁失败之后的等待时间
	interval time.Duration
	logger   *elog.Component
	biz      func(ctx context.Context) error
}

type Option func(l *InfiniteLoop)

func WithInterval(interval time.Duration) Option {
	return func(l *InfiniteLoop) {
		if interval > 0 {
			l.interval = interval
		}
	}
}

func NewInfiniteLoop(
	dclient dlock.Client,
	// biz 每一轮执行一次，ctx 被取消的时候整个循环退出。
	// biz 自己决定一轮之间要不要休眠
	biz func(ctx context.Context) error,
	key string,
	opts ...Option,
) *InfiniteLoop {
	l := &InfiniteLoop{
		dclient:  dclient,
		key:      key,
		interval: defaultInterval,
		logger:   elog.DefaultLogger.With(elog.String("key", key)),
		biz:      biz,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run 阻塞，直到 ctx 被取消
func (l *InfiniteLoop) Run(ctx context.Context) {
	for {
		lock, err := l.dclient.NewLock(ctx, l.key, l.interval)
		if err != nil {
			l.logger.Error("初始化分布式锁失败，重试", elog.FieldErr(err))
			if !Sleep(ctx, l.interval) {
				return
			}
			continue
		}

		lockCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
		// 没有拿到锁，不管是系统错误，还是锁被人持有，都等一会再试
		err = lock.Lock(lockCtx)
		cancel()
		if err != nil {
			l.logger.Debug("没有抢到分布式锁", elog.FieldErr(err))
			if !Sleep(ctx, l.interval) {
				return
			}
			continue
		}

		err = l.bizLoop(ctx, lock)
		if err != nil && ctx.Err() == nil {
			l.logger.Error("任务中断，将重新抢锁", elog.FieldErr(err))
		}
		// ctx 可能已经被取消了，释放锁不能再用它
		unCtx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		//nolint:contextcheck // 原始 ctx 可能已被取消，但仍需尝试解锁
		unErr := lock.Unlock(unCtx)
		cancel()
		if unErr != nil {
			l.logger.Error("释放分布式锁失败", elog.FieldErr(unErr))
		}
		if ctx.Err() != nil {
			l.logger.Info("任务被取消，退出任务循环")
			return
		}
		if !Sleep(ctx, l.interval) {
			return
		}
	}
}

func (l *InfiniteLoop) bizLoop(ctx context.Context, lock dlock.Lock) error {
	for {
		if err := l.biz(ctx); err != nil {
			l.logger.Error("业务执行失败", elog.FieldErr(err))
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		refCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
		err := lock.Refresh(refCtx)
		cancel()
		if err != nil {
			return errors.Wrap(err, "分布式锁续约失败")
		}
	}
}

// Sleep 等待 d，ctx 先被取消时返回 false
func Sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
