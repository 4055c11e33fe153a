package idempotent

import "context"

// IdempotencyService 记录已经处理过的 key。检查和标记分开，处理失败的 key 不会被标记
type IdempotencyService interface {
	Exists(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}
