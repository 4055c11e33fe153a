package blob

import (
	"context"
	"fmt"
	"time"

	"gitee.com/flycash/workshop-notification/internal/domain"
	"gitee.com/flycash/workshop-notification/internal/errs"
	"github.com/ecodeclub/ekit/syncx"
	"github.com/gotomicro/ego/core/elog"
)

// MemoryStore 单实例用的内存存储。读取时发现过期就删除，Start 会定期清理
type MemoryStore struct {
	blobs  syncx.Map[string, domain.Blob]
	ttl    time.Duration
	now    func() time.Time
	logger *elog.Component
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		ttl:    ttl,
		now:    time.Now,
		logger: elog.DefaultLogger,
	}
}

func (s *MemoryStore) Store(_ context.Context, data []byte, filename, contentType string) (string, error) {
	if err := validate(data, filename); err != nil {
		return "", err
	}
	token, err := newToken()
	if err != nil {
		return "", err
	}
	now := s.now()
	s.blobs.Store(token, domain.Blob{
		Token:       token,
		Filename:    filename,
		ContentType: defaultContentType(contentType),
		// 调用方之后修改切片不影响已经保存的内容
		Data:      append([]byte(nil), data...),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	})
	return token, nil
}

func (s *MemoryStore) Retrieve(_ context.Context, token string) (domain.Blob, error) {
	b, ok := s.blobs.Load(token)
	if !ok {
		return domain.Blob{}, fmt.Errorf("%w: %s", errs.ErrBlobNotFound, token)
	}
	if b.Expired(s.now()) {
		s.blobs.Delete(token)
		return domain.Blob{}, fmt.Errorf("%w: %s", errs.ErrBlobNotFound, token)
	}
	return b, nil
}

// Sweep 删除所有过期的文件，返回删除的数量
func (s *MemoryStore) Sweep() int {
	now := s.now()
	var expired []string
	s.blobs.Range(func(token string, b domain.Blob) bool {
		if b.Expired(now) {
			expired = append(expired, token)
		}
		return true
	})
	for _, token := range expired {
		s.blobs.Delete(token)
	}
	return len(expired)
}

// Start 后台定期清理，ctx 结束后退出
func (s *MemoryStore) Start(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.Sweep(); n > 0 {
					s.logger.Debug("清理过期临时文件", elog.Int("count", n))
				}
			}
		}
	}()
}
