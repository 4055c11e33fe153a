package blob

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gitee.com/flycash/workshop-notification/internal/domain"
	"gitee.com/flycash/workshop-notification/internal/errs"
	"github.com/gofrs/uuid"
)

// DefaultTTL 临时文件默认保留时间
const DefaultTTL = 24 * time.Hour

// Store 临时文件存储，用来给只能发链接的渠道提供附件下载
//
//go:generate mockgen -source=./blob.go -destination=./mocks/blob.mock.go -package=blobmocks Store
type Store interface {
	// Store 保存内容并返回一个不可猜测的 token
	Store(ctx context.Context, data []byte, filename, contentType string) (string, error)
	// Retrieve 过期或者不存在返回 errs.ErrBlobNotFound
	Retrieve(ctx context.Context, token string) (domain.Blob, error)
}

// FileURL 公开下载地址
func FileURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/files/" + token
}

// newToken uuid v4，122 位随机数
func newToken() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("生成文件 token 失败: %w", err)
	}
	return id.String(), nil
}

func validate(data []byte, filename string) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: 文件内容为空", errs.ErrInvalidParameter)
	}
	if filename == "" {
		return fmt.Errorf("%w: 文件名为空", errs.ErrInvalidParameter)
	}
	return nil
}

func defaultContentType(contentType string) string {
	if contentType == "" {
		return "application/octet-stream"
	}
	return contentType
}
