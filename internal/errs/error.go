package errs

import (
	"errors"
)

// 定义统一的错误类型
var (
	ErrInvalidParameter = errors.New("参数错误")

	// 编排层错误，直接返回给调用方，不会写投递记录
	ErrConfigNotFound   = errors.New("租户通知配置不存在")
	ErrNoChannelEnabled = errors.New("没有启用的通知渠道")

	// 重发错误
	ErrNotRetryable       = errors.New("投递记录当前状态不允许重发")
	ErrRetryLimitExceeded = errors.New("已达到最大重发次数")

	// 内置模板兜底保证了它不应该出现
	ErrTemplateUnavailable = errors.New("没有可用的模板")

	ErrDeliveryNotFound        = errors.New("投递记录不存在")
	ErrDeliveryDuplicate       = errors.New("投递记录外部ID冲突")
	ErrDeliveryVersionMismatch = errors.New("投递记录版本不匹配")
	ErrNotCancellable          = errors.New("投递记录当前状态不允许取消")

	ErrBlobNotFound = errors.New("临时文件不存在或已过期")
)
