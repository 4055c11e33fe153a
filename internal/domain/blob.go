package domain

import "time"

// Blob 临时文件
type Blob struct {
	Token       string
	Filename    string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Expired 到期时刻本身就算过期
func (b Blob) Expired(now time.Time) bool {
	return !now.Before(b.ExpiresAt)
}
