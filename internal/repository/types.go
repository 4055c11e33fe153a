package repository

import (
	"time"

	pkgdao "gitee.com/flycash/workshop-notification/internal/pkg/dao"
)

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func pkgJSON(v any) (pkgdao.JSON, error) {
	return pkgdao.NewJSON(v)
}
