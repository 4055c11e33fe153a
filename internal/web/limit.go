package web

import (
	"net/http"

	"gitee.com/flycash/workshop-notification/internal/pkg/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/gotomicro/ego/core/elog"
)

// LimitByClientIP 按来源 IP 限流。限流器出错时放行，回调丢了比多处理几次更糟
func LimitByClientIP(prefix string, limiter ratelimit.Limiter) gin.HandlerFunc {
	logger := elog.DefaultLogger
	return func(ctx *gin.Context) {
		key := prefix + ":" + ctx.ClientIP()
		limited, err := limiter.Limit(ctx.Request.Context(), key)
		if err != nil {
			logger.Warn("限流器异常，直接放行", elog.FieldErr(err), elog.String("key", key))
			ctx.Next()
			return
		}
		if limited {
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, Result{Code: codeTooManyRequests, Msg: "请求过于频繁"})
			return
		}
		ctx.Next()
	}
}
