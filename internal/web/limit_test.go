package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeLimiter struct {
	limited bool
	err     error
	keys    []string
}

func (f *fakeLimiter) Limit(_ context.Context, key string) (bool, error) {
	f.keys = append(f.keys, key)
	return f.limited, f.err
}

func TestLimitByClientIP(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name       string
		limiter    *fakeLimiter
		wantCode   int
		wantCalled bool
	}{
		{name: "放行", limiter: &fakeLimiter{}, wantCode: http.StatusOK, wantCalled: true},
		{name: "限流", limiter: &fakeLimiter{limited: true}, wantCode: http.StatusTooManyRequests},
		{name: "限流器出错放行", limiter: &fakeLimiter{err: errors.New("redis down")}, wantCode: http.StatusOK, wantCalled: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			called := false
			server := gin.New()
			server.GET("/ping", LimitByClientIP("webhook", tc.limiter), func(c *gin.Context) {
				called = true
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			req.RemoteAddr = "10.0.0.1:5555"
			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, req)

			assert.Equal(t, tc.wantCode, recorder.Code)
			assert.Equal(t, tc.wantCalled, called)
			assert.Equal(t, []string{"webhook:10.0.0.1"}, tc.limiter.keys)
		})
	}
}
