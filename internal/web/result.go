package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Result 所有接口统一的返回格式
type Result struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

const (
	codeOK              = 0
	codeBadRequest      = 4
	codeNotFound        = 4004
	codeTooManyRequests = 4029
	codeSystemError     = 5
)

func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Result{Code: codeOK, Msg: "OK", Data: data})
}

func fail(c *gin.Context, status, code int, msg string) {
	c.JSON(status, Result{Code: code, Msg: msg})
}
