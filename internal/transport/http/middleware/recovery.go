package middleware

import (
	"errors"
	"net/http"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	resp "go-gin-blog/internal/transport/http/response"
)

// Recovery panic 记录堆栈，客户端只拿到通用文案
func Recovery(l *zap.Logger) gin.HandlerFunc {
	return ginzap.CustomRecoveryWithZap(l, true, func(c *gin.Context, _ any) {
		resp.Fail(c, http.StatusInternalServerError, resp.MsgInternal)
	})
}

// StatusCoder 带 HTTP 状态码的错误
type StatusCoder interface{ StatusCode() int }

// ErrorResponder 集中处理 c.Errors：handler 没有写响应时按错误的状态码（默认 500）输出
func ErrorResponder(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status := http.StatusInternalServerError
		var sc StatusCoder
		if errors.As(err, &sc) && sc.StatusCode() > 0 {
			status = sc.StatusCode()
		}
		msg := resp.MsgInternal
		if status < http.StatusInternalServerError {
			msg = err.Error()
		} else {
			l.Error("request failed",
				zap.String("rid", c.GetString(CtxRequestID)),
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
		}
		c.AbortWithStatusJSON(status, resp.Error(status, msg))
	}
}
