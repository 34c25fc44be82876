package response

import "github.com/gin-gonic/gin"

// Failure 失败响应体
type Failure struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Error 失败响应（msg 为空时用状态码默认文案）
func Error(code int, msg string) Failure {
	if msg == "" {
		msg = CodeMsgMap[code]
	}
	return Failure{Success: false, Message: msg}
}

// Success 成功响应：{success:true, ...payload}
func Success(payload gin.H) gin.H {
	out := make(gin.H, len(payload)+1)
	for k, v := range payload {
		out[k] = v
	}
	out["success"] = true
	return out
}

func OK(c *gin.Context, status int, payload gin.H) {
	c.JSON(status, Success(payload))
}

// Fail 写失败响应并终止后续 handler
func Fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Error(status, msg))
}
