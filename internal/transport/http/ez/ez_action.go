package ez

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"go-gin-blog/internal/domain"
	mdw "go-gin-blog/internal/transport/http/middleware"
	resp "go-gin-blog/internal/transport/http/response"
	"go-gin-blog/pkg/utils"
)

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定（空 body 视为 {}）
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param / c.Query 取
)

// AErr 统一错误对象：Code 为 HTTP 状态码
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error   { return e.Err }
func (e *AErr) StatusCode() int { return e.Code }

func BadRequest(msg string) error   { return &AErr{Code: http.StatusBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: http.StatusUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &AErr{Code: http.StatusForbidden, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Code: http.StatusNotFound, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: http.StatusInternalServerError, Msg: msg, Err: err}
}

// EZ 路由分组 + 可选的鉴权中间件
type EZ struct {
	g    *gin.RouterGroup
	auth gin.HandlerFunc
}

func New(g *gin.RouterGroup) EZ { return EZ{g: g} }

// WithAuth 设置 Auth/Roles 动作使用的鉴权中间件
func (e EZ) WithAuth(h gin.HandlerFunc) EZ {
	e.auth = h
	return e
}

// Group 子路径，继承鉴权中间件
func (e EZ) Group(path string) EZ {
	return EZ{g: e.g.Group(path), auth: e.auth}
}

// 动作定义：I 入参；Handler 返回的 gin.H 会并入 {success:true}
type Action[I any] struct {
	Method  string   // "GET" | "POST" | "PUT" | "DELETE"
	Path    string   // 例："/auth/login"、"/posts/:id/like"
	Binder  Binder   // 绑定方式
	Auth    bool     // 是否要求登录
	Roles   []string // 限定角色（隐含 Auth）
	Status  int      // 成功状态码，默认 200
	Handler func(c *gin.Context, in *I) (gin.H, error)
}

// RegisterAction 在当前 EZ 下注册动作接口。
// 需要鉴权但 EZ 没有鉴权中间件时直接 panic：角色检查依赖已解析的用户，必须在组装时保证。
func RegisterAction[I any](e EZ, a Action[I]) {
	var chain []gin.HandlerFunc
	if a.Auth || len(a.Roles) > 0 {
		if e.auth == nil {
			panic("ez: action " + a.Method + " " + a.Path + " requires auth but no authenticator is configured")
		}
		chain = append(chain, e.auth)
		if len(a.Roles) > 0 {
			chain = append(chain, mdw.RequireRoles(a.Roles...))
		}
	}

	status := a.Status
	if status == 0 {
		status = http.StatusOK
	}

	h := func(c *gin.Context) {
		// 1) 绑定入参
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
			if errors.Is(bindErr, io.EOF) {
				bindErr = nil
			}
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		default: // BindNone: 不绑定
		}
		if bindErr != nil {
			Abort(c, bindErr)
			return
		}

		// 2) 执行
		out, err := a.Handler(c, &in)
		if err != nil {
			Abort(c, err)
			return
		}
		resp.OK(c, status, out)
	}
	chain = append(chain, h)

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, chain...)
	case http.MethodPut:
		e.g.PUT(a.Path, chain...)
	case http.MethodPatch:
		e.g.PATCH(a.Path, chain...)
	case http.MethodDelete:
		e.g.DELETE(a.Path, chain...)
	default: // 默认 POST
		e.g.POST(a.Path, chain...)
	}
}

// Abort 统一错误映射：
// AErr 按 Code；5xx 交给 ErrorResponder（记录日志，返回通用文案）；
// 超出 body 限制 413；请求截止时间已过 504；其余错误（校验、唯一冲突、存储错误）400 + 错误文本。
func Abort(c *gin.Context, err error) {
	var ae *AErr
	if errors.As(err, &ae) {
		if ae.Code >= http.StatusInternalServerError {
			_ = c.Error(err)
			c.Abort()
			return
		}
		resp.Fail(c, ae.Code, ae.Error())
		return
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		resp.Fail(c, http.StatusRequestEntityTooLarge, resp.MsgBodyTooLarge)
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		resp.Fail(c, http.StatusGatewayTimeout, resp.MsgTimeout)
		return
	}
	if errors.Is(err, domain.ErrNotFound) {
		resp.Fail(c, http.StatusNotFound, "")
		return
	}
	resp.Fail(c, http.StatusBadRequest, err.Error())
}

// PathID 取路径参数并校验格式
func PathID(c *gin.Context, name string) (string, error) {
	id := c.Param(name)
	if !utils.ValidID(id) {
		return "", BadRequest(resp.InvalidID(id))
	}
	return id, nil
}
