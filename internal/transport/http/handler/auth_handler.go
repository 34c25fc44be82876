package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"go-gin-blog/internal/core/auth"
	"go-gin-blog/internal/domain"
	"go-gin-blog/internal/transport/http/ez"
	mdw "go-gin-blog/internal/transport/http/middleware"
	resp "go-gin-blog/internal/transport/http/response"
)

// AuthHandler /auth：注册、登录、当前用户
type AuthHandler struct {
	Users  domain.UserRepository
	Tokens *auth.TokenService
}

func NewAuthHandler(users domain.UserRepository, tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{Users: users, Tokens: tokens}
}

func (h *AuthHandler) Priority() int { return 10 }

// 注册/创建用户共用
type userIn struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Avatar   string `json:"avatar"`
	Bio      string `json:"bio"`
	Role     string `json:"role"`
}

func (in userIn) user() *domain.User {
	return &domain.User{Name: in.Name, Email: in.Email, Avatar: in.Avatar, Bio: in.Bio, Role: in.Role}
}

type loginIn struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) MountAPI(e ez.EZ) {
	g := e.Group("/auth")

	ez.RegisterAction(g, ez.Action[userIn]{
		Method: http.MethodPost,
		Path:   "/register",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *userIn) (gin.H, error) {
			u := in.user()
			if err := h.Users.Create(c.Request.Context(), u, in.Password); err != nil {
				return nil, err
			}
			return h.sendToken(u)
		},
	})

	ez.RegisterAction(g, ez.Action[loginIn]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *loginIn) (gin.H, error) {
			// 先校验入参，不碰数据库
			if strings.TrimSpace(in.Email) == "" || in.Password == "" {
				return nil, ez.BadRequest(resp.MsgLoginRequired)
			}
			u, err := h.Users.FindByEmail(c.Request.Context(), in.Email)
			if err != nil {
				return nil, err
			}
			if u == nil || !h.Users.CheckPassword(u, in.Password) {
				return nil, ez.Unauthorized(resp.MsgBadCredentials)
			}
			return h.sendToken(u)
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			return gin.H{"data": gin.H{"user": mdw.CurrentUser(c)}}, nil
		},
	})
}

func (h *AuthHandler) sendToken(u *domain.User) (gin.H, error) {
	tok, err := h.Tokens.Issue(u.ID)
	if err != nil {
		return nil, ez.Internal("issue token failed", err)
	}
	return gin.H{"token": tok, "data": gin.H{"user": u}}, nil
}
