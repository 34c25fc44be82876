package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-gin-blog/internal/domain"
	"go-gin-blog/internal/feature/post"
	"go-gin-blog/internal/transport/http/ez"
	resp "go-gin-blog/internal/transport/http/response"
)

// AdminHandler /admin/v1，全部要求 admin 角色
type AdminHandler struct {
	Users domain.UserRepository
	Posts domain.PostRepository
}

func NewAdminHandler(users domain.UserRepository, posts domain.PostRepository) *AdminHandler {
	return &AdminHandler{Users: users, Posts: posts}
}

var adminOnly = []string{domain.RoleAdmin}

func (h *AdminHandler) MountAdmin(e ez.EZ) {
	// --- 用户列表 ---
	type listQ struct {
		Offset int    `form:"offset,default=0"`
		Limit  int    `form:"limit,default=20"`
		Q      string `form:"q"` // 按 email/name 模糊搜
	}
	ez.RegisterAction(e, ez.Action[listQ]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: ez.BindQuery,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, in *listQ) (gin.H, error) {
			if in.Limit <= 0 || in.Limit > 100 {
				in.Limit = 20
			}
			if in.Offset < 0 {
				in.Offset = 0
			}
			users, total, err := h.Users.List(c.Request.Context(), in.Offset, in.Limit, in.Q)
			if err != nil {
				return nil, ez.Internal("list users failed", err)
			}
			return gin.H{"count": len(users), "total": total, "data": users}, nil
		},
	})

	// --- 修改角色 ---
	type roleIn struct {
		Role string `json:"role"`
	}
	ez.RegisterAction(e, ez.Action[roleIn]{
		Method: http.MethodPut,
		Path:   "/users/:id/role",
		Binder: ez.BindJSON,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, in *roleIn) (gin.H, error) {
			id, err := ez.PathID(c, "id")
			if err != nil {
				return nil, err
			}
			u, err := h.Users.Update(c.Request.Context(), id, domain.UserPatch{Role: &in.Role})
			if errors.Is(err, domain.ErrNotFound) {
				return nil, ez.NotFound(resp.MsgUserNotFound)
			}
			if err != nil {
				return nil, err
			}
			return gin.H{"user": u}, nil
		},
	})

	// --- 文章列表（任意状态，过滤参数同公开列表）---
	ez.RegisterAction(e, ez.Action[struct{}]{
		Method: http.MethodGet,
		Path:   "/posts",
		Binder: ez.BindNone,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			q, err := post.ParseQuery(c.Request.URL.Query())
			if err != nil {
				return nil, err
			}
			return listPosts(c, h.Posts, q)
		},
	})
}
