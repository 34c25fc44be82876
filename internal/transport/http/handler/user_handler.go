package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-gin-blog/internal/domain"
	"go-gin-blog/internal/transport/http/ez"
	resp "go-gin-blog/internal/transport/http/response"
)

// UserHandler /users：与原系统一致，这组接口不需要登录
type UserHandler struct {
	Users domain.UserRepository
}

func NewUserHandler(users domain.UserRepository) *UserHandler { return &UserHandler{Users: users} }

func (h *UserHandler) Priority() int { return 20 }

func (h *UserHandler) MountAPI(e ez.EZ) {
	g := e.Group("/users")

	ez.RegisterAction(g, ez.Action[userIn]{
		Method: http.MethodPost,
		Path:   "",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *userIn) (gin.H, error) {
			u := in.user()
			if err := h.Users.Create(c.Request.Context(), u, in.Password); err != nil {
				return nil, err
			}
			return gin.H{"user": u}, nil
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}]{
		Method: http.MethodGet,
		Path:   "/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id, err := ez.PathID(c, "id")
			if err != nil {
				return nil, err
			}
			u, err := h.Users.FindByID(c.Request.Context(), id)
			if err != nil {
				return nil, err
			}
			if u == nil {
				return nil, ez.NotFound(resp.MsgUserNotFound)
			}
			return gin.H{"user": u}, nil
		},
	})

	// 密码字段不在 UserPatch 里，请求体带了也会被丢弃
	ez.RegisterAction(g, ez.Action[domain.UserPatch]{
		Method: http.MethodPut,
		Path:   "/:id",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *domain.UserPatch) (gin.H, error) {
			id, err := ez.PathID(c, "id")
			if err != nil {
				return nil, err
			}
			u, err := h.Users.Update(c.Request.Context(), id, *in)
			if errors.Is(err, domain.ErrNotFound) {
				return nil, ez.NotFound(resp.MsgUserNotFound)
			}
			if err != nil {
				return nil, err
			}
			return gin.H{"user": u}, nil
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}]{
		Method: http.MethodDelete,
		Path:   "/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id, err := ez.PathID(c, "id")
			if err != nil {
				return nil, err
			}
			err = h.Users.Delete(c.Request.Context(), id)
			if errors.Is(err, domain.ErrNotFound) {
				return nil, ez.NotFound(resp.MsgUserNotFound)
			}
			if err != nil {
				return nil, err
			}
			return gin.H{"message": resp.MsgUserDeleted}, nil
		},
	})
}
