package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-gin-blog/internal/domain"
	"go-gin-blog/internal/feature/post"
	"go-gin-blog/internal/transport/http/ez"
	mdw "go-gin-blog/internal/transport/http/middleware"
	resp "go-gin-blog/internal/transport/http/response"
)

// PostHandler /posts
type PostHandler struct {
	Posts domain.PostRepository
}

func NewPostHandler(posts domain.PostRepository) *PostHandler { return &PostHandler{Posts: posts} }

func (h *PostHandler) Priority() int { return 30 }

type commentIn struct {
	Content string `json:"content"`
}

func (h *PostHandler) MountAPI(e ez.EZ) {
	g := e.Group("/posts")

	ez.RegisterAction(g, ez.Action[struct{}]{
		Method:  http.MethodGet,
		Path:    "",
		Binder:  ez.BindNone,
		Handler: h.list,
	})

	// 单篇读取：浏览数 +1 后再取详情
	ez.RegisterAction(g, ez.Action[struct{}]{
		Method: http.MethodGet,
		Path:   "/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id, err := ez.PathID(c, "id")
			if err != nil {
				return nil, err
			}
			ctx := c.Request.Context()
			if err := h.Posts.IncrementViews(ctx, id); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return nil, ez.NotFound(resp.MsgPostNotFound)
				}
				return nil, err
			}
			return h.detail(c, id)
		},
	})

	ez.RegisterAction(g, ez.Action[domain.PostInput]{
		Method: http.MethodPost,
		Path:   "",
		Binder: ez.BindJSON,
		Auth:   true,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *domain.PostInput) (gin.H, error) {
			// 作者只取当前用户，请求体里的 author 被忽略
			p := in.ToPost(mdw.CurrentUser(c).ID)
			if err := h.Posts.Create(c.Request.Context(), p); err != nil {
				return nil, err
			}
			return h.detail(c, p.ID)
		},
	})

	ez.RegisterAction(g, ez.Action[domain.PostPatch]{
		Method: http.MethodPut,
		Path:   "/:id",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *domain.PostPatch) (gin.H, error) {
			p, err := h.owned(c, resp.MsgCannotUpdatePost)
			if err != nil {
				return nil, err
			}
			in.Apply(p)
			if err := h.Posts.Update(c.Request.Context(), p); err != nil {
				return nil, err
			}
			return h.detail(c, p.ID)
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}]{
		Method: http.MethodDelete,
		Path:   "/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			p, err := h.owned(c, resp.MsgCannotDeletePost)
			if err != nil {
				return nil, err
			}
			if err := h.Posts.Delete(c.Request.Context(), p.ID); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return nil, ez.NotFound(resp.MsgPostNotFound)
				}
				return nil, err
			}
			return gin.H{"data": gin.H{}}, nil
		},
	})

	// 点赞是切换：已赞则取消
	ez.RegisterAction(g, ez.Action[struct{}]{
		Method: http.MethodPut,
		Path:   "/:id/like",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			p, err := h.find(c)
			if err != nil {
				return nil, err
			}
			if _, err := h.Posts.ToggleLike(c.Request.Context(), p.ID, mdw.CurrentUser(c).ID); err != nil {
				return nil, err
			}
			return h.detail(c, p.ID)
		},
	})

	ez.RegisterAction(g, ez.Action[commentIn]{
		Method: http.MethodPost,
		Path:   "/:id/comments",
		Binder: ez.BindJSON,
		Auth:   true,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *commentIn) (gin.H, error) {
			p, err := h.find(c)
			if err != nil {
				return nil, err
			}
			cm := &domain.PostComment{PostID: p.ID, UserID: mdw.CurrentUser(c).ID, Content: in.Content}
			if err := h.Posts.AddComment(c.Request.Context(), cm); err != nil {
				return nil, err
			}
			return h.detail(c, p.ID)
		},
	})
}

func (h *PostHandler) list(c *gin.Context, _ *struct{}) (gin.H, error) {
	q, err := post.ParseQuery(c.Request.URL.Query())
	if err != nil {
		return nil, err
	}
	return listPosts(c, h.Posts, q)
}

// listPosts 公共列表与管理端列表共用
func listPosts(c *gin.Context, posts domain.PostRepository, q post.Query) (gin.H, error) {
	items, total, err := posts.List(c.Request.Context(), q.Filter)
	if err != nil {
		return nil, err
	}
	data, err := project(items, q.Fields)
	if err != nil {
		return nil, ez.Internal("encode posts failed", err)
	}
	return gin.H{
		"count":      len(items),
		"total":      total,
		"pagination": q.Pagination(total),
		"data":       data,
	}, nil
}

// project 按 fields 裁剪每一项；没有 fields 时原样返回
func project(items []domain.Post, fields []string) (any, error) {
	if len(fields) == 0 {
		return items, nil
	}
	out := make([]map[string]any, 0, len(items))
	for i := range items {
		b, err := json.Marshal(&items[i])
		if err != nil {
			return nil, err
		}
		var m map[string]any
		if err := json.Unmarshal(b, &m); err != nil {
			return nil, err
		}
		out = append(out, post.Project(m, fields))
	}
	return out, nil
}

func (h *PostHandler) find(c *gin.Context) (*domain.Post, error) {
	id, err := ez.PathID(c, "id")
	if err != nil {
		return nil, err
	}
	p, err := h.Posts.FindByID(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ez.NotFound(resp.MsgPostNotFound)
	}
	return p, nil
}

// owned 先判断存在（404）再判断归属（403）
func (h *PostHandler) owned(c *gin.Context, denyMsg string) (*domain.Post, error) {
	p, err := h.find(c)
	if err != nil {
		return nil, err
	}
	if !p.CanModify(mdw.CurrentUser(c)) {
		return nil, ez.Forbidden(denyMsg)
	}
	return p, nil
}

func (h *PostHandler) detail(c *gin.Context, id string) (gin.H, error) {
	p, err := h.Posts.FindDetail(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ez.NotFound(resp.MsgPostNotFound)
	}
	return gin.H{"data": p}, nil
}
