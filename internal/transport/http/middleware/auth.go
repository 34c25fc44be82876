package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"go-gin-blog/internal/core/auth"
	"go-gin-blog/internal/domain"
	resp "go-gin-blog/internal/transport/http/response"
)

const ctxUserKey = "currentUser"

// Authenticate 校验 Bearer token，并从库里重新加载用户（角色以库为准）
func Authenticate(tokens *auth.TokenService, users domain.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") || strings.TrimSpace(ah[len("Bearer "):]) == "" {
			resp.Fail(c, http.StatusUnauthorized, resp.MsgNoToken)
			return
		}
		uid, err := tokens.Verify(strings.TrimSpace(ah[len("Bearer "):]))
		if err != nil {
			resp.Fail(c, http.StatusUnauthorized, resp.MsgInvalidToken)
			return
		}
		u, err := users.FindByID(c.Request.Context(), uid)
		if err != nil {
			_ = c.Error(err)
			resp.Fail(c, http.StatusUnauthorized, resp.MsgInvalidToken)
			return
		}
		if u == nil {
			resp.Fail(c, http.StatusUnauthorized, resp.MsgUserNotFound)
			return
		}
		c.Set(ctxUserKey, u)
		c.Set(CtxUserID, u.ID)
		c.Next()
	}
}

// RequireRoles 必须挂在 Authenticate 之后
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil {
			resp.Fail(c, http.StatusForbidden, resp.MsgForbiddenRole)
			return
		}
		if _, ok := allowed[u.Role]; !ok {
			resp.Fail(c, http.StatusForbidden, resp.MsgForbiddenRole)
			return
		}
		c.Next()
	}
}

// CurrentUser 当前登录用户；未经过 Authenticate 时为 nil
func CurrentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*domain.User)
	return u
}
