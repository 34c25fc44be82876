package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-gin-blog/internal/core/server"
	"go-gin-blog/internal/transport/http/ez"
	"go-gin-blog/internal/transport/http/handler"
	mdw "go-gin-blog/internal/transport/http/middleware"
	resp "go-gin-blog/internal/transport/http/response"
)

// NewAdminEngine 管理端，默认只监听本机
func NewAdminEngine(d Deps) *gin.Engine {
	r := server.NewRouter()
	m := d.metrics("blog_admin")
	r.Use(baseMiddleware(d, m)...)

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		resp.OK(c, http.StatusOK, gin.H{"message": resp.MsgHealthy})
	})

	// 管理端 v1（每个动作声明 admin 角色）
	admin := r.Group("/admin/v1")
	var reg Registry
	reg.Register(handler.NewAdminHandler(d.Users, d.Posts))
	reg.MountAllAdmin(ez.New(admin).WithAuth(mdw.Authenticate(d.Tokens, d.Users)))

	if m != nil {
		r.GET(d.Config.Metrics.Path, m.Handler())
	}

	r.NoRoute(notFound)
	return r
}
