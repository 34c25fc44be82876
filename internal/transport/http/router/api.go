package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"go-gin-blog/internal/core/auth"
	"go-gin-blog/internal/core/config"
	"go-gin-blog/internal/core/server"
	"go-gin-blog/internal/domain"
	"go-gin-blog/internal/transport/http/ez"
	"go-gin-blog/internal/transport/http/handler"
	mdw "go-gin-blog/internal/transport/http/middleware"
	resp "go-gin-blog/internal/transport/http/response"
)

// Deps engine 依赖；存储句柄在 main 里创建并注入
type Deps struct {
	Log     *zap.Logger
	Config  *config.Config
	Users   domain.UserRepository
	Posts   domain.PostRepository
	Tokens  *auth.TokenService
	Metrics *prometheus.Registry // nil 时不采集
}

func (d Deps) metrics(namespace string) *mdw.HTTPMetrics {
	if d.Metrics == nil || !d.Config.Metrics.Enabled {
		return nil
	}
	return mdw.NewHTTPMetrics(d.Metrics, namespace)
}

// 公共中间件，顺序有意义：rid 最先，ErrorResponder 最靠近 handler
func baseMiddleware(d Deps, m *mdw.HTTPMetrics) []gin.HandlerFunc {
	h := d.Config.App.HTTP
	chain := []gin.HandlerFunc{
		mdw.RequestID(),
		mdw.Recovery(d.Log),
		mdw.AccessLog(d.Log),
	}
	if m != nil {
		chain = append(chain, m.Middleware())
	}
	maxBody := int64(h.MaxBodyMB) << 20
	if maxBody <= 0 {
		maxBody = 10 << 20
	}
	chain = append(chain,
		mdw.RateLimitPerIP(rate.Limit(h.RateLimitRPS), h.RateLimitBurst),
		mdw.ConcurrencyLimit(h.MaxConcurrent),
		mdw.MaxBodyBytes(maxBody),
		mdw.Timeout(time.Duration(h.RequestTimeoutSec)*time.Second),
		server.CORS(h.CORSOrigins),
		mdw.ErrorResponder(d.Log),
	)
	return chain
}

func notFound(c *gin.Context) {
	resp.Fail(c, http.StatusNotFound, resp.RouteNotFound(c.Request.RequestURI))
}

func NewAPIEngine(d Deps) *gin.Engine {
	r := server.NewRouter()
	m := d.metrics("blog")
	r.Use(baseMiddleware(d, m)...)

	// 前缀
	api := r.Group("/api/v1")

	// 健康检查
	api.GET("/health", func(c *gin.Context) {
		resp.OK(c, http.StatusOK, gin.H{"message": resp.MsgHealthy})
	})

	// 文档加载失败只记日志，不影响启动
	if d.Config.Docs.Enabled {
		doc, err := LoadOpenAPI(d.Config.Docs.Path)
		if err != nil {
			d.Log.Warn("api docs disabled", zap.String("path", d.Config.Docs.Path), zap.Error(err))
		} else {
			mountDocs(api, doc)
		}
	}

	var reg Registry
	reg.Register(
		handler.NewAuthHandler(d.Users, d.Tokens),
		handler.NewUserHandler(d.Users),
		handler.NewPostHandler(d.Posts),
	)
	reg.MountAllAPI(ez.New(api).WithAuth(mdw.Authenticate(d.Tokens, d.Users)))

	if m != nil {
		r.GET(d.Config.Metrics.Path, m.Handler())
	}

	r.NoRoute(notFound)
	return r
}
