package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-gin-blog/internal/core/auth"
	"go-gin-blog/internal/domain"
	resp "go-gin-blog/internal/transport/http/response"
	"go-gin-blog/pkg/utils"
)

func init() { gin.SetMode(gin.TestMode) }

// 只实现 FindByID，其它方法被调用会直接 panic
type mockUsers struct {
	mock.Mock
	domain.UserRepository
}

func (m *mockUsers) FindByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) resp.Failure {
	t.Helper()
	var f resp.Failure
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &f))
	return f
}

func protectedEngine(tokens *auth.TokenService, users domain.UserRepository, roles ...string) *gin.Engine {
	r := gin.New()
	chain := []gin.HandlerFunc{Authenticate(tokens, users)}
	if len(roles) > 0 {
		chain = append(chain, RequireRoles(roles...))
	}
	chain = append(chain, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "id": CurrentUser(c).ID})
	})
	r.GET("/p", chain...)
	return r
}

func TestAuthenticate_MissingToken(t *testing.T) {
	users := &mockUsers{}
	r := protectedEngine(auth.NewTokenService("s", "", 0), users)

	for _, h := range []string{"", "Basic abc", "Bearer", "Bearer   ", "bearer abc"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/p", nil)
		if h != "" {
			req.Header.Set("Authorization", h)
		}
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", h)
		assert.Equal(t, resp.MsgNoToken, decode(t, w).Message, "header %q", h)
	}
	users.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	users := &mockUsers{}
	r := protectedEngine(auth.NewTokenService("s", "", 0), users)

	other, err := auth.NewTokenService("other", "", 0).Issue(utils.NewID())
	require.NoError(t, err)

	for _, tok := range []string{other, "garbage", "a.b.c"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/p", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, resp.MsgInvalidToken, decode(t, w).Message)
	}
	users.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestAuthenticate_UserGone(t *testing.T) {
	tokens := auth.NewTokenService("s", "", 0)
	id := utils.NewID()
	tok, err := tokens.Issue(id)
	require.NoError(t, err)

	users := &mockUsers{}
	users.On("FindByID", mock.Anything, id).Return(nil, nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	protectedEngine(tokens, users).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, resp.MsgUserNotFound, decode(t, w).Message)
	users.AssertExpectations(t)
}

func TestAuthenticate_StoreError(t *testing.T) {
	tokens := auth.NewTokenService("s", "", 0)
	id := utils.NewID()
	tok, _ := tokens.Issue(id)

	users := &mockUsers{}
	users.On("FindByID", mock.Anything, id).Return(nil, errors.New("db down"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	protectedEngine(tokens, users).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, resp.MsgInvalidToken, decode(t, w).Message)
}

func TestAuthenticate_OKAndRoles(t *testing.T) {
	tokens := auth.NewTokenService("s", "", 0)
	u := &domain.User{ID: utils.NewID(), Name: "Ana", Role: domain.RoleUser}
	tok, _ := tokens.Issue(u.ID)

	users := &mockUsers{}
	users.On("FindByID", mock.Anything, u.ID).Return(u, nil)

	do := func(r *gin.Engine) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/p", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		r.ServeHTTP(w, req)
		return w
	}

	w := do(protectedEngine(tokens, users))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), u.ID)

	w = do(protectedEngine(tokens, users, domain.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, resp.MsgForbiddenRole, decode(t, w).Message)

	// 角色以库为准：改成 admin 后同一个 token 立即生效
	u.Role = domain.RoleAdmin
	w = do(protectedEngine(tokens, users, domain.RoleAdmin))
	assert.Equal(t, http.StatusOK, w.Code)
}

type codedErr struct{ code int }

func (e codedErr) Error() string   { return "coded" }
func (e codedErr) StatusCode() int { return e.code }

func TestErrorResponder(t *testing.T) {
	r := gin.New()
	r.Use(ErrorResponder(zap.NewNop()))
	r.GET("/boom", func(c *gin.Context) { _ = c.Error(errors.New("secret detail")) })
	r.GET("/coded", func(c *gin.Context) { _ = c.Error(codedErr{code: http.StatusConflict}) })
	r.GET("/written", func(c *gin.Context) {
		_ = c.Error(errors.New("ignored"))
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, resp.MsgInternal, decode(t, w).Message)
	assert.NotContains(t, w.Body.String(), "secret detail")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/coded", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "coded", decode(t, w).Message)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/written", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zap.NewNop()))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, resp.MsgInternal, decode(t, w).Message)
}

func TestRateLimitPerIP(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitPerIP(0.001, 2))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	get := func(ip string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		r.ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusOK, get("10.0.0.1"))
	assert.Equal(t, http.StatusOK, get("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, get("10.0.0.1"))
	// 其它 IP 不受影响
	assert.Equal(t, http.StatusOK, get("10.0.0.2"))
}

func TestMaxBodyBytes(t *testing.T) {
	r := gin.New()
	r.Use(MaxBodyBytes(8))
	r.POST("/", func(c *gin.Context) {
		var in map[string]any
		err := c.ShouldBindJSON(&in)
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":"0123456789"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(10 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) { <-c.Request.Context().Done() })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, resp.MsgTimeout, decode(t, w).Message)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CtxRequestID)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	rid := w.Header().Get(KeyRequestID)
	assert.True(t, utils.ValidID(rid))
	assert.Equal(t, rid, w.Body.String())

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(KeyRequestID, "abc")
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(KeyRequestID))
}

func TestMetrics(t *testing.T) {
	m := NewHTTPMetrics(prometheus.NewRegistry(), "blog")
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", m.Handler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `blog_http_requests_total{method="GET",path="/ping",status="200"} 1`)
}

func TestMaskQuery(t *testing.T) {
	out := maskQuery(map[string][]string{"Password": {"x"}, "page": {"2"}})
	assert.Equal(t, []string{"****"}, out["Password"])
	assert.Equal(t, []string{"2"}, out["page"])
}
