package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"go-gin-blog/internal/core/auth"
	"go-gin-blog/internal/core/config"
	"go-gin-blog/internal/core/database"
	"go-gin-blog/internal/domain"
	"go-gin-blog/internal/repo"
	resp "go-gin-blog/internal/transport/http/response"
	"go-gin-blog/pkg/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.HashCost = bcrypt.MinCost
}

type testEnv struct {
	t      *testing.T
	api    *gin.Engine
	admin  *gin.Engine
	users  *repo.UserRepo
	posts  *repo.PostRepo
	tokens *auth.TokenService
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.App{HTTP: config.HTTP{
			MaxBodyMB:         10,
			RequestTimeoutSec: 10,
			CORSOrigins:       []string{"*"},
		}},
		Docs:    config.Docs{Enabled: true, Path: "../../../../docs/openapi.yaml"},
		Metrics: config.Metrics{Enabled: true, Path: "/metrics"},
	}
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(database.Opts{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	d := Deps{
		Log:     zap.NewNop(),
		Config:  testConfig(),
		Users:   repo.NewUserRepo(db),
		Posts:   repo.NewPostRepo(db),
		Tokens:  auth.NewTokenService("test-secret", "", 0),
		Metrics: prometheus.NewRegistry(),
	}
	return &testEnv{
		t:      t,
		api:    NewAPIEngine(d),
		admin:  NewAdminEngine(d),
		users:  d.Users.(*repo.UserRepo),
		posts:  d.Posts.(*repo.PostRepo),
		tokens: d.Tokens,
	}
}

type result struct {
	Code int
	Body map[string]any
	Raw  string
}

func (e *testEnv) call(engine *gin.Engine, method, path, token string, body any) result {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return result{Code: w.Code, Body: out, Raw: w.Body.String()}
}

func (e *testEnv) do(method, path, token string, body any) result {
	e.t.Helper()
	return e.call(e.api, method, path, token, body)
}

// register 返回 token 和用户 id
func (e *testEnv) register(name, email, role string) (string, string) {
	e.t.Helper()
	r := e.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": name, "email": email, "password": "secret123", "role": role,
	})
	require.Equal(e.t, http.StatusCreated, r.Code, r.Raw)
	user := r.Body["data"].(map[string]any)["user"].(map[string]any)
	return r.Body["token"].(string), user["id"].(string)
}

func (e *testEnv) createPost(token, title, status string) map[string]any {
	e.t.Helper()
	r := e.do(http.MethodPost, "/api/v1/posts", token, gin.H{
		"title": title, "content": "conteúdo", "category": "go", "status": status,
	})
	require.Equal(e.t, http.StatusCreated, r.Code, r.Raw)
	return r.Body["data"].(map[string]any)
}

func TestHealthAndNotFound(t *testing.T) {
	e := newEnv(t)

	r := e.do(http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, r.Code)
	assert.Equal(t, map[string]any{"success": true, "message": resp.MsgHealthy}, r.Body)

	r = e.do(http.MethodGet, "/api/v1/nada?x=1", "", nil)
	assert.Equal(t, http.StatusNotFound, r.Code)
	assert.Equal(t, false, r.Body["success"])
	assert.Equal(t, "Rota /api/v1/nada?x=1 não encontrada", r.Body["message"])
}

func TestDocsAndMetrics(t *testing.T) {
	e := newEnv(t)

	r := e.do(http.MethodGet, "/api/v1/openapi.json", "", nil)
	require.Equal(t, http.StatusOK, r.Code)
	assert.Equal(t, "3.0.3", r.Body["openapi"])

	r = e.do(http.MethodGet, "/api/v1/docs/index.html", "", nil)
	assert.Equal(t, http.StatusOK, r.Code)

	r = e.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, r.Code)
	assert.Contains(t, r.Raw, "blog_http_requests_total")
}

func TestDocsLoadFailureDoesNotBlockStartup(t *testing.T) {
	cfg := testConfig()
	cfg.Docs.Path = "does-not-exist.yaml"
	db, err := database.Open(database.Opts{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"}, zap.NewNop())
	require.NoError(t, err)
	defer database.Close(db)

	engine := NewAPIEngine(Deps{
		Log: zap.NewNop(), Config: cfg,
		Users: repo.NewUserRepo(db), Posts: repo.NewPostRepo(db),
		Tokens: auth.NewTokenService("s", "", 0),
	})
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/openapi.json", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegisterLoginMe(t *testing.T) {
	e := newEnv(t)

	token, id := e.register("Ana", "ana@example.com", "")
	r := e.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, r.Code)
	user := r.Body["data"].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, id, user["id"])
	assert.Equal(t, "user", user["role"])
	assert.NotContains(t, r.Raw, "password")

	r = e.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "ANA@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, r.Code)
	assert.NotEmpty(t, r.Body["token"])
	assert.NotContains(t, r.Raw, "password")

	r = e.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "ana@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, r.Code)
	assert.Equal(t, resp.MsgBadCredentials, r.Body["message"])

	r = e.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "nobody@example.com", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, r.Code)
	assert.Equal(t, resp.MsgBadCredentials, r.Body["message"])

	r = e.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "x"})
	assert.Equal(t, http.StatusBadRequest, r.Code)
	assert.Equal(t, resp.MsgLoginRequired, r.Body["message"])

	// 重复邮箱
	r = e.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{"name": "Ana 2", "email": "ana@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusBadRequest, r.Code)
	assert.Equal(t, "Email já está em uso", r.Body["message"])

	r = e.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{"name": "Bia", "email": "bia@example.com", "password": "123"})
	assert.Equal(t, http.StatusBadRequest, r.Code)
	assert.Equal(t, false, r.Body["success"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e := newEnv(t)
	token, _ := e.register("Ana", "ana@example.com", "")
	p := e.createPost(token, "Olá", "draft")
	id := p["id"].(string)

	protected := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/auth/me"},
		{http.MethodPost, "/api/v1/posts"},
		{http.MethodPut, "/api/v1/posts/" + id},
		{http.MethodDelete, "/api/v1/posts/" + id},
		{http.MethodPut, "/api/v1/posts/" + id + "/like"},
		{http.MethodPost, "/api/v1/posts/" + id + "/comments"},
	}
	other, err := auth.NewTokenService("other-secret", "", 0).Issue(utils.NewID())
	require.NoError(t, err)

	for _, pr := range protected {
		r := e.do(pr.method, pr.path, "", gin.H{"title": "x"})
		assert.Equal(t, http.StatusUnauthorized, r.Code, pr.path)
		assert.Equal(t, resp.MsgNoToken, r.Body["message"], pr.path)

		r = e.do(pr.method, pr.path, other, gin.H{"title": "x"})
		assert.Equal(t, http.StatusUnauthorized, r.Code, pr.path)
		assert.Equal(t, resp.MsgInvalidToken, r.Body["message"], pr.path)

		r = e.do(pr.method, pr.path, "not.a.jwt", nil)
		assert.Equal(t, resp.MsgInvalidToken, r.Body["message"], pr.path)
	}

	// 帖子没有被改动
	r := e.do(http.MethodGet, "/api/v1/posts/"+id, "", nil)
	assert.Equal(t, "Olá", r.Body["data"].(map[string]any)["title"])
}

func TestTokenForDeletedUser(t *testing.T) {
	e := newEnv(t)
	token, id := e.register("Ana", "ana@example.com", "")

	r := e.do(http.MethodDelete, "/api/v1/users/"+id, "", nil)
	require.Equal(t, http.StatusOK, r.Code)

	r = e.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, r.Code)
	assert.Equal(t, resp.MsgUserNotFound, r.Body["message"])
}

func TestUsersCRUD(t *testing.T) {
	e := newEnv(t)

	r := e.do(http.MethodPost, "/api/v1/users", "", gin.H{"name": "Caio", "email": "caio@example.com", "password": "secret123", "bio": "oi"})
	require.Equal(t, http.StatusCreated, r.Code, r.Raw)
	assert.NotContains(t, r.Raw, "password")
	id := r.Body["user"].(map[string]any)["id"].(string)

	r = e.do(http.MethodGet, "/api/v1/users/"+id, "", nil)
	require.Equal(t, http.StatusOK, r.Code)
	assert.Equal(t, "oi", r.Body["user"].(map[string]any)["bio"])
	assert.NotContains(t, r.Raw, "password")

	// password no payload é ignorado
	r = e.do(http.MethodPut, "/api/v1/users/"+id, "", gin.H{"name": "Caio S", "password": "hacked!!"})
	require.Equal(t, http.StatusOK, r.Code, r.Raw)
	assert.Equal(t, "Caio S", r.Body["user"].(map[string]any)["name"])
	assert.NotContains(t, r.Raw, "password")

	r = e.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "caio@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusOK, r.Code)
	r = e.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "caio@example.com", "password": "hacked!!"})
	assert.Equal(t, http.StatusUnauthorized, r.Code)

	r = e.do(http.MethodDelete, "/api/v1/users/"+id, "", nil)
	require.Equal(t, http.StatusOK, r.Code)
	assert.Equal(t, resp.MsgUserDeleted, r.Body["message"])

	missing := utils.NewID()
	for _, m := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		r = e.do(m, "/api/v1/users/"+missing, "", gin.H{"name": "x"})
		assert.Equal(t, http.StatusNotFound, r.Code, m)
		assert.Equal(t, resp.MsgUserNotFound, r.Body["message"], m)
	}

	r = e.do(http.MethodGet, "/api/v1/users/not-an-id", "", nil)
	assert.Equal(t, http.StatusBadRequest, r.Code)
	assert.Equal(t, "ID inválido: not-an-id", r.Body["message"])
}

func TestGetPostIncrementsViews(t *testing.T) {
	e := newEnv(t)
	token, author := e.register("Ana", "ana@example.com", "")
	id := e.createPost(token, "Primeiro post", "published")["id"].(string)

	r := e.do(http.MethodGet, "/api/v1/posts/"+id, "", nil)
	require.Equal(t, http.StatusOK, r.Code)
	data := r.Body["data"].(map[string]any)
	assert.Equal(t, float64(1), data["views"])
	assert.Equal(t, "primeiro-post", data["slug"])
	a := data["author"].(map[string]any)
	assert.Equal(t, author, a["id"])
	assert.Equal(t, "Ana", a["name"])
	assert.Equal(t, "ana@example.com", a["email"])

	r = e.do(http.MethodGet, "/api/v1/posts/"+id, "", nil)
	assert.Equal(t, float64(2), r.Body["data"].(map[string]any)["views"])

	r = e.do(http.MethodGet, "/api/v1/posts/"+utils.NewID(), "", nil)
	assert.Equal(t, http.StatusNotFound, r.Code)
	assert.Equal(t, resp.MsgPostNotFound, r.Body["message"])
}

func TestCreatePostAuthorFromToken(t *testing.T) {
	e := newEnv(t)
	token, author := e.register("Ana", "ana@example.com", "")

	r := e.do(http.MethodPost, "/api/v1/posts", token, gin.H{
		"title": "Go", "content": "c", "category": "dev", "author": utils.NewID(), "authorId": utils.NewID(),
		"tags": []string{" Go ", "API"},
	})
	require.Equal(t, http.StatusCreated, r.Code, r.Raw)
	data := r.Body["data"].(map[string]any)
	assert.Equal(t, author, data["authorId"])
	assert.Equal(t, []any{"go", "api"}, data["tags"])
	assert.Equal(t, "draft", data["status"])
	assert.Nil(t, data["publishedAt"])

	r = e.do(http.MethodPost, "/api/v1/posts", token, gin.H{"content": "sem título"})
	assert.Equal(t, http.StatusBadRequest, r.Code)
	assert.Equal(t, false, r.Body["success"])
}

func TestUpdateDeleteOwnership(t *testing.T) {
	e := newEnv(t)
	owner, _ := e.register("Ana", "ana@example.com", "")
	stranger, _ := e.register("Bia", "bia@example.com", "")
	admin, _ := e.register("Root", "root@example.com", "admin")
	id := e.createPost(owner, "Rascunho", "draft")["id"].(string)

	r := e.do(http.MethodPut, "/api/v1/posts/"+id, stranger, gin.H{"title": "x"})
	assert.Equal(t, http.StatusForbidden, r.Code)
	assert.Equal(t, resp.MsgCannotUpdatePost, r.Body["message"])

	r = e.do(http.MethodDelete, "/api/v1/posts/"+id, stranger, nil)
	assert.Equal(t, http.StatusForbidden, r.Code)
	assert.Equal(t, resp.MsgCannotDeletePost, r.Body["message"])

	// 404 优先于 403
	r = e.do(http.MethodPut, "/api/v1/posts/"+utils.NewID(), stranger, gin.H{"title": "x"})
	assert.Equal(t, http.StatusNotFound, r.Code)
	assert.Equal(t, resp.MsgPostNotFound, r.Body["message"])

	r = e.do(http.MethodPut, "/api/v1/posts/"+id, owner, gin.H{"title": "Publicado agora", "status": "published"})
	require.Equal(t, http.StatusOK, r.Code, r.Raw)
	data := r.Body["data"].(map[string]any)
	assert.Equal(t, "publicado-agora", data["slug"])
	assert.NotNil(t, data["publishedAt"])

	r = e.do(http.MethodPut, "/api/v1/posts/"+id, admin, gin.H{"excerpt": "resumo"})
	require.Equal(t, http.StatusOK, r.Code, r.Raw)
	assert.Equal(t, "resumo", r.Body["data"].(map[string]any)["excerpt"])

	r = e.do(http.MethodDelete, "/api/v1/posts/"+id, admin, nil)
	require.Equal(t, http.StatusOK, r.Code)
	assert.Equal(t, map[string]any{}, r.Body["data"])

	r = e.do(http.MethodGet, "/api/v1/posts/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, r.Code)
}

func TestLikeToggleAndComment(t *testing.T) {
	e := newEnv(t)
	owner, _ := e.register("Ana", "ana@example.com", "")
	fan, fanID := e.register("Bia", "bia@example.com", "")
	id := e.createPost(owner, "Curta", "draft")["id"].(string)

	likes := func(r result) []any { return r.Body["data"].(map[string]any)["likes"].([]any) }

	r := e.do(http.MethodPut, "/api/v1/posts/"+id+"/like", fan, nil)
	require.Equal(t, http.StatusOK, r.Code, r.Raw)
	require.Len(t, likes(r), 1)
	assert.Equal(t, fanID, likes(r)[0].(map[string]any)["user"])

	r = e.do(http.MethodPut, "/api/v1/posts/"+id+"/like", fan, nil)
	require.Equal(t, http.StatusOK, r.Code)
	assert.Len(t, likes(r), 0)

	r = e.do(http.MethodPost, "/api/v1/posts/"+id+"/comments", fan, gin.H{"content": "Ótimo!"})
	require.Equal(t, http.StatusCreated, r.Code, r.Raw)
	comments := r.Body["data"].(map[string]any)["comments"].([]any)
	require.Len(t, comments, 1)
	c := comments[0].(map[string]any)
	assert.Equal(t, "Ótimo!", c["content"])
	assert.Equal(t, "Bia", c["user"].(map[string]any)["name"])

	r = e.do(http.MethodPost, "/api/v1/posts/"+id+"/comments", fan, gin.H{"content": strings.Repeat("a", 1001)})
	assert.Equal(t, http.StatusBadRequest, r.Code)

	r = e.do(http.MethodPut, "/api/v1/posts/"+utils.NewID()+"/like", fan, nil)
	assert.Equal(t, http.StatusNotFound, r.Code)
	assert.Equal(t, resp.MsgPostNotFound, r.Body["message"])
}

func TestListPostsPagination(t *testing.T) {
	e := newEnv(t)
	token, _ := e.register("Ana", "ana@example.com", "")
	for _, title := range []string{"Um", "Dois", "Três"} {
		e.createPost(token, title, "published")
	}

	r := e.do(http.MethodGet, "/api/v1/posts?limit=1&page=1", "", nil)
	require.Equal(t, http.StatusOK, r.Code, r.Raw)
	assert.Equal(t, float64(1), r.Body["count"])
	assert.Equal(t, float64(3), r.Body["total"])
	assert.Len(t, r.Body["data"], 1)
	pg := r.Body["pagination"].(map[string]any)
	assert.Equal(t, map[string]any{"page": float64(2), "limit": float64(1)}, pg["next"])
	assert.NotContains(t, pg, "prev")
	// 作者展开
	first := r.Body["data"].([]any)[0].(map[string]any)
	assert.Equal(t, "Ana", first["author"].(map[string]any)["name"])

	r = e.do(http.MethodGet, "/api/v1/posts?limit=1&page=3", "", nil)
	pg = r.Body["pagination"].(map[string]any)
	assert.NotContains(t, pg, "next")
	assert.Equal(t, map[string]any{"page": float64(2), "limit": float64(1)}, pg["prev"])

	r = e.do(http.MethodGet, "/api/v1/posts?sort=title&fields=title", "", nil)
	require.Equal(t, http.StatusOK, r.Code)
	data := r.Body["data"].([]any)
	require.Len(t, data, 3)
	assert.Equal(t, "Dois", data[0].(map[string]any)["title"])
	assert.NotContains(t, data[0].(map[string]any), "content")
	assert.Contains(t, data[0].(map[string]any), "id")

	r = e.do(http.MethodGet, "/api/v1/posts?title=Um", "", nil)
	assert.Equal(t, float64(1), r.Body["total"])

	r = e.do(http.MethodPost, "/api/v1/posts", token, gin.H{
		"title": "Com tags", "content": "conteúdo", "category": "go", "tags": []string{"Go", "gin"},
	})
	require.Equal(t, http.StatusCreated, r.Code, r.Raw)
	r = e.do(http.MethodGet, "/api/v1/posts?tags=GO", "", nil)
	require.Equal(t, http.StatusOK, r.Code, r.Raw)
	assert.Equal(t, float64(1), r.Body["total"])
	assert.Equal(t, "Com tags", r.Body["data"].([]any)[0].(map[string]any)["title"])
	r = e.do(http.MethodGet, "/api/v1/posts?tags=go&tags=rust", "", nil)
	assert.Equal(t, float64(0), r.Body["total"])

	// 超大 page 不能让 offset 溢出
	r = e.do(http.MethodGet, "/api/v1/posts?page=9223372036854775807&limit=10", "", nil)
	require.Equal(t, http.StatusOK, r.Code, r.Raw)
	assert.Equal(t, float64(0), r.Body["count"])
	pg = r.Body["pagination"].(map[string]any)
	assert.NotContains(t, pg, "next")
	assert.Greater(t, pg["prev"].(map[string]any)["page"].(float64), float64(1))

	r = e.do(http.MethodGet, "/api/v1/posts?password=x", "", nil)
	assert.Equal(t, http.StatusBadRequest, r.Code)
	assert.Equal(t, "Parâmetro de filtro inválido: password", r.Body["message"])
}

func TestAdminEngine(t *testing.T) {
	e := newEnv(t)
	userTok, userID := e.register("Ana", "ana@example.com", "")
	adminTok, _ := e.register("Root", "root@example.com", "admin")
	e.createPost(userTok, "Rascunho", "draft")

	r := e.call(e.admin, http.MethodGet, "/admin/v1/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, r.Code)
	assert.Equal(t, resp.MsgNoToken, r.Body["message"])

	r = e.call(e.admin, http.MethodGet, "/admin/v1/users", userTok, nil)
	assert.Equal(t, http.StatusForbidden, r.Code)
	assert.Equal(t, resp.MsgForbiddenRole, r.Body["message"])

	r = e.call(e.admin, http.MethodGet, "/admin/v1/users?q=ana", adminTok, nil)
	require.Equal(t, http.StatusOK, r.Code, r.Raw)
	assert.Equal(t, float64(1), r.Body["total"])
	assert.NotContains(t, r.Raw, "password")

	r = e.call(e.admin, http.MethodPut, "/admin/v1/users/"+userID+"/role", adminTok, gin.H{"role": "admin"})
	require.Equal(t, http.StatusOK, r.Code, r.Raw)

	// 角色变更对已签发的 token 立即生效
	r = e.call(e.admin, http.MethodGet, "/admin/v1/posts?status=draft", userTok, nil)
	require.Equal(t, http.StatusOK, r.Code, r.Raw)
	assert.Equal(t, float64(1), r.Body["total"])

	r = e.call(e.admin, http.MethodPut, "/admin/v1/users/"+userID+"/role", adminTok, gin.H{"role": "root"})
	assert.Equal(t, http.StatusBadRequest, r.Code)

	r = e.call(e.admin, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, r.Code)
}

// slowPosts 浏览计数一直阻塞到请求 context 结束
type slowPosts struct {
	mock.Mock
	domain.PostRepository
}

func (m *slowPosts) IncrementViews(ctx context.Context, id string) error {
	m.Called(id)
	<-ctx.Done()
	return ctx.Err()
}

func TestSlowStoreTimesOut(t *testing.T) {
	cfg := testConfig()
	cfg.App.HTTP.RequestTimeoutSec = 1
	cfg.Docs.Enabled = false

	posts := &slowPosts{}
	id := utils.NewID()
	posts.On("IncrementViews", id).Return().Once()

	api := NewAPIEngine(Deps{
		Log:    zap.NewNop(),
		Config: cfg,
		Posts:  posts,
		Tokens: auth.NewTokenService("test-secret", "", 0),
	})
	w := httptest.NewRecorder()
	api.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/posts/"+id, nil))

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, resp.MsgTimeout, out["message"])
	assert.NotContains(t, w.Body.String(), "deadline")
	posts.AssertExpectations(t)
}
