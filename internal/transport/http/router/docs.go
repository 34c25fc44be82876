package router

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gopkg.in/yaml.v3"
)

// LoadOpenAPI 读取 openapi yaml，转成可直接 JSON 输出的结构
func LoadOpenAPI(path string) (map[string]any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw any
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	doc, ok := jsonable(raw).(map[string]any)
	if !ok || len(doc) == 0 {
		return nil, fmt.Errorf("parse %s: not a mapping", path)
	}
	return doc, nil
}

// jsonable 非字符串 key（如响应码 200）转成字符串
func jsonable(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, vv := range t {
			t[k] = jsonable(vv)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[fmt.Sprint(k)] = jsonable(vv)
		}
		return m
	case []any:
		for i := range t {
			t[i] = jsonable(t[i])
		}
		return t
	default:
		return v
	}
}

// mountDocs /openapi.json + /docs/*any（swagger UI 指向前者）
func mountDocs(g *gin.RouterGroup, doc map[string]any) {
	g.GET("/openapi.json", func(c *gin.Context) { c.JSON(http.StatusOK, doc) })
	url := ginSwagger.URL(g.BasePath() + "/openapi.json")
	g.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, url))
}
