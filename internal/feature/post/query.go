package post

import (
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go-gin-blog/internal/domain"
	"go-gin-blog/pkg/utils"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindInt
	kindTime
	kindID
	kindTag
)

type filterField struct {
	column string
	kind   fieldKind
}

// 允许过滤的字段（query key -> 列）
var filterFields = map[string]filterField{
	"status":      {"status", kindString},
	"category":    {"category", kindString},
	"slug":        {"slug", kindString},
	"title":       {"title", kindString},
	"tags":        {"tags", kindTag},
	"author":      {"author_id", kindID},
	"views":       {"views", kindInt},
	"createdAt":   {"created_at", kindTime},
	"updatedAt":   {"updated_at", kindTime},
	"publishedAt": {"published_at", kindTime},
}

// 允许排序的字段
var sortFields = map[string]string{
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"publishedAt": "published_at",
	"views":       "views",
	"title":       "title",
}

var operators = map[string]string{
	"eq":  "=",
	"gt":  ">",
	"gte": ">=",
	"lt":  "<",
	"lte": "<=",
}

var reserved = map[string]bool{"page": true, "limit": true, "sort": true, "fields": true}

type PageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type Pagination struct {
	Next *PageRef `json:"next,omitempty"`
	Prev *PageRef `json:"prev,omitempty"`
}

// Query 解析后的列表查询
type Query struct {
	Page   int
	Limit  int
	Fields []string
	Filter domain.PostFilter
}

// ParseQuery 把 ?status=published&views[gte]=10&sort=-views,title&page=2&limit=5 转成类型化的条件。
// 不认识的字段/操作符直接报错。
func ParseQuery(values url.Values) (Query, error) {
	q := Query{
		Page:  positiveInt(values.Get("page"), DefaultPage),
		Limit: positiveInt(values.Get("limit"), DefaultLimit),
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	// (page-1)*limit 不能溢出
	if maxPage := math.MaxInt32 / q.Limit; q.Page > maxPage {
		q.Page = maxPage
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys) // 条件顺序稳定

	ve := &domain.ValidationError{}
	for _, key := range keys {
		if reserved[key] {
			continue
		}
		name, op, ok := splitKey(key)
		if !ok {
			ve.Add(key, "Parâmetro de filtro inválido: "+key)
			continue
		}
		field, ok := filterFields[name]
		if !ok {
			ve.Add(key, "Parâmetro de filtro inválido: "+key)
			continue
		}
		sqlOp, ok := operators[op]
		if !ok {
			ve.Add(key, "Operador inválido: "+op)
			continue
		}
		if field.kind == kindString || field.kind == kindID || field.kind == kindTag {
			if sqlOp != "=" {
				ve.Add(key, "Operador inválido: "+op)
				continue
			}
		}
		if field.kind == kindTag {
			sqlOp = domain.OpContains
		}
		for _, raw := range values[key] {
			v, err := convert(field.kind, raw)
			if err != nil {
				ve.Add(key, "Valor inválido para "+name+": "+raw)
				continue
			}
			q.Filter.Conditions = append(q.Filter.Conditions, domain.Condition{Column: field.column, Op: sqlOp, Value: v})
		}
	}

	if s := strings.TrimSpace(values.Get("sort")); s != "" {
		for _, part := range strings.Split(s, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			desc := strings.HasPrefix(part, "-")
			col, ok := sortFields[strings.TrimPrefix(part, "-")]
			if !ok {
				ve.Add("sort", "Campo de ordenação inválido: "+part)
				continue
			}
			q.Filter.Sort = append(q.Filter.Sort, domain.SortField{Column: col, Desc: desc})
		}
	}
	if len(q.Filter.Sort) == 0 {
		q.Filter.Sort = []domain.SortField{{Column: "created_at", Desc: true}}
	}

	if f := strings.TrimSpace(values.Get("fields")); f != "" {
		for _, part := range strings.Split(f, ",") {
			if part = strings.TrimSpace(part); part != "" {
				q.Fields = append(q.Fields, part)
			}
		}
	}

	if err := ve.Err(); err != nil {
		return Query{}, err
	}
	q.Filter.Offset = (q.Page - 1) * q.Limit
	q.Filter.Limit = q.Limit
	return q, nil
}

// Pagination next/prev 只在存在时返回
func (q Query) Pagination(total int64) Pagination {
	var p Pagination
	start := (q.Page - 1) * q.Limit
	end := q.Page * q.Limit
	if int64(end) < total {
		p.Next = &PageRef{Page: q.Page + 1, Limit: q.Limit}
	}
	if start > 0 {
		p.Prev = &PageRef{Page: q.Page - 1, Limit: q.Limit}
	}
	return p
}

// splitKey "views[gte]" -> ("views","gte")；"status" -> ("status","eq")
func splitKey(key string) (name, op string, ok bool) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return key, "eq", true
	}
	if !strings.HasSuffix(key, "]") || open == 0 {
		return "", "", false
	}
	return key[:open], key[open+1 : len(key)-1], true
}

func convert(kind fieldKind, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch kind {
	case kindInt:
		return strconv.ParseInt(raw, 10, 64)
	case kindTime:
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t.UTC(), nil
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, err
		}
		return t.UTC(), nil
	case kindID:
		if !utils.ValidID(raw) {
			return nil, strconv.ErrSyntax
		}
		return raw, nil
	case kindTag:
		// tags 入库时已转小写
		if raw == "" {
			return nil, strconv.ErrSyntax
		}
		return strings.ToLower(raw), nil
	default:
		return raw, nil
	}
}

func positiveInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	return n
}

// Project 按 fields 裁剪输出（id 总是保留）
func Project(item map[string]any, fields []string) map[string]any {
	if len(fields) == 0 {
		return item
	}
	out := map[string]any{"id": item["id"]}
	for _, f := range fields {
		if v, ok := item[f]; ok {
			out[f] = v
		}
	}
	return out
}
