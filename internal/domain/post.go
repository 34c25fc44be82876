package domain

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/datatypes"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

const (
	MaxTitleLen   = 200
	MaxExcerptLen = 300
	MaxCommentLen = 1000
)

// UserRef 展开后的用户引用（populate）
type UserRef struct {
	ID     string `gorm:"primaryKey" json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar"`
}

func (UserRef) TableName() string { return "users" }

type Post struct {
	ID            string                      `gorm:"primaryKey;size:36" json:"id"`
	Title         string                      `gorm:"size:200;not null" json:"title"`
	Slug          string                      `gorm:"uniqueIndex;size:255;not null" json:"slug"`
	Content       string                      `gorm:"type:text;not null" json:"content"`
	Excerpt       string                      `gorm:"size:300" json:"excerpt"`
	AuthorID      string                      `gorm:"size:36;index;not null" json:"authorId"`
	Author        *UserRef                    `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Tags          datatypes.JSONSlice[string] `json:"tags"`
	Category      string                      `gorm:"size:100;index;not null" json:"category"`
	FeaturedImage string                      `gorm:"size:512" json:"featuredImage"`
	Status        string                      `gorm:"size:16;index;not null;default:draft" json:"status"`
	PublishedAt   *time.Time                  `json:"publishedAt"`
	Views         int64                       `gorm:"not null;default:0" json:"views"`
	Likes         []PostLike                  `gorm:"foreignKey:PostID" json:"likes"`
	Comments      []PostComment               `gorm:"foreignKey:PostID" json:"comments"`
	CreatedAt     time.Time                   `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time                   `json:"updatedAt"`
}

func (Post) TableName() string { return "posts" }

// PostLike 每个用户对同一篇文章最多一条
type PostLike struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	PostID    string    `gorm:"size:36;not null;uniqueIndex:idx_post_like_user" json:"-"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_post_like_user" json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}

func (PostLike) TableName() string { return "post_likes" }

// PostComment 只追加，不可编辑/删除
type PostComment struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	PostID    string    `gorm:"size:36;not null;index" json:"-"`
	UserID    string    `gorm:"size:36;not null" json:"userId"`
	User      *UserRef  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func (PostComment) TableName() string { return "post_comments" }

func (c *PostComment) Validate() error {
	c.Content = strings.TrimSpace(c.Content)
	switch {
	case c.Content == "":
		return NewValidationError("content", "Comentário é obrigatório")
	case utf8.RuneCountInString(c.Content) > MaxCommentLen:
		return NewValidationError("content", "Comentário não pode ter mais de 1000 caracteres")
	}
	return nil
}

// Prepare 保存前：规范化字段、重算 slug、首次发布时写 publishedAt
func (p *Post) Prepare(now time.Time) {
	p.Title = strings.TrimSpace(p.Title)
	p.Category = strings.TrimSpace(p.Category)
	if p.Status == "" {
		p.Status = StatusDraft
	}
	tags := make(datatypes.JSONSlice[string], 0, len(p.Tags))
	for _, t := range p.Tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			tags = append(tags, t)
		}
	}
	p.Tags = tags

	p.Slug = Slugify(p.Title)
	if p.Slug == "" && p.ID != "" {
		p.Slug = "post-" + strings.SplitN(p.ID, "-", 2)[0]
	}
	if p.Status == StatusPublished && p.PublishedAt == nil {
		t := now
		p.PublishedAt = &t
	}
}

func (p *Post) Validate() error {
	ve := &ValidationError{}
	switch {
	case p.Title == "":
		ve.Add("title", "Título é obrigatório")
	case utf8.RuneCountInString(p.Title) > MaxTitleLen:
		ve.Add("title", "Título não pode ter mais de 200 caracteres")
	}
	if strings.TrimSpace(p.Content) == "" {
		ve.Add("content", "Conteúdo é obrigatório")
	}
	if utf8.RuneCountInString(p.Excerpt) > MaxExcerptLen {
		ve.Add("excerpt", "Resumo não pode ter mais de 300 caracteres")
	}
	if p.Category == "" {
		ve.Add("category", "Categoria é obrigatória")
	}
	if p.AuthorID == "" {
		ve.Add("author", "Autor é obrigatório")
	}
	if !ValidStatus(p.Status) {
		ve.Add("status", "Status inválido")
	}
	return ve.Err()
}

func ValidStatus(s string) bool {
	return s == StatusDraft || s == StatusPublished || s == StatusArchived
}

// HasLike 该用户是否已点赞
func (p *Post) HasLike(userID string) bool {
	for _, l := range p.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

// CanModify 作者本人或管理员
func (p *Post) CanModify(u *User) bool {
	return u != nil && (p.AuthorID == u.ID || u.IsAdmin())
}

// PostInput 创建请求体；author 永远取自当前用户
type PostInput struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Excerpt       string   `json:"excerpt"`
	Tags          []string `json:"tags"`
	Category      string   `json:"category"`
	FeaturedImage string   `json:"featuredImage"`
	Status        string   `json:"status"`
}

func (in PostInput) ToPost(authorID string) *Post {
	return &Post{
		Title:         in.Title,
		Content:       in.Content,
		Excerpt:       in.Excerpt,
		Tags:          datatypes.JSONSlice[string](in.Tags),
		Category:      in.Category,
		FeaturedImage: in.FeaturedImage,
		Status:        in.Status,
		AuthorID:      authorID,
	}
}

// PostPatch 更新请求体；author/views/likes/comments 不可改
type PostPatch struct {
	Title         *string   `json:"title"`
	Content       *string   `json:"content"`
	Excerpt       *string   `json:"excerpt"`
	Tags          *[]string `json:"tags"`
	Category      *string   `json:"category"`
	FeaturedImage *string   `json:"featuredImage"`
	Status        *string   `json:"status"`
}

func (p PostPatch) Apply(post *Post) {
	if p.Title != nil {
		post.Title = *p.Title
	}
	if p.Content != nil {
		post.Content = *p.Content
	}
	if p.Excerpt != nil {
		post.Excerpt = *p.Excerpt
	}
	if p.Tags != nil {
		post.Tags = datatypes.JSONSlice[string](*p.Tags)
	}
	if p.Category != nil {
		post.Category = *p.Category
	}
	if p.FeaturedImage != nil {
		post.FeaturedImage = *p.FeaturedImage
	}
	if p.Status != nil {
		post.Status = *p.Status
	}
}

// PostFilter 由查询参数解析出的条件，见 feature/post
type PostFilter struct {
	Conditions []Condition
	Sort       []SortField
	Offset     int
	Limit      int
}

// OpContains JSON 数组列包含某个元素（tags）
const OpContains = "contains"

type Condition struct {
	Column string
	Op     string // = > >= < <= 或 OpContains
	Value  any
}

type SortField struct {
	Column string
	Desc   bool
}

type PostRepository interface {
	Create(ctx context.Context, p *Post) error
	FindByID(ctx context.Context, id string) (*Post, error)
	FindDetail(ctx context.Context, id string) (*Post, error)
	List(ctx context.Context, f PostFilter) ([]Post, int64, error)
	Update(ctx context.Context, p *Post) error
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, postID, userID string) (liked bool, err error)
	AddComment(ctx context.Context, c *PostComment) error
}
