package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go-gin-blog/internal/domain"
	"go-gin-blog/pkg/utils"
)

const dupSlugMsg = "Já existe um post com este título"

type PostRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewPostRepo(db *gorm.DB) *PostRepo {
	return &PostRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

var _ domain.PostRepository = (*PostRepo)(nil)

// 作者展开为 name/email/avatar，评论作者展开为 name/avatar
func preloadAuthor(db *gorm.DB) *gorm.DB    { return db.Select("id", "name", "email", "avatar") }
func preloadCommenter(db *gorm.DB) *gorm.DB { return db.Select("id", "name", "avatar") }
func orderByCreated(db *gorm.DB) *gorm.DB   { return db.Order("created_at ASC").Order("id ASC") }

func (r *PostRepo) Create(ctx context.Context, p *domain.Post) error {
	if p.ID == "" {
		p.ID = utils.NewID()
	}
	p.Prepare(r.now())
	if err := p.Validate(); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
	return translate(err, dupSlugMsg)
}

// FindByID 只取文章本身（含点赞，用于权限判断/点赞切换）
func (r *PostRepo) FindByID(ctx context.Context, id string) (*domain.Post, error) {
	var p domain.Post
	err := r.db.WithContext(ctx).
		Preload("Likes", orderByCreated).
		First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindDetail 展开作者与评论作者
func (r *PostRepo) FindDetail(ctx context.Context, id string) (*domain.Post, error) {
	var p domain.Post
	err := r.db.WithContext(ctx).
		Preload("Author", preloadAuthor).
		Preload("Likes", orderByCreated).
		Preload("Comments", orderByCreated).
		Preload("Comments.User", preloadCommenter).
		First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func applyConditions(tx *gorm.DB, conds []domain.Condition) *gorm.DB {
	for _, c := range conds {
		if c.Op == domain.OpContains {
			tx = tx.Where(datatypes.JSONArrayQuery(c.Column).Contains(c.Value))
			continue
		}
		// Column/Op 来自白名单（feature/post），这里只拼接已知值
		tx = tx.Where(clause.Expr{
			SQL:  "? " + c.Op + " ?",
			Vars: []any{clause.Column{Name: c.Column}, c.Value},
		})
	}
	return tx
}

// List total 与分页窗口无关
func (r *PostRepo) List(ctx context.Context, f domain.PostFilter) ([]domain.Post, int64, error) {
	base := applyConditions(r.db.WithContext(ctx).Model(&domain.Post{}), f.Conditions)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := base.Session(&gorm.Session{}).
		Preload("Author", preloadAuthor).
		Preload("Likes", orderByCreated).
		Preload("Comments", orderByCreated)
	if len(f.Sort) == 0 {
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true})
	}
	for _, s := range f.Sort {
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: s.Column}, Desc: s.Desc})
	}
	// 稳定排序
	q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})

	var posts []domain.Post
	if err := q.Offset(f.Offset).Limit(f.Limit).Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// Update 重算 slug/publishedAt 后只写内容字段；views 不在这里写，避免覆盖并发的浏览计数
func (r *PostRepo) Update(ctx context.Context, p *domain.Post) error {
	p.Prepare(r.now())
	if err := p.Validate(); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Model(p).
		Select("title", "slug", "content", "excerpt", "tags", "category",
			"featured_image", "status", "published_at", "updated_at").
		Omit(clause.Associations).
		Updates(p).Error
	return translate(err, dupSlugMsg)
}

// Delete 连同内嵌的点赞/评论一起删除
func (r *PostRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&domain.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		if err := tx.Where("post_id = ?", id).Delete(&domain.PostLike{}).Error; err != nil {
			return err
		}
		return tx.Where("post_id = ?", id).Delete(&domain.PostComment{}).Error
	})
}

// IncrementViews 原子 +1；不跑校验，不更新 updated_at
func (r *PostRepo) IncrementViews(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&domain.Post{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ToggleLike 已赞则取消，否则追加一条。返回切换后的状态。
func (r *PostRepo) ToggleLike(ctx context.Context, postID, userID string) (bool, error) {
	liked := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&domain.PostLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		like := domain.PostLike{PostID: postID, UserID: userID, CreatedAt: r.now()}
		if err := tx.Create(&like).Error; err != nil {
			return err
		}
		liked = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return liked, nil
}

func (r *PostRepo) AddComment(ctx context.Context, c *domain.PostComment) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = utils.NewID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.now()
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error
}

// Migrate 建表
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.User{}, &domain.Post{}, &domain.PostLike{}, &domain.PostComment{})
}
