package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"go-gin-blog/internal/domain"
	"go-gin-blog/pkg/utils"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

var _ domain.UserRepository = (*UserRepo)(nil)

// Create 校验 + 哈希密码后入库。password 必须是明文。
func (r *UserRepo) Create(ctx context.Context, u *domain.User, password string) error {
	u.Normalize()
	ve := &domain.ValidationError{}
	if err := u.Validate(); err != nil {
		var e *domain.ValidationError
		if errors.As(err, &e) {
			ve = e
		}
	}
	if err := domain.ValidatePassword(password); err != nil {
		ve.Add("password", err.Error())
	}
	if err := ve.Err(); err != nil {
		return err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hash
	if u.ID == "" {
		u.ID = utils.NewID()
	}
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return translate(err, "Email já está em uso")
	}
	return nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context, offset, limit int, q string) ([]domain.User, int64, error) {
	tx := r.db.WithContext(ctx).Model(&domain.User{})
	if s := strings.TrimSpace(q); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		tx = tx.Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ?", like, like)
	}
	var total int64
	if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []domain.User
	if err := tx.Session(&gorm.Session{}).Order("created_at desc").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Update 只写 patch 里出现的资料字段，密码列永远不在这里改
func (r *UserRepo) Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	u, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrNotFound
	}
	patch.Apply(u)
	u.Normalize()
	if err := u.Validate(); err != nil {
		return nil, err
	}
	err = r.db.WithContext(ctx).Model(u).
		Select("name", "email", "avatar", "bio", "role", "updated_at").
		Updates(u).Error
	if err != nil {
		return nil, translate(err, "Email já está em uso")
	}
	return u, nil
}

func (r *UserRepo) SetPassword(ctx context.Context, id, password string) error {
	if err := domain.ValidatePassword(password); err != nil {
		return err
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Update("password", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete 硬删除；文章/点赞/评论保留（孤儿引用）
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepo) CheckPassword(u *domain.User, password string) bool {
	if u == nil || u.Password == "" {
		return false
	}
	return utils.CheckPassword(password, u.Password)
}
