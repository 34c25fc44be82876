package domain

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const MinPasswordLen = 6

var validate = validator.New()

type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:50;not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;size:191;not null" json:"email"`
	Password  string    `gorm:"size:100;not null" json:"-"` // bcrypt hash，永不输出
	Avatar    string    `gorm:"size:512" json:"avatar"`
	Bio       string    `gorm:"size:500" json:"bio"`
	Role      string    `gorm:"size:16;not null;default:user" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// Normalize 去空白、email 小写、默认角色
func (u *User) Normalize() {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Avatar = strings.TrimSpace(u.Avatar)
	if u.Role == "" {
		u.Role = RoleUser
	}
}

func (u *User) Validate() error {
	ve := &ValidationError{}
	switch {
	case u.Name == "":
		ve.Add("name", "Nome é obrigatório")
	case utf8.RuneCountInString(u.Name) > 50:
		ve.Add("name", "Nome não pode ter mais de 50 caracteres")
	}
	switch {
	case u.Email == "":
		ve.Add("email", "Email é obrigatório")
	case validate.Var(u.Email, "email") != nil:
		ve.Add("email", "Email inválido")
	}
	if !ValidRole(u.Role) {
		ve.Add("role", "Role inválida")
	}
	if utf8.RuneCountInString(u.Bio) > 500 {
		ve.Add("bio", "Bio não pode ter mais de 500 caracteres")
	}
	return ve.Err()
}

func ValidRole(r string) bool { return r == RoleUser || r == RoleAdmin }

func ValidatePassword(pw string) error {
	if pw == "" {
		return NewValidationError("password", "Senha é obrigatória")
	}
	if utf8.RuneCountInString(pw) < MinPasswordLen {
		return NewValidationError("password", "Senha deve ter pelo menos 6 caracteres")
	}
	return nil
}

// UserPatch 可更新字段；没有密码字段，改密码走 SetPassword
type UserPatch struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Avatar *string `json:"avatar"`
	Bio    *string `json:"bio"`
	Role   *string `json:"role"`
}

func (p UserPatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
}

type UserRepository interface {
	Create(ctx context.Context, u *User, password string) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, offset, limit int, q string) ([]User, int64, error)
	Update(ctx context.Context, id string, patch UserPatch) (*User, error)
	SetPassword(ctx context.Context, id, password string) error
	Delete(ctx context.Context, id string) error
	CheckPassword(u *User, password string) bool
}
