package repo

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"go-gin-blog/internal/domain"
)

// translate 把唯一冲突转成 domain.DuplicateError，其余原样返回
func translate(err error, dupMsg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isDupKey(err) {
		return &domain.DuplicateError{Msg: dupMsg}
	}
	return err
}

// 不依赖各驱动的错误类型
func isDupKey(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
