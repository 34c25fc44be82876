package utils

import "github.com/google/uuid"

func NewID() string { return uuid.NewString() }

// ValidID 路径参数里的 ID 是否合法
func ValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil && len(s) == 36
}
