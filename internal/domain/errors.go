package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// DuplicateError 唯一约束冲突，Msg 面向用户
type DuplicateError struct{ Msg string }

func (e *DuplicateError) Error() string        { return e.Msg }
func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// ValidationError 聚合字段校验错误
type ValidationError struct {
	Fields map[string]string
	order  []string
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, ok := e.Fields[field]; ok {
		return
	}
	e.Fields[field] = msg
	e.order = append(e.order, field)
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.order))
	for _, f := range e.order {
		msgs = append(msgs, e.Fields[f])
	}
	return strings.Join(msgs, ", ")
}

// Err 没有错误时返回 nil，避免 typed-nil
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func NewValidationError(field, msg string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
