package service

import (
	"errors"
	"fmt"

	"HubAdmin/internal/model"

	"gorm.io/gorm"
)

// ValidationError 请求参数本身无效
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return "invalid request: " + e.Msg }

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError 引用的记录不存在（从未存在或已被合并删除）
type NotFoundError struct {
	Kind model.EntityKind
	ID   uint64
	Ref  string // 非数字主键（如 merge_uuid）
}

func (e *NotFoundError) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("%s %s not found", e.Kind, e.Ref)
	}
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

// ConstraintError 写从属表时触发了非预期的数据库约束，事务已回滚
type ConstraintError struct {
	Err error
}

func (e *ConstraintError) Error() string { return "constraint violation: " + e.Err.Error() }

func (e *ConstraintError) Unwrap() error { return e.Err }

// classifyStoreError 把 gorm 翻译后的错误映射为 service 错误类型，其余原样返回
func classifyStoreError(err error) error {
	if err == nil {
		return nil
	}
	var (
		ve *ValidationError
		nf *NotFoundError
		ce *ConstraintError
	)
	if errors.As(err, &ve) || errors.As(err, &nf) || errors.As(err, &ce) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) ||
		errors.Is(err, gorm.ErrForeignKeyViolated) ||
		errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return &ConstraintError{Err: err}
	}
	return err
}

// notFound gorm.ErrRecordNotFound 转为 NotFoundError
func notFound(err error, kind model.EntityKind, id uint64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Kind: kind, ID: id}
	}
	return err
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsConstraint(err error) bool {
	var ce *ConstraintError
	return errors.As(err, &ce)
}
