package service

import (
	"errors"
	"fmt"
	"strings"
)

// 面向玩家的错误文案保持英文（与游戏内文本一致）

var (
	// ErrNoActiveActivity 角色当前没有进行中的活动
	ErrNoActiveActivity = errors.New("no active activity")
	// ErrConcurrentModification 同一角色的并发请求中落败的一方
	ErrConcurrentModification = errors.New("character was modified concurrently, try again")
)

// NotFoundError 引用的角色/活动/选项不存在
type NotFoundError struct {
	Kind string // character, activity, option, item
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("could not find %s %q", e.Kind, e.Name)
}

// DuplicateNameError 创建角色时重名
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("a character named %q already exists", e.Name)
}

// ValidationError 输入不合法
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// RequirementError 选项的技能/物品要求未满足
type RequirementError struct {
	Option string
	Unmet  []string
}

func (e *RequirementError) Error() string {
	return fmt.Sprintf("requirements not met for %q: %s", e.Option, strings.Join(e.Unmet, ", "))
}

// DataIntegrityError 同一角色存在多条进行中的活动。不可恢复，不做任何自动修正。
type DataIntegrityError struct {
	CharacterID int64
	Err         error
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity violation for character_id=%d: %v", e.CharacterID, e.Err)
}

func (e *DataIntegrityError) Unwrap() error { return e.Err }

// ConfigurationError 目录数据有问题（如 action_time 非正）
type ConfigurationError struct {
	Option string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Option == "" {
		return "catalog configuration error: " + e.Reason
	}
	return fmt.Sprintf("catalog configuration error in option %q: %s", e.Option, e.Reason)
}

// IsUserFacing 是否是可以直接展示给玩家的错误；其余错误视为致命
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	var (
		notFound    *NotFoundError
		duplicate   *DuplicateNameError
		validation  *ValidationError
		requirement *RequirementError
	)
	switch {
	case errors.As(err, &notFound),
		errors.As(err, &duplicate),
		errors.As(err, &validation),
		errors.As(err, &requirement),
		errors.Is(err, ErrNoActiveActivity),
		errors.Is(err, ErrConcurrentModification):
		return true
	}
	return false
}
