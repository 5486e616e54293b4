package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrDuplicateName 唯一名称冲突
	ErrDuplicateName = errors.New("名称已存在")
	// ErrMultipleOpenActivities 同一角色存在多条进行中的活动
	ErrMultipleOpenActivities = errors.New("存在多条进行中的活动")
	// ErrActivityClosed 关闭活动时该行已被关闭（并发的另一方先提交）
	ErrActivityClosed = errors.New("活动已结束")
	// ErrOpenActivityExists 插入时该角色已有进行中的活动
	ErrOpenActivityExists = errors.New("角色已有进行中的活动")
	// ErrCatalogInUse 重建目录会让角色数据引用不存在的目录行
	ErrCatalogInUse = errors.New("目录数据仍被角色引用")
)

// isUniqueViolation 兼容驱动未翻译的唯一约束错误
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
