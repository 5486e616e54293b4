package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yuqie6/IdleScape/internal/schema"
	"gorm.io/gorm"
)

// CatalogRepository 目录参考数据仓储（活动、活动选项、物品）
type CatalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository 创建仓储
func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// FindActivityByName 按名称查询活动，不存在返回 nil
func (r *CatalogRepository) FindActivityByName(ctx context.Context, name string) (*schema.Activity, error) {
	var activity schema.Activity
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&activity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询活动失败: %w", err)
	}
	return &activity, nil
}

// FindOptionByName 按名称查询某活动下的选项；选项属于其他活动时同样返回 nil
func (r *CatalogRepository) FindOptionByName(ctx context.Context, activityID int64, name string) (*schema.ActivityOption, error) {
	var option schema.ActivityOption
	err := r.db.WithContext(ctx).
		Where("activity_id = ? AND name = ?", activityID, name).
		First(&option).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询活动选项失败: %w", err)
	}
	return &option, nil
}

// FirstOption 活动下 ID 最小的选项
func (r *CatalogRepository) FirstOption(ctx context.Context, activityID int64) (*schema.ActivityOption, error) {
	var option schema.ActivityOption
	err := r.db.WithContext(ctx).
		Where("activity_id = ?", activityID).
		Order("id ASC").
		First(&option).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询活动选项失败: %w", err)
	}
	return &option, nil
}

// FindItemByName 按名称查询物品，不存在返回 nil
func (r *CatalogRepository) FindItemByName(ctx context.Context, name string) (*schema.Item, error) {
	var item schema.Item
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询物品失败: %w", err)
	}
	return &item, nil
}

// GetActivity 按 ID 查询活动
func (r *CatalogRepository) GetActivity(ctx context.Context, id int64) (*schema.Activity, error) {
	var activity schema.Activity
	if err := r.db.WithContext(ctx).First(&activity, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询活动失败: %w", err)
	}
	return &activity, nil
}

// GetOption 按 ID 查询活动选项
func (r *CatalogRepository) GetOption(ctx context.Context, id int64) (*schema.ActivityOption, error) {
	var option schema.ActivityOption
	if err := r.db.WithContext(ctx).First(&option, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询活动选项失败: %w", err)
	}
	return &option, nil
}

// GetItem 按 ID 查询物品
func (r *CatalogRepository) GetItem(ctx context.Context, id int64) (*schema.Item, error) {
	var item schema.Item
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询物品失败: %w", err)
	}
	return &item, nil
}

// ListActivities 全部活动，按 ID 升序
func (r *CatalogRepository) ListActivities(ctx context.Context) ([]schema.Activity, error) {
	var activities []schema.Activity
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&activities).Error; err != nil {
		return nil, fmt.Errorf("查询活动失败: %w", err)
	}
	return activities, nil
}

// ListOptions 全部活动选项，按 ID 升序
func (r *CatalogRepository) ListOptions(ctx context.Context) ([]schema.ActivityOption, error) {
	var options []schema.ActivityOption
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&options).Error; err != nil {
		return nil, fmt.Errorf("查询活动选项失败: %w", err)
	}
	return options, nil
}

// ListItems 全部物品，按 ID 升序
func (r *CatalogRepository) ListItems(ctx context.Context) ([]schema.Item, error) {
	var items []schema.Item
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("查询物品失败: %w", err)
	}
	return items, nil
}

// CountActivities 统计活动数量
func (r *CatalogRepository) CountActivities(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&schema.Activity{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("统计活动失败: %w", err)
	}
	return count, nil
}

// Replace 清空并重新写入全部目录数据（破坏性）。
// 必须在事务中调用。外键检查推迟到写完之后统一做，角色表仍引用被删除的 ID 时
// 返回 ErrCatalogInUse，由调用方回滚。
func (r *CatalogRepository) Replace(ctx context.Context, items []schema.Item, activities []schema.Activity, options []schema.ActivityOption) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Exec("PRAGMA defer_foreign_keys = ON").Error; err != nil {
		return fmt.Errorf("推迟外键检查失败: %w", err)
	}

	all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []interface{}{&schema.ActivityOption{}, &schema.Activity{}, &schema.Item{}} {
		if err := all.Delete(model).Error; err != nil {
			return fmt.Errorf("清空目录表失败: %w", err)
		}
	}

	if len(items) > 0 {
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("写入物品失败: %w", err)
		}
	}
	if len(activities) > 0 {
		if err := tx.Create(&activities).Error; err != nil {
			return fmt.Errorf("写入活动失败: %w", err)
		}
	}
	if len(options) > 0 {
		if err := tx.Omit("Activity", "RewardItem").Create(&options).Error; err != nil {
			return fmt.Errorf("写入活动选项失败: %w", err)
		}
	}

	// 不能等 COMMIT 报错：SQLite 提交失败后事务仍处于打开状态
	type violation struct {
		Table  string `gorm:"column:table"`
		Parent string `gorm:"column:parent"`
	}
	var violations []violation
	if err := tx.Raw("PRAGMA foreign_key_check").Scan(&violations).Error; err != nil {
		return fmt.Errorf("外键检查失败: %w", err)
	}
	if len(violations) > 0 {
		return fmt.Errorf("%w: %s 引用了已删除的 %s（共 %d 处）",
			ErrCatalogInUse, violations[0].Table, violations[0].Parent, len(violations))
	}
	return nil
}
