package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/yuqie6/IdleScape/internal/schema"
	"gorm.io/gorm"
)

// CharacterActivityRepository 角色活动会话仓储（只追加，不删除）
type CharacterActivityRepository struct {
	db *gorm.DB
}

// NewCharacterActivityRepository 创建仓储
func NewCharacterActivityRepository(db *gorm.DB) *CharacterActivityRepository {
	return &CharacterActivityRepository{db: db}
}

// GetOpen 查询角色进行中的活动，无则返回 nil。
// 走 character_id 索引直接查 ended_at IS NULL，不加载历史。
// 多于一条时返回第一条与 ErrMultipleOpenActivities，由调用方决定如何上报。
func (r *CharacterActivityRepository) GetOpen(ctx context.Context, characterID int64) (*schema.CharacterActivity, error) {
	var rows []schema.CharacterActivity
	err := r.db.WithContext(ctx).
		Where("character_id = ? AND ended_at IS NULL", characterID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询进行中活动失败: %w", err)
	}
	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
		return &rows[0], nil
	default:
		return &rows[0], fmt.Errorf("%w: character_id=%d count=%d", ErrMultipleOpenActivities, characterID, len(rows))
	}
}

// Insert 插入一条进行中的活动
func (r *CharacterActivityRepository) Insert(ctx context.Context, row *schema.CharacterActivity) error {
	if row == nil {
		return fmt.Errorf("row is nil")
	}
	if row.EndedAt != nil {
		return fmt.Errorf("新活动的 ended_at 必须为空")
	}
	if err := r.db.WithContext(ctx).Omit("Character", "Activity", "ActivityOption").Create(row).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: character_id=%d", ErrOpenActivityExists, row.CharacterID)
		}
		return fmt.Errorf("创建活动失败: %w", err)
	}
	return nil
}

// Close 结束活动；只有 ended_at 仍为空时才更新，否则返回 ErrActivityClosed
func (r *CharacterActivityRepository) Close(ctx context.Context, row *schema.CharacterActivity, endedAt time.Time) error {
	if row == nil {
		return fmt.Errorf("row is nil")
	}
	endedAt = endedAt.UTC()
	res := r.db.WithContext(ctx).
		Model(&schema.CharacterActivity{}).
		Where("id = ? AND ended_at IS NULL", row.ID).
		Update("ended_at", endedAt)
	if res.Error != nil {
		return fmt.Errorf("结束活动失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: id=%d", ErrActivityClosed, row.ID)
	}
	row.EndedAt = &endedAt
	return nil
}

// ListByCharacter 角色活动历史，最新在前；limit<=0 表示不限
func (r *CharacterActivityRepository) ListByCharacter(ctx context.Context, characterID int64, limit int) ([]schema.CharacterActivity, error) {
	var rows []schema.CharacterActivity
	q := r.db.WithContext(ctx).
		Where("character_id = ?", characterID).
		Order("started_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询活动历史失败: %w", err)
	}
	return rows, nil
}

// CountOpen 统计进行中的活动数（全体角色）
func (r *CharacterActivityRepository) CountOpen(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&schema.CharacterActivity{}).
		Where("ended_at IS NULL").
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("统计进行中活动失败: %w", err)
	}
	return count, nil
}

// CatalogRefs 角色数据引用到的目录 ID
type CatalogRefs struct {
	ActivityIDs []int64
	OptionIDs   []int64
	ItemIDs     []int64
}

// GetCatalogRefs 汇总角色相关表引用的活动/选项/物品 ID（去重）
func GetCatalogRefs(ctx context.Context, db *gorm.DB) (*CatalogRefs, error) {
	var refs CatalogRefs
	const activitySQL = `
SELECT activity_id FROM character_activities
UNION
SELECT activity_id FROM character_skills
ORDER BY 1
`
	if err := db.WithContext(ctx).Raw(activitySQL).Scan(&refs.ActivityIDs).Error; err != nil {
		return nil, fmt.Errorf("统计活动引用失败: %w", err)
	}
	if err := db.WithContext(ctx).Model(&schema.CharacterActivity{}).
		Distinct("activity_option_id").Order("activity_option_id").
		Pluck("activity_option_id", &refs.OptionIDs).Error; err != nil {
		return nil, fmt.Errorf("统计选项引用失败: %w", err)
	}
	if err := db.WithContext(ctx).Model(&schema.CharacterItem{}).
		Distinct("item_id").Order("item_id").
		Pluck("item_id", &refs.ItemIDs).Error; err != nil {
		return nil, fmt.Errorf("统计物品引用失败: %w", err)
	}
	return &refs, nil
}
