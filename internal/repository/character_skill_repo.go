package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/yuqie6/IdleScape/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CharacterSkillRepository 角色技能经验仓储
type CharacterSkillRepository struct {
	db *gorm.DB
}

// NewCharacterSkillRepository 创建仓储
func NewCharacterSkillRepository(db *gorm.DB) *CharacterSkillRepository {
	return &CharacterSkillRepository{db: db}
}

// Credit 累加经验；首次记账时创建行
func (r *CharacterSkillRepository) Credit(ctx context.Context, characterID, activityID, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("经验增量不能为负: %d", amount)
	}
	skill := &schema.CharacterSkill{CharacterID: characterID, ActivityID: activityID, Experience: amount}
	err := r.db.WithContext(ctx).
		Omit("Character", "Activity").
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "character_id"}, {Name: "activity_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"experience": gorm.Expr("experience + ?", amount),
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(skill).Error
	if err != nil {
		return fmt.Errorf("记录经验失败: %w", err)
	}
	return nil
}

// Get 查询单个技能，不存在返回 nil
func (r *CharacterSkillRepository) Get(ctx context.Context, characterID, activityID int64) (*schema.CharacterSkill, error) {
	var skills []schema.CharacterSkill
	if err := r.db.WithContext(ctx).
		Where("character_id = ? AND activity_id = ?", characterID, activityID).
		Limit(1).
		Find(&skills).Error; err != nil {
		return nil, fmt.Errorf("查询技能失败: %w", err)
	}
	if len(skills) == 0 {
		return nil, nil
	}
	return &skills[0], nil
}

// ListByCharacter 角色全部技能，按经验降序
func (r *CharacterSkillRepository) ListByCharacter(ctx context.Context, characterID int64) ([]schema.CharacterSkill, error) {
	var skills []schema.CharacterSkill
	if err := r.db.WithContext(ctx).
		Where("character_id = ?", characterID).
		Order("experience DESC, activity_id ASC").
		Find(&skills).Error; err != nil {
		return nil, fmt.Errorf("查询技能失败: %w", err)
	}
	return skills, nil
}
