package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/yuqie6/IdleScape/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CharacterItemRepository 角色背包仓储
type CharacterItemRepository struct {
	db *gorm.DB
}

// NewCharacterItemRepository 创建仓储
func NewCharacterItemRepository(db *gorm.DB) *CharacterItemRepository {
	return &CharacterItemRepository{db: db}
}

// Credit 增加物品数量；首次获得时创建行
func (r *CharacterItemRepository) Credit(ctx context.Context, characterID, itemID, quantity int64) error {
	if quantity < 0 {
		return fmt.Errorf("物品增量不能为负: %d", quantity)
	}
	item := &schema.CharacterItem{CharacterID: characterID, ItemID: itemID, Quantity: quantity}
	err := r.db.WithContext(ctx).
		Omit("Character", "Item").
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "character_id"}, {Name: "item_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity":   gorm.Expr("quantity + ?", quantity),
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(item).Error
	if err != nil {
		return fmt.Errorf("记录物品失败: %w", err)
	}
	return nil
}

// ListByCharacter 角色背包，按物品 ID
func (r *CharacterItemRepository) ListByCharacter(ctx context.Context, characterID int64) ([]schema.CharacterItem, error) {
	var items []schema.CharacterItem
	if err := r.db.WithContext(ctx).
		Where("character_id = ?", characterID).
		Order("item_id ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("查询背包失败: %w", err)
	}
	return items, nil
}
