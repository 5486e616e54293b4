package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yuqie6/IdleScape/internal/schema"
	"gorm.io/gorm"
)

// CharacterRepository 角色仓储
type CharacterRepository struct {
	db *gorm.DB
}

// NewCharacterRepository 创建仓储
func NewCharacterRepository(db *gorm.DB) *CharacterRepository {
	return &CharacterRepository{db: db}
}

// Create 创建角色，重名返回 ErrDuplicateName
func (r *CharacterRepository) Create(ctx context.Context, character *schema.Character) error {
	if character == nil {
		return fmt.Errorf("character is nil")
	}
	if err := r.db.WithContext(ctx).Create(character).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateName, character.Name)
		}
		return fmt.Errorf("创建角色失败: %w", err)
	}
	return nil
}

// GetByName 按名称查询角色，不存在返回 nil
func (r *CharacterRepository) GetByName(ctx context.Context, name string) (*schema.Character, error) {
	var character schema.Character
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&character).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询角色失败: %w", err)
	}
	return &character, nil
}

// GetByID 按 ID 查询角色
func (r *CharacterRepository) GetByID(ctx context.Context, id int64) (*schema.Character, error) {
	var character schema.Character
	if err := r.db.WithContext(ctx).First(&character, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询角色失败: %w", err)
	}
	return &character, nil
}

// List 全部角色，按创建顺序
func (r *CharacterRepository) List(ctx context.Context) ([]schema.Character, error) {
	var characters []schema.Character
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&characters).Error; err != nil {
		return nil, fmt.Errorf("查询角色失败: %w", err)
	}
	return characters, nil
}
