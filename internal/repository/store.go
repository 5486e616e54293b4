package repository

import (
	"context"
	"time"

	"github.com/yuqie6/IdleScape/internal/schema"
	"gorm.io/gorm"
)

// Store 把各仓储绑定到同一个 *gorm.DB（或事务），供引擎按单个存储接口使用
type Store struct {
	db *gorm.DB

	Catalog    *CatalogRepository
	Characters *CharacterRepository
	Activities *CharacterActivityRepository
	Skills     *CharacterSkillRepository
	Items      *CharacterItemRepository
	Meta       *MetaRepository
}

// NewStore 创建存储
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:         db,
		Catalog:    NewCatalogRepository(db),
		Characters: NewCharacterRepository(db),
		Activities: NewCharacterActivityRepository(db),
		Skills:     NewCharacterSkillRepository(db),
		Items:      NewCharacterItemRepository(db),
		Meta:       NewMetaRepository(db),
	}
}

// InTx 在事务中执行；fn 返回错误时整体回滚
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// CatalogRefs 角色数据引用的目录 ID
func (s *Store) CatalogRefs(ctx context.Context) (*CatalogRefs, error) {
	return GetCatalogRefs(ctx, s.db)
}

func (s *Store) FindActivityByName(ctx context.Context, name string) (*schema.Activity, error) {
	return s.Catalog.FindActivityByName(ctx, name)
}

func (s *Store) FindOptionByName(ctx context.Context, activityID int64, name string) (*schema.ActivityOption, error) {
	return s.Catalog.FindOptionByName(ctx, activityID, name)
}

func (s *Store) FirstOption(ctx context.Context, activityID int64) (*schema.ActivityOption, error) {
	return s.Catalog.FirstOption(ctx, activityID)
}

func (s *Store) GetActivity(ctx context.Context, id int64) (*schema.Activity, error) {
	return s.Catalog.GetActivity(ctx, id)
}

func (s *Store) GetOption(ctx context.Context, id int64) (*schema.ActivityOption, error) {
	return s.Catalog.GetOption(ctx, id)
}

func (s *Store) GetItem(ctx context.Context, id int64) (*schema.Item, error) {
	return s.Catalog.GetItem(ctx, id)
}

func (s *Store) FindItemByName(ctx context.Context, name string) (*schema.Item, error) {
	return s.Catalog.FindItemByName(ctx, name)
}

func (s *Store) FindCharacterByName(ctx context.Context, name string) (*schema.Character, error) {
	return s.Characters.GetByName(ctx, name)
}

func (s *Store) CreateCharacter(ctx context.Context, character *schema.Character) error {
	return s.Characters.Create(ctx, character)
}

func (s *Store) ListCharacters(ctx context.Context) ([]schema.Character, error) {
	return s.Characters.List(ctx)
}

func (s *Store) OpenActivityFor(ctx context.Context, characterID int64) (*schema.CharacterActivity, error) {
	return s.Activities.GetOpen(ctx, characterID)
}

func (s *Store) CloseActivity(ctx context.Context, row *schema.CharacterActivity, endedAt time.Time) error {
	return s.Activities.Close(ctx, row, endedAt)
}

func (s *Store) InsertActivity(ctx context.Context, row *schema.CharacterActivity) error {
	return s.Activities.Insert(ctx, row)
}

func (s *Store) HistoryFor(ctx context.Context, characterID int64, limit int) ([]schema.CharacterActivity, error) {
	return s.Activities.ListByCharacter(ctx, characterID, limit)
}

func (s *Store) CreditExperience(ctx context.Context, characterID, activityID, amount int64) error {
	return s.Skills.Credit(ctx, characterID, activityID, amount)
}

func (s *Store) CreditItem(ctx context.Context, characterID, itemID, quantity int64) error {
	return s.Items.Credit(ctx, characterID, itemID, quantity)
}

func (s *Store) SkillsFor(ctx context.Context, characterID int64) ([]schema.CharacterSkill, error) {
	return s.Skills.ListByCharacter(ctx, characterID)
}

func (s *Store) ItemsFor(ctx context.Context, characterID int64) ([]schema.CharacterItem, error) {
	return s.Items.ListByCharacter(ctx, characterID)
}
