package service

import (
	"context"
	"time"

	"github.com/yuqie6/IdleScape/internal/repository"
	"github.com/yuqie6/IdleScape/internal/schema"
)

// 引擎依赖的最小存储接口。查询类方法在记录不存在时返回 nil, nil。

type GameStore interface {
	FindActivityByName(ctx context.Context, name string) (*schema.Activity, error)
	FindOptionByName(ctx context.Context, activityID int64, name string) (*schema.ActivityOption, error)
	FirstOption(ctx context.Context, activityID int64) (*schema.ActivityOption, error)
	FindItemByName(ctx context.Context, name string) (*schema.Item, error)
	GetActivity(ctx context.Context, id int64) (*schema.Activity, error)
	GetOption(ctx context.Context, id int64) (*schema.ActivityOption, error)
	GetItem(ctx context.Context, id int64) (*schema.Item, error)

	FindCharacterByName(ctx context.Context, name string) (*schema.Character, error)
	CreateCharacter(ctx context.Context, character *schema.Character) error
	ListCharacters(ctx context.Context) ([]schema.Character, error)

	OpenActivityFor(ctx context.Context, characterID int64) (*schema.CharacterActivity, error)
	CloseActivity(ctx context.Context, row *schema.CharacterActivity, endedAt time.Time) error
	InsertActivity(ctx context.Context, row *schema.CharacterActivity) error
	HistoryFor(ctx context.Context, characterID int64, limit int) ([]schema.CharacterActivity, error)

	CreditExperience(ctx context.Context, characterID, activityID, amount int64) error
	CreditItem(ctx context.Context, characterID, itemID, quantity int64) error
	SkillsFor(ctx context.Context, characterID int64) ([]schema.CharacterSkill, error)
	ItemsFor(ctx context.Context, characterID int64) ([]schema.CharacterItem, error)

	// InTx 在一个事务中执行 fn；fn 返回错误时所有写入回滚
	InTx(ctx context.Context, fn func(tx GameStore) error) error
}

// CatalogStore 目录导入所需的存储接口
type CatalogStore interface {
	CountActivities(ctx context.Context) (int64, error)
	ListActivities(ctx context.Context) ([]schema.Activity, error)
	ListOptions(ctx context.Context) ([]schema.ActivityOption, error)
	ListItems(ctx context.Context) ([]schema.Item, error)
	CatalogRefs(ctx context.Context) (*repository.CatalogRefs, error)
	ReplaceCatalog(ctx context.Context, items []schema.Item, activities []schema.Activity, options []schema.ActivityOption) error
	GetMeta(ctx context.Context) (*schema.SchemaMeta, error)
	SetCatalogDigest(ctx context.Context, digest string, seededAt time.Time) error

	InTxCatalog(ctx context.Context, fn func(tx CatalogStore) error) error
}

// gormStore 把 repository.Store 适配为 GameStore / CatalogStore
type gormStore struct {
	*repository.Store
}

// NewGameStore 基于 gorm 存储创建引擎存储
func NewGameStore(store *repository.Store) GameStore {
	return gormStore{Store: store}
}

// NewCatalogStore 基于 gorm 存储创建目录存储
func NewCatalogStore(store *repository.Store) CatalogStore {
	return gormStore{Store: store}
}

func (s gormStore) InTx(ctx context.Context, fn func(tx GameStore) error) error {
	return s.Store.InTx(ctx, func(tx *repository.Store) error {
		return fn(gormStore{Store: tx})
	})
}

func (s gormStore) InTxCatalog(ctx context.Context, fn func(tx CatalogStore) error) error {
	return s.Store.InTx(ctx, func(tx *repository.Store) error {
		return fn(gormStore{Store: tx})
	})
}

func (s gormStore) CountActivities(ctx context.Context) (int64, error) {
	return s.Catalog.CountActivities(ctx)
}

func (s gormStore) ListActivities(ctx context.Context) ([]schema.Activity, error) {
	return s.Catalog.ListActivities(ctx)
}

func (s gormStore) ListOptions(ctx context.Context) ([]schema.ActivityOption, error) {
	return s.Catalog.ListOptions(ctx)
}

func (s gormStore) ListItems(ctx context.Context) ([]schema.Item, error) {
	return s.Catalog.ListItems(ctx)
}

func (s gormStore) ReplaceCatalog(ctx context.Context, items []schema.Item, activities []schema.Activity, options []schema.ActivityOption) error {
	return s.Catalog.Replace(ctx, items, activities, options)
}

func (s gormStore) GetMeta(ctx context.Context) (*schema.SchemaMeta, error) {
	return s.Meta.Get(ctx)
}

func (s gormStore) SetCatalogDigest(ctx context.Context, digest string, seededAt time.Time) error {
	return s.Meta.SetCatalogDigest(ctx, digest, seededAt)
}
