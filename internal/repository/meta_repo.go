package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yuqie6/IdleScape/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MetaRepository schema_meta 单行仓储
type MetaRepository struct {
	db *gorm.DB
}

// NewMetaRepository 创建仓储
func NewMetaRepository(db *gorm.DB) *MetaRepository {
	return &MetaRepository{db: db}
}

// Get 读取元信息，不存在返回 nil
func (r *MetaRepository) Get(ctx context.Context) (*schema.SchemaMeta, error) {
	var meta schema.SchemaMeta
	if err := r.db.WithContext(ctx).First(&meta, 1).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取 schema_meta 失败: %w", err)
	}
	return &meta, nil
}

// SetCatalogDigest 记录最近一次导入的目录摘要
func (r *MetaRepository) SetCatalogDigest(ctx context.Context, digest string, seededAt time.Time) error {
	seededAt = seededAt.UTC()
	meta := schema.SchemaMeta{ID: 1, CatalogDigest: digest, CatalogSeededAt: &seededAt}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"catalog_digest", "catalog_seeded_at", "updated_at"}),
	}).Create(&meta).Error
	if err != nil {
		return fmt.Errorf("写入 schema_meta 失败: %w", err)
	}
	return nil
}
