package schema

import "time"

// SchemaMeta 记录数据库 schema 版本与当前目录数据摘要。
// 表内仅维护单行（ID=1）。
type SchemaMeta struct {
	ID              int        `gorm:"primaryKey"`
	SchemaVersion   int        `gorm:"not null"`
	CatalogDigest   string     `gorm:"size:64"` // 最近一次导入的目录文件 sha256
	CatalogSeededAt *time.Time
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (SchemaMeta) TableName() string {
	return "schema_meta"
}
