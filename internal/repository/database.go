package repository

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite" // 纯 Go SQLite 驱动
	"github.com/yuqie6/IdleScape/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database 数据库管理器
type Database struct {
	DB            *gorm.DB
	SchemaVersion int
}

// NewDatabase 创建数据库连接
func NewDatabase(dbPath string) (*Database, error) {
	if dbPath != ":memory:" {
		// 确保目录存在
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("创建数据目录失败: %w", err)
		}
	}

	db, err := Open(dbPath)
	if err != nil {
		return nil, err
	}

	d := &Database{DB: db}
	if err := migrateWithVersion(db, d); err != nil {
		_ = d.Close()
		return nil, err
	}

	slog.Info("数据库初始化成功", "path", dbPath, "schema_version", d.SchemaVersion)
	return d, nil
}

// Open 打开并配置连接，不做迁移
func Open(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// SQLite 只有一个写者；单连接让同一角色的事务串行执行，
	// 也保证 :memory: 库在连接池里只有一份
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取连接池失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := configureDB(db, dbPath); err != nil {
		return nil, fmt.Errorf("配置数据库失败: %w", err)
	}
	return db, nil
}

// configureDB 配置 SQLite 参数
func configureDB(db *gorm.DB, dbPath string) error {
	pragmas := []string{
		"PRAGMA foreign_keys=ON",    // 子表外键指向父表
		"PRAGMA busy_timeout=5000",  // 其他进程持有写锁时等待而不是立即失败
		"PRAGMA synchronous=NORMAL", // 平衡性能与安全
		"PRAGMA temp_store=MEMORY",  // 临时表使用内存
	}
	if dbPath != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL") // 读写互不阻塞
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return fmt.Errorf("执行 %s 失败: %w", pragma, err)
		}
	}

	return nil
}

// Models 全部表模型，按依赖顺序
func Models() []interface{} {
	return []interface{}{
		&schema.SchemaMeta{},
		&schema.Item{},
		&schema.Activity{},
		&schema.ActivityOption{},
		&schema.Character{},
		&schema.CharacterSkill{},
		&schema.CharacterItem{},
		&schema.CharacterActivity{},
	}
}

// openActivityIndexSQL 每个角色最多一条 ended_at 为空的活动
const openActivityIndexSQL = "CREATE UNIQUE INDEX IF NOT EXISTS uniq_character_open_activity " +
	"ON character_activities(character_id) WHERE ended_at IS NULL"

// Migrate 自动迁移表结构并建立部分唯一索引
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	if err := db.Exec(openActivityIndexSQL).Error; err != nil {
		return fmt.Errorf("创建活动唯一索引失败: %w", err)
	}
	return nil
}

const latestSchemaVersion = 1

func migrateWithVersion(db *gorm.DB, out *Database) error {
	if db == nil {
		return fmt.Errorf("db 不能为空")
	}
	if out == nil {
		return fmt.Errorf("out 不能为空")
	}

	// 先确保 schema_meta 存在
	if err := db.AutoMigrate(&schema.SchemaMeta{}); err != nil {
		return fmt.Errorf("创建 schema_meta 失败: %w", err)
	}

	var meta schema.SchemaMeta
	err := db.First(&meta, 1).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			meta = schema.SchemaMeta{ID: 1, SchemaVersion: 0}
			if err := db.Create(&meta).Error; err != nil {
				return fmt.Errorf("初始化 schema_meta 失败: %w", err)
			}
		} else {
			return fmt.Errorf("读取 schema_meta 失败: %w", err)
		}
	}

	cur := meta.SchemaVersion
	out.SchemaVersion = cur

	if cur > latestSchemaVersion {
		return fmt.Errorf("数据库 schema_version=%d 高于当前程序支持的版本=%d", cur, latestSchemaVersion)
	}
	if cur == latestSchemaVersion {
		return nil
	}

	if err := Migrate(db); err != nil {
		return fmt.Errorf("迁移数据库失败: %w", err)
	}

	if err := db.Model(&schema.SchemaMeta{}).Where("id = ?", 1).
		Update("schema_version", latestSchemaVersion).Error; err != nil {
		return fmt.Errorf("写入 schema_meta 失败: %w", err)
	}
	out.SchemaVersion = latestSchemaVersion
	return nil
}

// Close 关闭数据库连接
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
