package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/yuqie6/IdleScape/internal/gamedata"
	"github.com/yuqie6/IdleScape/internal/pkg/config"
	"github.com/yuqie6/IdleScape/internal/repository"
	"github.com/yuqie6/IdleScape/internal/service"
)

// Core 持有 CLI 各命令共享的依赖，由 main 显式创建并传给每个命令
type Core struct {
	Cfg       *config.Config
	DB        *repository.Database
	Store     *repository.Store
	Data      *gamedata.Data
	LogCloser io.Closer

	Services struct {
		Activities *service.ActivityService
		Characters *service.CharacterService
		Catalog    *service.CatalogService
	}
}

// Options 控制 NewCore 的可选行为
type Options struct {
	// SkipSeed 不做首次目录导入（init-db 自己负责导入）
	SkipSeed bool
}

// NewCore 加载配置与目录数据、打开数据库、组装服务；目录为空时导入一次
func NewCore(ctx context.Context, cfgPath string, opts Options) (*Core, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	return NewCoreWithConfig(ctx, cfg, opts)
}

// NewCoreWithConfig 同 NewCore，配置由调用方提供
func NewCoreWithConfig(ctx context.Context, cfg *config.Config, opts Options) (*Core, error) {
	logCloser, err := config.SetupLogger(config.LoggerOptions{
		Level:     cfg.App.LogLevel,
		Path:      cfg.App.LogPath,
		Component: filepath.Base(os.Args[0]),
	})
	if err != nil {
		return nil, err
	}

	c := &Core{Cfg: cfg, LogCloser: logCloser}

	data, err := gamedata.Load(cfg.Game.DataPath)
	if err != nil {
		c.Close()
		return nil, &service.ConfigurationError{Reason: err.Error()}
	}
	c.Data = data

	db, err := repository.NewDatabase(cfg.Storage.DBPath)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.DB = db
	c.Store = repository.NewStore(db.DB)

	game := service.NewGameStore(c.Store)
	c.Services.Activities = service.NewActivityService(game, service.FixedRewardPolicy{}, data.ExperienceTable)
	c.Services.Characters = service.NewCharacterService(game, c.Services.Activities)
	c.Services.Catalog = service.NewCatalogService(service.NewCatalogStore(c.Store))

	if !opts.SkipSeed {
		if _, err := c.Services.Catalog.EnsureSeeded(ctx, data); err != nil {
			c.Close()
			return nil, fmt.Errorf("导入目录失败: %w", err)
		}
	}
	return c, nil
}

// Close 关闭核心依赖资源
func (c *Core) Close() error {
	if c == nil {
		return nil
	}
	var dbErr error
	if c.DB != nil {
		dbErr = c.DB.Close()
	}
	if c.LogCloser != nil {
		_ = c.LogCloser.Close()
	}
	return dbErr
}
