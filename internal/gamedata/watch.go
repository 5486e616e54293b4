package gamedata

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch 监控数据文件，每次写入（防抖后）重新解析并回调，直到 ctx 结束。
// 监控所在目录而不是文件本身，编辑器的原子替换（rename）也能捕获。
func Watch(ctx context.Context, path string, debounce time.Duration, onChange func(*Data, error)) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("获取绝对路径失败: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建文件监控器失败: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("添加监控目录失败: %w", err)
	}
	slog.Info("监控目录数据文件", "path", absPath)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			// 防抖：连续写入只解析最后一次
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			onChange(Load(absPath))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("文件监控错误", "error", err)
		}
	}
}
