// Package watch 监视项目目录，在配置或文档变化后重新执行写入。
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce 合并连续变化的等待时间
const DefaultDebounce = 300 * time.Millisecond

// Watcher 项目目录监视器
type Watcher struct {
	root     string
	exclude  string
	debounce time.Duration
	logger   *zap.Logger
	run      func(ctx context.Context) error
}

// New 创建监视器，exclude 目录（通常是输出目录）内的变化会被忽略
func New(root, exclude string, logger *zap.Logger, run func(ctx context.Context) error) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		root:     root,
		exclude:  exclude,
		debounce: DefaultDebounce,
		logger:   logger,
		run:      run,
	}
}

// WithDebounce 设置合并等待时间
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// Run 先执行一次，然后在每批变化后重新执行，直到 ctx 结束
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建文件监视器失败: %w", err)
	}
	defer watcher.Close()

	if err := w.addTree(watcher, w.root); err != nil {
		return err
	}

	w.execute(ctx)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if w.ignored(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				// 新建的子目录也需要监视
				w.watchCreated(watcher, event.Name)
			}
			w.logger.Debug("检测到变化", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			timer.Reset(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("文件监视错误", zap.Error(err))

		case <-timer.C:
			w.execute(ctx)
		}
	}
}

func (w *Watcher) execute(ctx context.Context) {
	if err := w.run(ctx); err != nil {
		w.logger.Error("处理失败，等待下一次变化", zap.Error(err))
	}
}

// watchCreated 监视新建的目录，失败只记录警告
func (w *Watcher) watchCreated(watcher *fsnotify.Watcher, path string) {
	if err := w.addTree(watcher, path); err != nil {
		w.logger.Warn("添加监视目录失败", zap.String("path", path), zap.Error(err))
	}
}

// addTree 递归添加目录，跳过排除目录
func (w *Watcher) addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(path) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("监视目录 %s 失败: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) ignored(path string) bool {
	if w.exclude == "" {
		return false
	}
	exclude, err := filepath.Abs(w.exclude)
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return abs == exclude || strings.HasPrefix(abs, exclude+string(filepath.Separator))
}
