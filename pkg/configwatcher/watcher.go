package configwatcher

import (
	"context"
	"lms_backend/internal/config"
	"lms_backend/pkg/logger"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ConfigReloader 配置文件变更后以新配置调用
type ConfigReloader func(cfg *config.Config)

// Watcher 监听配置文件，防抖后重新加载并分发给所有回调
type Watcher struct {
	path     string
	debounce time.Duration

	mu        sync.Mutex
	reloaders []ConfigReloader
}

func New(configPath string) *Watcher {
	return &Watcher{path: configPath, debounce: time.Second}
}

func (w *Watcher) OnReload(r ConfigReloader) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reloaders = append(w.reloaders, r)
}

func (w *Watcher) dispatch(cfg *config.Config) {
	w.mu.Lock()
	reloaders := append([]ConfigReloader(nil), w.reloaders...)
	w.mu.Unlock()
	for _, r := range reloaders {
		r(cfg)
	}
}

// Reload 立即重新读取配置目录并分发
func (w *Watcher) Reload() error {
	newCfg, err := config.LoadConfig(filepath.Dir(w.path))
	if err != nil {
		return err
	}
	w.dispatch(newCfg)
	logger.Log.Info("Config reloaded", zap.String("path", w.path))
	return nil
}

// Run 阻塞直到 ctx 取消；监听所在目录，兼容编辑器先写临时文件再 rename 的保存方式
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(w.path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return err
	}

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				// 防抖处理
				timer.Reset(w.debounce)
			}
		case <-timer.C:
			if err := w.Reload(); err != nil {
				logger.Log.Error("Failed to reload config", zap.Error(err))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Log.Error("Config watcher error", zap.Error(err))
		}
	}
}
