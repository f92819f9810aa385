package app

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nisc-labs/wearguard/internal/cliconfig"
	"github.com/nisc-labs/wearguard/pkg/log"
)

const reloadDebounce = 100 * time.Millisecond

// ConfigWatcher monitors the config file and applies threshold changes
// to the running device via fsnotify. Only alert thresholds and safety
// limits are hot-reloadable; transport and queue sizing require a
// restart.
type ConfigWatcher struct {
	path   string
	app    *App
	logger log.Logger

	mu       sync.Mutex
	debounce *time.Timer
}

// NewConfigWatcher watches the file at path for the given app.
func NewConfigWatcher(path string, app *App, logger log.Logger) *ConfigWatcher {
	return &ConfigWatcher{
		path:   path,
		app:    app,
		logger: logger,
	}
}

// Run blocks watching the config file's directory until ctx is done.
// The directory, not the file, is watched: editors and config tools
// typically replace the file with a rename.
func (w *ConfigWatcher) Run(ctx context.Context) {
	if w.path == "" {
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Error("config watcher setup failed", log.Err(err))
		return
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		w.logger.Error("config watcher add failed",
			log.String("dir", filepath.Dir(w.path)),
			log.Err(err),
		)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.debounceReload(reloadDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", log.Err(err))
		}
	}
}

func (w *ConfigWatcher) debounceReload(delay time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(delay, w.reload)
}

func (w *ConfigWatcher) reload() {
	fileCfg, err := cliconfig.LoadFileConfig(w.path)
	if err != nil {
		w.logger.Warn("config reload skipped",
			log.String("path", w.path),
			log.Err(err),
		)
		return
	}

	cfg := w.app.cfg
	if err := cliconfig.ApplyFileConfig(&cfg, fileCfg, nil); err != nil {
		w.logger.Warn("config reload rejected", log.Err(err))
		return
	}
	if err := cfg.Validate(); err != nil {
		w.logger.Warn("config reload rejected", log.Err(err))
		return
	}

	w.app.dev.UpdateThresholds(cfg.Thresholds())
	w.logger.Info("thresholds reloaded", log.String("path", w.path))
}
