package config

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the configuration file when it changes on disk and hands
// the freshly loaded Config to the callback. Reload failures keep the
// previous configuration.
type Watcher struct {
	loader   *Loader
	path     string
	onReload func(*Config)
	logger   *zap.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher creates a watcher for the given YAML configuration file.
func NewWatcher(path string, loader *Loader, onReload func(*Config), logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: editors replace files on save, which drops the
	// watch when set on the file itself.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		loader:   loader,
		path:     path,
		onReload: onReload,
		logger:   logger,
		watcher:  fsw,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) loop() {
	var debounce *time.Timer
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(250*time.Millisecond, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Warn("config watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) reload() {
	cfg := &Config{}
	if err := w.loader.Load(cfg); err != nil {
		if w.logger != nil {
			w.logger.Error("config reload failed", zap.Error(err))
		}
		return
	}
	if w.logger != nil {
		w.logger.Info("configuration reloaded", zap.String("path", w.path))
	}
	if w.onReload != nil {
		w.onReload(cfg)
	}
}
