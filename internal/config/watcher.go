package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"tracegate/pkg/logging"
)

// ReloadFunc is called with the freshly loaded configuration whenever
// config.yaml changes on disk.
type ReloadFunc func(Config)

// Watcher watches the configuration directory and reloads config.yaml when
// it changes. Only a subset of fields is safely reloadable at runtime; the
// callback decides what to apply.
type Watcher struct {
	mu sync.Mutex

	// configPath is the directory containing config.yaml
	configPath string

	// watcher is the fsnotify watcher instance
	watcher *fsnotify.Watcher

	// debounceInterval is how long to wait for additional changes before
	// reloading. Editors often emit several events per save.
	debounceInterval time.Duration

	onReload ReloadFunc
	running  bool
	stopCh   chan struct{}
}

// NewWatcher creates a configuration watcher for the given directory.
func NewWatcher(configPath string, onReload ReloadFunc) *Watcher {
	return &Watcher{
		configPath:       configPath,
		debounceInterval: 500 * time.Millisecond,
		onReload:         onReload,
		stopCh:           make(chan struct{}),
	}
}

// Start begins watching for configuration changes.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if err := watcher.Add(w.configPath); err != nil {
		watcher.Close()
		w.mu.Unlock()
		return err
	}

	w.watcher = watcher
	w.running = true
	w.stopCh = make(chan struct{})
	w.mu.Unlock()

	go w.processEvents(ctx)

	logging.Info("ConfigWatcher", "Watching %s for configuration changes", w.configPath)
	return nil
}

// Stop stops the watcher. Safe to call multiple times.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	w.running = false
	close(w.stopCh)
	if w.watcher != nil {
		w.watcher.Close()
		w.watcher = nil
	}
}

// processEvents consumes fsnotify events until the watcher stops. Reloads
// are debounced so a burst of write events produces a single reload.
func (w *Watcher) processEvents(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != configFileName {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounceInterval)
				timerC = timer.C
			} else {
				timer.Reset(w.debounceInterval)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Warn("ConfigWatcher", "Watch error: %v", err)
		case <-timerC:
			timer = nil
			timerC = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadConfig(w.configPath)
	if err != nil {
		logging.Warn("ConfigWatcher", "Reload failed, keeping previous configuration: %v", err)
		return
	}
	if err := Validate(cfg); err != nil {
		logging.Warn("ConfigWatcher", "Reloaded configuration invalid, keeping previous: %v", err)
		return
	}
	logging.Info("ConfigWatcher", "Configuration reloaded")
	if w.onReload != nil {
		w.onReload(cfg)
	}
}
