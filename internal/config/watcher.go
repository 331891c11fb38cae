package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"groundwork/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads configuration when .groundwork/config.yaml changes on disk.
// Only the logging section takes effect at runtime; everything else is read
// once at boot.
type Watcher struct {
	watcher     *fsnotify.Watcher
	configPath  string
	onReload    func(*Config)
	mu          sync.Mutex
	lastEvent   time.Time
	debounceDur time.Duration
	done        chan struct{}
}

// NewWatcher creates a watcher for the workspace config file. onReload may be
// nil when only the logging reload is wanted.
func NewWatcher(workspace string, onReload func(*Config)) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}

	cw := &Watcher{
		watcher:     w,
		configPath:  Path(workspace),
		onReload:    onReload,
		debounceDur: 500 * time.Millisecond, // Editors fire several writes per save
		done:        make(chan struct{}),
	}

	// Watch the directory: editors replace files and the inode changes.
	if err := w.Add(filepath.Dir(cw.configPath)); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}
	return cw, nil
}

// Start begins watching until ctx is cancelled or Stop is called.
func (cw *Watcher) Start(ctx context.Context) {
	go cw.run(ctx)
}

// Stop ends the watch loop.
func (cw *Watcher) Stop() {
	close(cw.done)
	_ = cw.watcher.Close()
}

func (cw *Watcher) run(ctx context.Context) {
	log := logging.Get(logging.CategoryConfig)
	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.done:
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(cw.configPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			cw.mu.Lock()
			settled := time.Since(cw.lastEvent) >= cw.debounceDur
			cw.lastEvent = time.Now()
			cw.mu.Unlock()
			if !settled {
				continue
			}
			cw.reload(log)
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			log.Warn("config watcher error: %v", err)
		}
	}
}

func (cw *Watcher) reload(log *logging.Logger) {
	if err := logging.ReloadConfig(); err != nil {
		log.Warn("logging config reload failed: %v", err)
	}
	if cw.onReload == nil {
		return
	}
	cfg, err := Load(cw.configPath)
	if err != nil {
		log.Warn("config reload failed: %v", err)
		return
	}
	log.Info("config reloaded from %s", cw.configPath)
	cw.onReload(cfg)
}
