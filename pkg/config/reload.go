package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pragma/screennav/pkg/logger"
	"github.com/pragma/screennav/pkg/types"
)

// ErrAlreadyWatching is returned by Start on a manager that is running.
var ErrAlreadyWatching = errors.New("already watching configuration file")

// ScreenDiff lists the screen tags a reload added, removed or changed.
// Each list is sorted.
type ScreenDiff struct {
	Added   []string
	Removed []string
	Changed []string
}

// Empty reports whether no screen differs.
func (d ScreenDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

func (d ScreenDiff) String() string {
	if d.Empty() {
		return "screens unchanged"
	}

	var parts []string
	for _, p := range []struct {
		verb string
		tags []string
	}{
		{"added", d.Added},
		{"removed", d.Removed},
		{"changed", d.Changed},
	} {
		if len(p.tags) > 0 {
			parts = append(parts, p.verb+" "+strings.Join(p.tags, ", "))
		}
	}
	return strings.Join(parts, "; ")
}

// DiffScreens compares the screens of two configurations by tag. A nil
// configuration has no screens.
func DiffScreens(before, after *types.NavigatorConfig) ScreenDiff {
	old := screensByTag(before)
	cur := screensByTag(after)

	var d ScreenDiff
	for tag, sc := range cur {
		prev, ok := old[tag]
		switch {
		case !ok:
			d.Added = append(d.Added, tag)
		case !reflect.DeepEqual(prev, sc):
			d.Changed = append(d.Changed, tag)
		}
	}
	for tag := range old {
		if _, ok := cur[tag]; !ok {
			d.Removed = append(d.Removed, tag)
		}
	}

	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Strings(d.Changed)
	return d
}

func screensByTag(cfg *types.NavigatorConfig) map[string]types.ScreenConfig {
	out := make(map[string]types.ScreenConfig)
	if cfg == nil {
		return out
	}
	for _, sc := range cfg.Screens {
		out[sc.Tag] = sc
	}
	return out
}

// Reload is one accepted configuration change.
type Reload struct {
	Config *types.NavigatorConfig
	Diff   ScreenDiff
}

// ReloadCallback receives either an accepted reload or the error that
// kept the file from loading.
type ReloadCallback func(Reload, error)

// ReloadManager watches a navigator config file. Each change that loads,
// validates and differs from the last accepted configuration is handed to
// the callbacks together with its screen diff. Events are debounced and
// callbacks run one reload at a time.
type ReloadManager struct {
	path     string
	logger   logger.Logger
	manager  *Manager
	debounce time.Duration

	mu        sync.Mutex
	callbacks []ReloadCallback
	current   *types.NavigatorConfig
	timer     *time.Timer
	watcher   *fsnotify.Watcher
	cancel    context.CancelFunc

	reloadMu sync.Mutex
}

// NewReloadManager creates a manager for the config file at path
func NewReloadManager(path string, log logger.Logger) *ReloadManager {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &ReloadManager{
		path:     path,
		logger:   log,
		manager:  NewManager(),
		debounce: 500 * time.Millisecond,
	}
}

// SetDebouncePeriod sets how long events are collected before reloading
func (rm *ReloadManager) SetDebouncePeriod(period time.Duration) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.debounce = period
}

// AddCallback adds a reload callback
func (rm *ReloadManager) AddCallback(callback ReloadCallback) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.callbacks = append(rm.callbacks, callback)
}

// Start watches the config file until ctx is done or Stop is called.
// current is the configuration later reloads are compared against.
func (rm *ReloadManager) Start(ctx context.Context, current *types.NavigatorConfig) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.watcher != nil {
		return ErrAlreadyWatching
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Editors often replace the file, so the directory is watched.
	if err := watcher.Add(filepath.Dir(rm.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	rm.watcher = watcher
	rm.cancel = cancel
	rm.current = current

	go rm.watchLoop(ctx, watcher)

	rm.logger.Debug("Started watching configuration file",
		logger.WithField("path", rm.path))
	return nil
}

// Stop ends watching. It is safe to call more than once.
func (rm *ReloadManager) Stop() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.watcher == nil {
		return
	}

	rm.cancel()
	if rm.timer != nil {
		rm.timer.Stop()
		rm.timer = nil
	}
	if err := rm.watcher.Close(); err != nil {
		rm.logger.Warn("Error closing file watcher", logger.WithError(err))
	}
	rm.watcher = nil

	rm.logger.Debug("Stopped watching configuration file")
}

// Reload loads the file now and notifies the callbacks when the
// configuration changed. It returns once the callbacks have run.
func (rm *ReloadManager) Reload() {
	rm.reloadMu.Lock()
	defer rm.reloadMu.Unlock()

	cfg, err := rm.manager.LoadConfig(rm.path)
	if err != nil {
		rm.logger.Error("Failed to reload configuration", logger.WithError(err))
		rm.notify(Reload{}, err)
		return
	}

	rm.mu.Lock()
	prev := rm.current
	if reflect.DeepEqual(prev, cfg) {
		rm.mu.Unlock()
		rm.logger.Debug("Configuration unchanged, skipping reload")
		return
	}
	rm.current = cfg
	rm.mu.Unlock()

	diff := DiffScreens(prev, cfg)
	rm.logger.Info("Configuration reloaded",
		logger.WithField("screens", len(cfg.Screens)),
		logger.WithField("diff", diff.String()))

	rm.notify(Reload{Config: cfg, Diff: diff}, nil)
}

func (rm *ReloadManager) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	name := filepath.Base(rm.path)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			rm.logger.Debug("Configuration file event", logger.WithField("event", event.String()))
			rm.schedule()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			rm.logger.Error("Configuration file watcher error", logger.WithError(err))
			rm.notify(Reload{}, err)
		}
	}
}

func (rm *ReloadManager) schedule() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.timer != nil {
		rm.timer.Stop()
	}
	rm.timer = time.AfterFunc(rm.debounce, rm.Reload)
}

func (rm *ReloadManager) notify(r Reload, err error) {
	rm.mu.Lock()
	callbacks := make([]ReloadCallback, len(rm.callbacks))
	copy(callbacks, rm.callbacks)
	rm.mu.Unlock()

	for _, cb := range callbacks {
		func() {
			defer func() {
				if p := recover(); p != nil {
					rm.logger.Error("Reload callback panic recovered", logger.WithField("panic", p))
				}
			}()
			cb(r, err)
		}()
	}
}
