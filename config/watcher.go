package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/khulnasoft/DataLineup/errors"
)

// ReloadCallback is invoked with the watched file's path whenever the
// watched topology file changes.
type ReloadCallback func(path string) error

// TopologyWatcher watches the standalone-mode declarative topology file for
// changes and debounces rapid edits before triggering a re-sync.
type TopologyWatcher struct {
	path           string
	watcher        *fsnotify.Watcher
	callbacks      []ReloadCallback
	mu             sync.Mutex
	debounceTimer  *time.Timer
	debouncePeriod time.Duration
	log            *zap.SugaredLogger
}

// NewTopologyWatcher creates a watcher on the given topology file path.
func NewTopologyWatcher(path string, log *zap.SugaredLogger) (*TopologyWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, errors.Wrapf(err, "failed to watch topology directory %s", dir)
	}

	return &TopologyWatcher{
		path:           path,
		watcher:        w,
		debouncePeriod: 500 * time.Millisecond,
		log:            log,
	}, nil
}

// OnReload registers a callback to run (debounced) after a change settles.
func (tw *TopologyWatcher) OnReload(cb ReloadCallback) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	tw.callbacks = append(tw.callbacks, cb)
}

// Start begins watching in a background goroutine.
func (tw *TopologyWatcher) Start() {
	go tw.loop()
}

// Stop releases the underlying fsnotify watcher.
func (tw *TopologyWatcher) Stop() error {
	return tw.watcher.Close()
}

func (tw *TopologyWatcher) loop() {
	for {
		select {
		case event, ok := <-tw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(tw.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			tw.scheduleReload()

		case err, ok := <-tw.watcher.Errors:
			if !ok {
				return
			}
			if tw.log != nil {
				tw.log.Warnw("topology watcher error", "error", err)
			}
		}
	}
}

func (tw *TopologyWatcher) scheduleReload() {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.debounceTimer != nil {
		tw.debounceTimer.Stop()
	}
	tw.debounceTimer = time.AfterFunc(tw.debouncePeriod, tw.reload)
}

func (tw *TopologyWatcher) reload() {
	tw.mu.Lock()
	callbacks := make([]ReloadCallback, len(tw.callbacks))
	copy(callbacks, tw.callbacks)
	tw.mu.Unlock()

	for _, cb := range callbacks {
		if err := cb(tw.path); err != nil {
			if tw.log != nil {
				tw.log.Warnw("topology reload callback failed", "error", err)
			}
		}
	}
}
