package fastache

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ----------------------------- Template Reload Manager -----------------------------

// ReloadCallback is called when a watched template changes. tmpl is nil when
// the file was removed or failed to compile.
type ReloadCallback func(filename string, tmpl *Template, err error)

// ReloadManager recompiles template files through a FileCache when the
// filesystem reports a change.
type ReloadManager struct {
	mu        sync.RWMutex
	watcher   *fsnotify.Watcher
	files     *FileCache
	match     func(string) bool
	callbacks []ReloadCallback
	stopChan  chan struct{}
	stopped   bool
	wg        sync.WaitGroup
}

// NewReloadManager creates a manager for files accepted by match.
func NewReloadManager(files *FileCache, match func(string) bool) (*ReloadManager, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if match == nil {
		match = func(string) bool { return true }
	}
	return &ReloadManager{
		watcher:  w,
		files:    files,
		match:    match,
		stopChan: make(chan struct{}),
	}, nil
}

// WatchDirectory watches dir and its subdirectories.
func (rm *ReloadManager) WatchDirectory(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := rm.watcher.Add(path); err != nil {
			return fmt.Errorf("watching %q: %w", path, err)
		}
		return nil
	})
}

// WatchFile watches a single template file. Editors that save by rename
// drop the watch; watch the directory to survive that.
func (rm *ReloadManager) WatchFile(filename string) error {
	if err := rm.watcher.Add(filename); err != nil {
		return fmt.Errorf("watching %q: %w", filename, err)
	}
	return nil
}

// AddCallback adds a callback to be called when templates are reloaded
func (rm *ReloadManager) AddCallback(callback ReloadCallback) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.callbacks = append(rm.callbacks, callback)
}

// Start begins processing filesystem events.
func (rm *ReloadManager) Start() {
	rm.wg.Add(1)
	go rm.watchLoop()
}

// Stop ends event processing and closes the watcher.
func (rm *ReloadManager) Stop() error {
	rm.mu.Lock()
	if rm.stopped {
		rm.mu.Unlock()
		return nil
	}
	rm.stopped = true
	close(rm.stopChan)
	rm.mu.Unlock()

	err := rm.watcher.Close()
	rm.wg.Wait()
	return err
}

func (rm *ReloadManager) watchLoop() {
	defer rm.wg.Done()
	for {
		select {
		case <-rm.stopChan:
			return
		case ev, ok := <-rm.watcher.Events:
			if !ok {
				return
			}
			rm.handle(ev)
		case err, ok := <-rm.watcher.Errors:
			if !ok {
				return
			}
			logger().Warn("template watcher error", "error", err)
		}
	}
}

func (rm *ReloadManager) handle(ev fsnotify.Event) {
	if !rm.match(ev.Name) {
		return
	}
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		rm.files.Forget(ev.Name)
		logger().Debug("template removed", "file", ev.Name)
		rm.notify(ev.Name, nil, ErrNonExistent)
	case ev.Has(fsnotify.Write), ev.Has(fsnotify.Create):
		rm.files.Forget(ev.Name)
		tmpl, err := rm.files.CompileFile(ev.Name)
		if err != nil {
			logger().Warn("template reload failed", "file", ev.Name, "error", err)
		} else {
			logger().Debug("template reloaded", "file", ev.Name)
		}
		rm.notify(ev.Name, tmpl, err)
	}
}

func (rm *ReloadManager) notify(filename string, tmpl *Template, err error) {
	rm.mu.RLock()
	callbacks := append([]ReloadCallback(nil), rm.callbacks...)
	rm.mu.RUnlock()
	for _, callback := range callbacks {
		callback(filename, tmpl, err)
	}
}
