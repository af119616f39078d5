package fastache

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// Engine serves the templates of one directory by name. A template's name
// is its slash-separated path relative to the directory, without extension.
type Engine struct {
	mu       sync.RWMutex
	dir      string
	cfg      *Config
	files    *FileCache
	names    map[string]string
	reloader *ReloadManager
}

// NewEngine loads every template under dir whose extension is listed in cfg.
// A nil cfg means DefaultConfig.
func NewEngine(dir string, cfg *Config) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	e := &Engine{
		dir:   dir,
		cfg:   cfg,
		files: NewFileCache(NewTemplateCache(cfg.CacheEntries), WithConfig(cfg)),
		names: make(map[string]string),
	}
	if err := e.Load(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) isTemplate(path string) bool {
	ext := filepath.Ext(path)
	for _, want := range e.cfg.Extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}

func (e *Engine) nameOf(path string) (string, bool) {
	rel, err := filepath.Rel(e.dir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	return strings.TrimSuffix(rel, filepath.Ext(rel)), true
}

// Load (re)compiles every template file under the engine directory.
func (e *Engine) Load() error {
	found := make(map[string]string)
	err := filepath.WalkDir(e.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !e.isTemplate(path) {
			return nil
		}
		name, ok := e.nameOf(path)
		if !ok {
			return nil
		}
		if _, err := e.files.CompileFile(path); err != nil {
			return err
		}
		found[name] = path
		return nil
	})
	if err != nil {
		return fmt.Errorf("loading templates from %q: %w", e.dir, err)
	}
	e.mu.Lock()
	e.names = found
	e.mu.Unlock()
	logger().Info("templates loaded", "dir", e.dir, "count", len(found))
	return nil
}

// Lookup returns the named template, recompiling it if the file changed.
func (e *Engine) Lookup(name string) (*Template, error) {
	e.mu.RLock()
	path, ok := e.names[name]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("template %q: %w", name, ErrNonExistent)
	}
	return e.files.CompileFile(path)
}

func (e *Engine) Render(w io.Writer, name string, params *Param) error {
	tmpl, err := e.Lookup(name)
	if err != nil {
		return err
	}
	return tmpl.Render(w, params)
}

func (e *Engine) RenderString(name string, params *Param) (string, error) {
	tmpl, err := e.Lookup(name)
	if err != nil {
		return "", err
	}
	return tmpl.RenderString(params)
}

// Names returns the loaded template names, sorted.
func (e *Engine) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.names))
	for name := range e.names {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Watch starts reloading templates as files under the directory change.
// Callbacks observe every reload.
func (e *Engine) Watch(callbacks ...ReloadCallback) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.reloader != nil {
		return nil
	}
	rm, err := NewReloadManager(e.files, e.isTemplate)
	if err != nil {
		return err
	}
	if err := rm.WatchDirectory(e.dir); err != nil {
		_ = rm.Stop()
		return err
	}
	rm.AddCallback(e.track)
	for _, cb := range callbacks {
		rm.AddCallback(cb)
	}
	rm.Start()
	e.reloader = rm
	return nil
}

// track keeps the name table in step with created and removed files.
func (e *Engine) track(filename string, tmpl *Template, err error) {
	name, ok := e.nameOf(filename)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case errors.Is(err, ErrNonExistent):
		delete(e.names, name)
	case tmpl != nil:
		e.names[name] = filename
	}
}

// Close stops watching, if started.
func (e *Engine) Close() error {
	e.mu.Lock()
	rm := e.reloader
	e.reloader = nil
	e.mu.Unlock()
	if rm == nil {
		return nil
	}
	return rm.Stop()
}
