package fastache

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// ----------------------------- Template cache -------------------------------

// Cache stores compiled templates under exact byte-for-byte keys.
type Cache interface {
	// Lookup returns ErrNonExistent on a miss.
	Lookup(key []byte) (*Template, error)
	// Insert returns ErrNoSpace when the cache is full.
	Insert(key []byte, t *Template) error
	Remove(key []byte) error
}

type cacheEntry struct {
	key  []byte
	tmpl *Template
}

// TemplateCache buckets entries by the first byte of their key and holds at
// most a fixed number of them.
type TemplateCache struct {
	mu       sync.RWMutex
	buckets  [256][]cacheEntry
	count    int
	capacity int
}

func NewTemplateCache(capacity int) *TemplateCache {
	return &TemplateCache{capacity: capacity}
}

func (c *TemplateCache) Lookup(key []byte) (*Template, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("cache lookup: empty key: %w", ErrArgs)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.buckets[key[0]] {
		if Equal(e.key, key) {
			return e.tmpl, nil
		}
	}
	return nil, ErrNonExistent
}

func (c *TemplateCache) Insert(key []byte, t *Template) error {
	if len(key) == 0 || t == nil {
		return fmt.Errorf("cache insert: %w", ErrArgs)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	bucket := c.buckets[key[0]]
	for i := range bucket {
		if Equal(bucket[i].key, key) {
			bucket[i].tmpl = t
			return nil
		}
	}
	if c.count >= c.capacity {
		return ErrNoSpace
	}
	c.buckets[key[0]] = append(bucket, cacheEntry{key: append([]byte(nil), key...), tmpl: t})
	c.count++
	return nil
}

// Remove deletes key, keeping the remaining bucket entries in order.
func (c *TemplateCache) Remove(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("cache remove: empty key: %w", ErrArgs)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	bucket := c.buckets[key[0]]
	for i := range bucket {
		if Equal(bucket[i].key, key) {
			copy(bucket[i:], bucket[i+1:])
			bucket[len(bucket)-1] = cacheEntry{}
			c.buckets[key[0]] = bucket[:len(bucket)-1]
			c.count--
			return nil
		}
	}
	return ErrNonExistent
}

func (c *TemplateCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.count
}

func (c *TemplateCache) Cap() int { return c.capacity }

// Clear empties the cache
func (c *TemplateCache) Clear() {
	c.mu.Lock()
	c.buckets = [256][]cacheEntry{}
	c.count = 0
	c.mu.Unlock()
}

// ----------------------------- File cache -----------------------------------

// FileCache compiles template files through a Cache keyed by filename and
// recompiles a file when its modification time moves forward.
type FileCache struct {
	mu       sync.Mutex
	cache    Cache
	modTimes map[string]time.Time
	order    []string
	opts     []Option
}

var globalFileCache = NewFileCache(NewTemplateCache(DefaultConfig().CacheEntries))

func NewFileCache(cache Cache, opts ...Option) *FileCache {
	return &FileCache{
		cache:    cache,
		modTimes: make(map[string]time.Time),
		opts:     opts,
	}
}

// CompileFile compiles a template from file through the package file cache.
func CompileFile(filename string) (*Template, error) {
	return globalFileCache.CompileFile(filename)
}

// CompileFile returns the cached template for filename, compiling it when
// missing or stale.
func (fc *FileCache) CompileFile(filename string) (*Template, error) {
	info, err := os.Stat(filename)
	if err != nil {
		return nil, fmt.Errorf("template file %q: %w", filename, errors.Join(ErrFileOpen, err))
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()

	key := []byte(filename)
	if tmpl, err := fc.cache.Lookup(key); err == nil {
		if !fc.modTimes[filename].Before(info.ModTime()) {
			logger().Debug("template cache hit", "file", filename)
			return tmpl, nil
		}
	} else if !errors.Is(err, ErrNonExistent) {
		return nil, err
	}

	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading template %q: %w", filename, errors.Join(ErrFileOpen, err))
	}
	tmpl, err := Compile(content, fc.opts...)
	if err != nil {
		return nil, fmt.Errorf("compiling template %q: %w", filename, err)
	}

	if err := fc.store(filename, tmpl); err != nil {
		return nil, err
	}
	fc.modTimes[filename] = info.ModTime()
	logger().Debug("template cached", "file", filename, "nodes", tmpl.chain.Len())
	return tmpl, nil
}

// store inserts tmpl, evicting the oldest file when the cache is full.
func (fc *FileCache) store(filename string, tmpl *Template) error {
	key := []byte(filename)
	for {
		err := fc.cache.Insert(key, tmpl)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrNoSpace) || len(fc.order) == 0 {
			return fmt.Errorf("caching template %q: %w", filename, err)
		}
		oldest := fc.order[0]
		fc.order = fc.order[1:]
		delete(fc.modTimes, oldest)
		_ = fc.cache.Remove([]byte(oldest))
		logger().Debug("template evicted", "file", oldest)
	}
	for _, name := range fc.order {
		if name == filename {
			return nil
		}
	}
	fc.order = append(fc.order, filename)
	return nil
}

// Forget drops filename from the cache.
func (fc *FileCache) Forget(filename string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	_ = fc.cache.Remove([]byte(filename))
	delete(fc.modTimes, filename)
	for i, name := range fc.order {
		if name == filename {
			fc.order = append(fc.order[:i], fc.order[i+1:]...)
			break
		}
	}
}

// ClearCache clears the file cache
func (fc *FileCache) ClearCache() {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	for _, name := range fc.order {
		_ = fc.cache.Remove([]byte(name))
	}
	fc.order = nil
	fc.modTimes = make(map[string]time.Time)
}
