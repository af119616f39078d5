package fastache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTemplateCache(t *testing.T) {
	c := NewTemplateCache(2)
	a, b := MustCompile("a"), MustCompile("b")

	if _, err := c.Lookup([]byte("missing")); !errors.Is(err, ErrNonExistent) {
		t.Fatalf("expected ErrNonExistent, got %v", err)
	}
	key := []byte("page")
	if err := c.Insert(key, a); err != nil {
		t.Fatal(err)
	}
	key[0] = 'x' // the cache keeps its own copy
	if got, err := c.Lookup([]byte("page")); err != nil || got != a {
		t.Fatalf("lookup page: %v %v", got, err)
	}
	// same bucket, different key
	if err := c.Insert([]byte("pages"), b); err != nil {
		t.Fatal(err)
	}
	if err := c.Insert([]byte("third"), a); !errors.Is(err, ErrNoSpace) {
		t.Fatalf("expected ErrNoSpace, got %v", err)
	}
	// replacing an existing key never needs room
	if err := c.Insert([]byte("page"), b); err != nil {
		t.Fatal(err)
	}
	if got, _ := c.Lookup([]byte("page")); got != b {
		t.Error("replace did not take effect")
	}
	if c.Len() != 2 || c.Cap() != 2 {
		t.Errorf("len %d cap %d", c.Len(), c.Cap())
	}

	if err := c.Remove([]byte("page")); err != nil {
		t.Fatal(err)
	}
	if got, err := c.Lookup([]byte("pages")); err != nil || got != b {
		t.Errorf("bucket neighbour lost after remove: %v %v", got, err)
	}
	if err := c.Remove([]byte("page")); !errors.Is(err, ErrNonExistent) {
		t.Errorf("expected ErrNonExistent, got %v", err)
	}
	for _, err := range []error{
		c.Insert(nil, a),
		c.Remove(nil),
		func() error { _, err := c.Lookup(nil); return err }(),
	} {
		if !errors.Is(err, ErrArgs) {
			t.Errorf("empty key: expected ErrArgs, got %v", err)
		}
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d", c.Len())
	}
}

func writeTemplate(t *testing.T, path, content string, mod time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatal(err)
	}
}

func TestFileCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.mustache")
	base := time.Now().Add(-time.Hour)
	writeTemplate(t, path, "v1 {{x}}", base)

	fc := NewFileCache(NewTemplateCache(4))
	first, err := fc.CompileFile(path)
	if err != nil {
		t.Fatal(err)
	}
	again, err := fc.CompileFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if first != again {
		t.Error("unchanged file was recompiled")
	}

	writeTemplate(t, path, "v2 {{x}}", base.Add(time.Minute))
	updated, err := fc.CompileFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if updated == first {
		t.Fatal("modified file was not recompiled")
	}
	got, err := updated.RenderString(Root(String("x", "!")))
	if err != nil {
		t.Fatal(err)
	}
	if got != "v2 !" {
		t.Errorf("expected %q, got %q", "v2 !", got)
	}

	fc.Forget(path)
	if fresh, err := fc.CompileFile(path); err != nil || fresh == updated {
		t.Errorf("forget did not drop the entry: %v", err)
	}

	if _, err := fc.CompileFile(filepath.Join(dir, "missing.mustache")); !errors.Is(err, ErrFileOpen) {
		t.Errorf("expected ErrFileOpen, got %v", err)
	}

	writeTemplate(t, filepath.Join(dir, "bad.mustache"), "{{#open}}", base)
	if _, err := fc.CompileFile(filepath.Join(dir, "bad.mustache")); !errors.Is(err, ErrInvalidTemplate) {
		t.Errorf("expected ErrInvalidTemplate, got %v", err)
	}
}

func TestFileCacheEviction(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	var paths []string
	for _, name := range []string{"a.tpl", "b.tpl", "c.tpl"} {
		p := filepath.Join(dir, name)
		writeTemplate(t, p, name, base)
		paths = append(paths, p)
	}

	cache := NewTemplateCache(2)
	fc := NewFileCache(cache)
	for _, p := range paths {
		if _, err := fc.CompileFile(p); err != nil {
			t.Fatal(err)
		}
	}
	if cache.Len() != 2 {
		t.Fatalf("expected 2 cached templates, got %d", cache.Len())
	}
	if _, err := cache.Lookup([]byte(paths[0])); !errors.Is(err, ErrNonExistent) {
		t.Errorf("oldest file should have been evicted, got %v", err)
	}

	fc.ClearCache()
	if cache.Len() != 0 {
		t.Errorf("expected empty cache after ClearCache, got %d", cache.Len())
	}
}

func TestPackageCompileFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello.html")
	writeTemplate(t, path, "Hello {{name}}", time.Now())
	tpl, err := CompileFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got, err := tpl.RenderString(Root(String("name", "file")))
	if err != nil {
		t.Fatal(err)
	}
	if got != "Hello file" {
		t.Errorf("expected %q, got %q", "Hello file", got)
	}
}
