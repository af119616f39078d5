package fastache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestConfigFromEnvironment(t *testing.T) {
	t.Setenv("FASTACHE_MAX_NODES", "128")
	t.Setenv("FASTACHE_SCOPE_DEPTH", "not a number")
	t.Setenv("FASTACHE_LOG_LEVEL", "DEBUG")
	t.Setenv("FASTACHE_SANITIZE", "strict")
	t.Setenv("FASTACHE_EXTENSIONS", ".mustache, .txt,")

	cfg := ConfigFromEnvironment()
	want := DefaultConfig()
	want.MaxNodes = 128
	want.LogLevel = "debug"
	want.Sanitize = "strict"
	want.Extensions = []string{".mustache", ".txt"}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("FASTACHE_OUTPUT_SIZE", "2048")
	path := filepath.Join(t.TempDir(), "fastache.yaml")
	content := `max_nodes: 512
scope_depth: 8
log_level: warn
extensions: [".html"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	want := DefaultConfig()
	want.MaxNodes = 512
	want.ScopeDepth = 8
	want.OutputSize = 2048
	want.LogLevel = "warn"
	want.Extensions = []string{".html"}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, ErrFileOpen) {
		t.Errorf("expected ErrFileOpen, got %v", err)
	}

	dir := t.TempDir()
	for name, content := range map[string]string{
		"bad-yaml.yaml":  "max_nodes: [",
		"zero.yaml":      "max_nodes: 0",
		"level.yaml":     "log_level: loud",
		"sanitize.yaml":  "sanitize: everything",
		"negative.yaml":  "cache_entries: -1",
		"no-output.yaml": "output_size: 0",
	} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
