package fastache

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func newJob(params *Param) Job {
	return Job{
		Source: make([]byte, 256),
		Output: make([]byte, 256),
		Alloc:  NewSlab(32),
		Stack:  NewScopeStack(4),
		Params: params,
	}
}

func TestRenderStream(t *testing.T) {
	r := bytes.NewReader([]byte("{{#items}}{{.}} {{/items}}done"))
	var got string
	err := RenderStream(r, newJob(Root(List("items", String("", "a"), String("", "b")))), func(out []byte) {
		got = string(out)
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != "a b done" {
		t.Errorf("expected %q, got %q", "a b done", got)
	}
}

func TestRenderStreamFromOffset(t *testing.T) {
	r := bytes.NewReader([]byte("skip|{{x}}"))
	if _, err := r.Seek(5, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	var got string
	if err := RenderStream(r, newJob(Root(String("x", "tail"))), func(out []byte) { got = string(out) }); err != nil {
		t.Fatal(err)
	}
	if got != "tail" {
		t.Errorf("expected %q, got %q", "tail", got)
	}
}

func TestRenderStreamDefaults(t *testing.T) {
	job := Job{Source: make([]byte, 64), Output: make([]byte, 64), Params: Root(String("x", "y"))}
	var got string
	if err := RenderStream(bytes.NewReader([]byte("{{x}}")), job, func(out []byte) { got = string(out) }); err != nil {
		t.Fatal(err)
	}
	if got != "y" {
		t.Errorf("expected %q, got %q", "y", got)
	}
}

func TestRenderStreamErrors(t *testing.T) {
	job := newJob(Root())
	job.Source = make([]byte, 4)
	if err := RenderStream(bytes.NewReader([]byte("too long")), job, nil); !errors.Is(err, ErrNoSpace) {
		t.Errorf("small source: expected ErrNoSpace, got %v", err)
	}

	job = newJob(Root())
	job.Output = make([]byte, 3)
	if err := RenderStream(bytes.NewReader([]byte("output")), job, nil); !errors.Is(err, ErrNoSpace) {
		t.Errorf("small output: expected ErrNoSpace, got %v", err)
	}

	if err := RenderStream(bytes.NewReader([]byte("{{#x}}")), newJob(Root()), nil); !errors.Is(err, ErrInvalidTemplate) {
		t.Errorf("expected ErrInvalidTemplate, got %v", err)
	}

	if err := RenderStream(nil, newJob(Root()), nil); !errors.Is(err, ErrArgs) {
		t.Errorf("nil reader: expected ErrArgs, got %v", err)
	}

	if err := RenderStream(shortReader{bytes.NewReader([]byte("abcdef"))}, newJob(Root()), nil); !errors.Is(err, ErrIncomplete) {
		t.Errorf("short read: expected ErrIncomplete, got %v", err)
	}
}

// shortReader reports the full length on Seek but yields only two bytes.
type shortReader struct{ *bytes.Reader }

func (s shortReader) Read(p []byte) (int, error) {
	if s.Reader.Len() < 4 {
		return 0, io.EOF
	}
	return s.Reader.Read(p[:min(len(p), 2)])
}

func TestRenderFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.mustache")
	if err := os.WriteFile(path, []byte("Hello {{name}}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var got string
	if err := RenderFile(path, newJob(Root(String("name", "file"))), func(out []byte) { got = string(out) }); err != nil {
		t.Fatal(err)
	}
	if got != "Hello file\n" {
		t.Errorf("expected %q, got %q", "Hello file\n", got)
	}

	if err := RenderFile(filepath.Join(t.TempDir(), "missing"), newJob(Root()), nil); !errors.Is(err, ErrFileOpen) {
		t.Errorf("expected ErrFileOpen, got %v", err)
	}
}
