package fastache

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// ----------------------------- Public API -----------------------------------

// Template is a parsed source with its structure chain. The chain carries
// per-pass section state, so evaluations of one Template are serialized.
type Template struct {
	mu    sync.Mutex
	src   []byte
	chain *Chain
	alloc Allocator
	stack *ScopeStack
	opts  compileOptions
}

type Option func(*compileOptions)

type compileOptions struct {
	maxNodes   int
	scopeDepth int
	outputSize int
	alloc      Allocator
	sanitizer  Sanitizer
}

func defaultCompileOptions() compileOptions {
	cfg := DefaultConfig()
	return compileOptions{
		maxNodes:   cfg.MaxNodes,
		scopeDepth: cfg.ScopeDepth,
		outputSize: cfg.OutputSize,
	}
}

// WithMaxNodes bounds the structure nodes a template may use.
func WithMaxNodes(n int) Option { return func(co *compileOptions) { co.maxNodes = n } }

// WithScopeDepth bounds section nesting during evaluation.
func WithScopeDepth(n int) Option { return func(co *compileOptions) { co.scopeDepth = n } }

// WithOutputSize sets the buffer size used by Render and RenderString.
func WithOutputSize(n int) Option { return func(co *compileOptions) { co.outputSize = n } }

// WithAllocator overrides the slab sized by WithMaxNodes.
func WithAllocator(a Allocator) Option { return func(co *compileOptions) { co.alloc = a } }

// WithSanitizer filters string values before they are written.
func WithSanitizer(s Sanitizer) Option { return func(co *compileOptions) { co.sanitizer = s } }

// WithConfig applies the sizing and sanitizing settings of cfg.
func WithConfig(cfg *Config) Option {
	return func(co *compileOptions) {
		if cfg == nil {
			return
		}
		co.maxNodes = cfg.MaxNodes
		co.scopeDepth = cfg.ScopeDepth
		co.outputSize = cfg.OutputSize
		if san := SanitizerFor(cfg.Sanitize); san != nil {
			co.sanitizer = san
		}
	}
}

// Compile copies src and parses it into a reusable Template.
func Compile(src []byte, opts ...Option) (*Template, error) {
	co := defaultCompileOptions()
	for _, o := range opts {
		o(&co)
	}
	alloc := co.alloc
	if alloc == nil {
		alloc = NewSlab(co.maxNodes)
	}
	own := append([]byte(nil), src...)
	chain, err := Parse(own, alloc)
	if err != nil {
		return nil, err
	}
	logger().Debug("template compiled", "bytes", len(own), "nodes", chain.Len())
	return &Template{
		src:   own,
		chain: chain,
		alloc: alloc,
		stack: NewScopeStack(co.scopeDepth),
		opts:  co,
	}, nil
}

// CompileString is Compile for string sources.
func CompileString(src string, opts ...Option) (*Template, error) {
	return Compile([]byte(src), opts...)
}

// MustCompile panics if src does not parse.
func MustCompile(src string, opts ...Option) *Template {
	t, err := CompileString(src, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Template) Source() []byte { return t.src }

func (t *Template) Chain() *Chain {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.chain
}

// Names lists the names referenced by the template's tags, or nil once the
// template is closed.
func (t *Template) Names() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.chain == nil {
		return nil
	}
	return t.chain.Names(t.src)
}

// Flush resets section state; needed after mutating params in place.
func (t *Template) Flush() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.chain != nil {
		t.chain.Flush()
	}
}

// Execute evaluates the template into out and returns the bytes written.
func (t *Template) Execute(out []byte, params *Param) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return evaluate(t.chain, t.src, out, params, t.stack, t.opts.sanitizer)
}

// Render evaluates into a pooled buffer of the configured output size and
// copies the result to w.
func (t *Template) Render(w io.Writer, params *Param) error {
	buf := getOutput(t.opts.outputSize)
	defer putOutput(buf)

	n, err := t.Execute(*buf, params)
	if err != nil {
		if errors.Is(err, ErrNoSpace) {
			return fmt.Errorf("render needs more than %d bytes: %w", len(*buf), err)
		}
		return err
	}
	_, err = w.Write((*buf)[:n])
	return err
}

// RenderBytes returns a copy of the rendered output.
func (t *Template) RenderBytes(params *Param) ([]byte, error) {
	buf := getOutput(t.opts.outputSize)
	defer putOutput(buf)

	n, err := t.Execute(*buf, params)
	if err != nil {
		return nil, err
	}
	result := make([]byte, n)
	copy(result, (*buf)[:n])
	return result, nil
}

// RenderString renders into a pooled buffer and returns a string.
func (t *Template) RenderString(params *Param) (string, error) {
	b, err := t.RenderBytes(params)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// RenderToDiscard renders template to io.Discard for benchmarking
func (t *Template) RenderToDiscard(params *Param) error {
	return t.Render(io.Discard, params)
}

// Close releases the structure chain to its allocator.
func (t *Template) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.chain != nil {
		t.chain.Free(t.alloc)
		t.chain = nil
	}
}
