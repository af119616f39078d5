package fastache

import (
	"fmt"
	"io"
	"sync"
)

// ----------------------------- Buffer pools ---------------------------------

var outputPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0)
		return &b
	},
}

// getOutput returns a buffer of exactly size bytes, reusing pooled storage
// when it is large enough.
func getOutput(size int) *[]byte {
	bp := outputPool.Get().(*[]byte)
	if cap(*bp) < size {
		*bp = make([]byte, size)
	}
	*bp = (*bp)[:size]
	return bp
}

func putOutput(bp *[]byte) {
	outputPool.Put(bp)
}

// WarmupPool pre-allocates output buffers of the given size.
func WarmupPool(size, count int) {
	bufs := make([]*[]byte, count)
	for i := range bufs {
		bufs[i] = getOutput(size)
	}
	for _, b := range bufs {
		putOutput(b)
	}
}

// ----------------------------- Template pools for hot paths ---------------

// TemplatePool holds independent copies of one template so renders from
// several goroutines do not wait on each other. Every copy gets its own slab,
// so WithAllocator is rejected.
type TemplatePool struct {
	pool sync.Pool
}

func NewTemplatePool(src []byte, opts ...Option) (*TemplatePool, error) {
	co := defaultCompileOptions()
	for _, o := range opts {
		o(&co)
	}
	if co.alloc != nil {
		return nil, fmt.Errorf("template pool: shared allocator: %w", ErrArgs)
	}
	src = append([]byte(nil), src...)
	// compile once up front so a bad source fails here, not in New
	first, err := Compile(src, opts...)
	if err != nil {
		return nil, err
	}
	tp := &TemplatePool{}
	tp.pool.New = func() any {
		t, err := Compile(src, opts...)
		if err != nil {
			return err
		}
		return t
	}
	tp.pool.Put(first)
	return tp, nil
}

func (tp *TemplatePool) get() (*Template, error) {
	switch v := tp.pool.Get().(type) {
	case *Template:
		return v, nil
	case error:
		return nil, v
	}
	return nil, fmt.Errorf("template pool: empty: %w", ErrArgs)
}

func (tp *TemplatePool) Render(w io.Writer, params *Param) error {
	tmpl, err := tp.get()
	if err != nil {
		return err
	}
	defer tp.pool.Put(tmpl)
	return tmpl.Render(w, params)
}

func (tp *TemplatePool) RenderString(params *Param) (string, error) {
	tmpl, err := tp.get()
	if err != nil {
		return "", err
	}
	defer tp.pool.Put(tmpl)
	return tmpl.RenderString(params)
}
