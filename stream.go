package fastache

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ----------------------------- Streams and files ----------------------------

// RenderFunc receives the rendered output. The slice is only valid for the
// duration of the call.
type RenderFunc func(out []byte)

// Job bundles the caller-owned buffers for a stream or file render.
type Job struct {
	// Source receives the template bytes; it must fit the whole stream.
	Source []byte
	// Output receives the rendered bytes.
	Output []byte
	// Alloc supplies structure nodes; a slab of DefaultConfig().MaxNodes
	// is used when nil.
	Alloc Allocator
	// Stack bounds section nesting; DefaultConfig().ScopeDepth when nil.
	Stack  *ScopeStack
	Params *Param
}

// RenderStream reads the whole of r into job.Source, parses it, evaluates it
// into job.Output and hands the result to done. The stream length is taken
// from r.Seek(0, io.SeekEnd) before reading.
func RenderStream(r io.ReadSeeker, job Job, done RenderFunc) error {
	if r == nil {
		return fmt.Errorf("render stream: nil reader: %w", ErrArgs)
	}
	cur, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("render stream: %w", errors.Join(ErrStream, err))
	}
	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("render stream: %w", errors.Join(ErrStream, err))
	}
	if _, err := r.Seek(cur, io.SeekStart); err != nil {
		return fmt.Errorf("render stream: %w", errors.Join(ErrStream, err))
	}
	size := end - cur
	if size > int64(len(job.Source)) {
		return fmt.Errorf("render stream: %d byte template, %d byte buffer: %w", size, len(job.Source), ErrNoSpace)
	}
	src := job.Source[:size]
	if _, err := io.ReadFull(r, src); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return fmt.Errorf("render stream: %w", errors.Join(ErrIncomplete, err))
		}
		return fmt.Errorf("render stream: %w", errors.Join(ErrStream, err))
	}
	return renderSource(src, job, done)
}

// RenderFile opens filename and renders it like RenderStream.
func RenderFile(filename string, job Job, done RenderFunc) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("template file %q: %w", filename, errors.Join(ErrFileOpen, err))
	}
	defer f.Close()
	if err := RenderStream(f, job, done); err != nil {
		return fmt.Errorf("template file %q: %w", filename, err)
	}
	return nil
}

func renderSource(src []byte, job Job, done RenderFunc) error {
	cfg := DefaultConfig()
	alloc := job.Alloc
	if alloc == nil {
		alloc = NewSlab(cfg.MaxNodes)
	}
	stack := job.Stack
	if stack == nil {
		stack = NewScopeStack(cfg.ScopeDepth)
	}
	chain, err := Parse(src, alloc)
	if err != nil {
		return err
	}
	defer chain.Free(alloc)

	n, err := Evaluate(chain, src, job.Output, job.Params, stack)
	if err != nil {
		return err
	}
	if done != nil {
		done(job.Output[:n])
	}
	return nil
}
