package fastache

import (
	"errors"
	"fmt"
)

// Result codes. Callers match them with errors.Is; positional failures arrive
// wrapped in a *TemplateError.
var (
	ErrAlloc           = errors.New("fastache: node allocator exhausted")
	ErrInvalidTemplate = errors.New("fastache: invalid template")
	ErrNoSpace         = errors.New("fastache: no space left in buffer")
	ErrOverflow        = errors.New("fastache: scope stack overflow")
	ErrUnderflow       = errors.New("fastache: scope stack underflow")
	ErrNonExistent     = errors.New("fastache: no such entry")
	ErrFileOpen        = errors.New("fastache: cannot open file")
	ErrIncomplete      = errors.New("fastache: incomplete input")
	ErrStream          = errors.New("fastache: stream error")
	ErrArgs            = errors.New("fastache: invalid arguments")
	ErrInvalidJSON     = errors.New("fastache: invalid JSON")
	ErrCycle           = fmt.Errorf("parameter cycle: %w", ErrArgs)
)

// TemplateError describes a structural problem at a position in the source.
type TemplateError struct {
	Offset  int
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *TemplateError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("template error at line %d, column %d: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("template error at offset %d: %s", e.Offset, e.Message)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// newTemplateError computes line and column (1-based) of off within src.
func newTemplateError(src []byte, off int, msg string) error {
	line, col := 1, 1
	for i := 0; i < off && i < len(src); i++ {
		if src[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return &TemplateError{
		Offset:  off,
		Line:    line,
		Column:  col,
		Message: msg,
		Err:     ErrInvalidTemplate,
	}
}
