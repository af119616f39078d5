package fastache

import "fmt"

// ----------------------------- Byte spans -----------------------------------

// Span is a half-open offset range [Start, End) into a source buffer.
type Span struct {
	Start int
	End   int
}

// NewSpan validates the range against limit.
func NewSpan(start, end, limit int) (Span, error) {
	if start < 0 || end < start || end > limit {
		return Span{}, fmt.Errorf("span [%d,%d) outside [0,%d): %w", start, end, limit, ErrArgs)
	}
	return Span{Start: start, End: end}, nil
}

func (s Span) Len() int    { return s.End - s.Start }
func (s Span) Empty() bool { return s.End <= s.Start }

// Contains reports whether off lies inside the span.
func (s Span) Contains(off int) bool { return off >= s.Start && off < s.End }

// Bytes returns the bytes of src covered by the span, clamped to src.
func (s Span) Bytes(src []byte) []byte {
	start, end := s.Start, s.End
	if start < 0 {
		start = 0
	}
	if end > len(src) {
		end = len(src)
	}
	if start >= end {
		return nil
	}
	return src[start:end]
}

func (s Span) String() string { return fmt.Sprintf("[%d,%d)", s.Start, s.End) }

// Equal reports exact byte-for-byte equality.
func Equal(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether b begins with prefix.
func HasPrefix(b, prefix []byte) bool {
	return len(b) >= len(prefix) && Equal(b[:len(prefix)], prefix)
}

func isBlank(c byte) bool { return c == ' ' || c == '\t' }

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

// trimSpan shrinks s past leading and trailing ASCII whitespace of src.
func trimSpan(src []byte, s Span) Span {
	for s.Start < s.End && isSpace(src[s.Start]) {
		s.Start++
	}
	for s.End > s.Start && isSpace(src[s.End-1]) {
		s.End--
	}
	return s
}
