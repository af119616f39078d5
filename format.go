package fastache

import (
	"fmt"
	"math"
	"strconv"
)

// ----------------------------- Number and boolean text ----------------------

// maxNumberLen bounds the text of any float64 at the largest decimals value.
const maxNumberLen = 1 + 309 + 1 + 255

// FormatNumber writes v with the given number of fractional digits into dst,
// optionally trimming trailing fractional zeros, and returns the bytes
// written. Output that does not fit is truncated.
func FormatNumber(dst []byte, v float64, decimals uint8, trim bool) int {
	w := boundedWriter{dst: dst}
	switch {
	case math.IsNaN(v):
		w.putString("nan")
		return w.n
	case math.IsInf(v, 1):
		w.putString("inf")
		return w.n
	case math.IsInf(v, -1):
		w.putString("-inf")
		return w.n
	}

	if v < 0 {
		w.putByte('-')
		v = -v
	}
	// Half-unit bias so digit extraction rounds instead of truncating.
	v += 0.5 * math.Pow(10, -float64(decimals))

	intPart := math.Floor(v)
	frac := v - intPart

	digits := 1
	if intPart >= 10 {
		digits = int(math.Floor(math.Log10(intPart))) + 1
		// Log10 can land one short right at a power of ten.
		if math.Pow(10, float64(digits)) <= intPart {
			digits++
		} else if math.Pow(10, float64(digits-1)) > intPart {
			digits--
		}
	}
	var intBuf [310]byte
	if digits > len(intBuf) {
		digits = len(intBuf)
	}
	rest := intPart
	for i := digits - 1; i >= 0; i-- {
		d := math.Mod(rest, 10)
		intBuf[i] = '0' + byte(d)
		rest = math.Floor(rest / 10)
	}
	w.putBytes(intBuf[:digits])

	if decimals == 0 {
		return w.n
	}
	var fracBuf [255]byte
	for i := 0; i < int(decimals); i++ {
		frac *= 10
		d := math.Floor(frac)
		if d > 9 {
			d = 9
		}
		fracBuf[i] = '0' + byte(d)
		frac -= d
	}
	n := int(decimals)
	if trim {
		for n > 0 && fracBuf[n-1] == '0' {
			n--
		}
	}
	if n == 0 {
		return w.n
	}
	w.putByte('.')
	w.putBytes(fracBuf[:n])
	return w.n
}

// AppendNumber appends the FormatNumber text of v to dst.
func AppendNumber(dst []byte, v float64, decimals uint8, trim bool) []byte {
	var buf [maxNumberLen]byte
	n := FormatNumber(buf[:], v, decimals, trim)
	return append(dst, buf[:n]...)
}

// FormatBool writes "true" or "false" into dst, truncating if needed.
func FormatBool(dst []byte, v bool) int {
	w := boundedWriter{dst: dst}
	if v {
		w.putString("true")
	} else {
		w.putString("false")
	}
	return w.n
}

func AppendBool(dst []byte, v bool) []byte {
	if v {
		return append(dst, "true"...)
	}
	return append(dst, "false"...)
}

// ParseNumber reads an optionally signed decimal literal with an optional
// fraction and exponent. It also reports how many fractional digits the
// literal carried, capped at 255.
func ParseNumber(b []byte) (float64, uint8, error) {
	i := 0
	if i < len(b) && (b[i] == '-' || b[i] == '+') {
		i++
	}
	start := i
	for i < len(b) && isDigit(b[i]) {
		i++
	}
	intDigits := i - start
	decimals := 0
	if i < len(b) && b[i] == '.' {
		i++
		for i < len(b) && isDigit(b[i]) {
			decimals++
			i++
		}
	}
	if intDigits == 0 && decimals == 0 {
		return 0, 0, fmt.Errorf("number %q: %w", b, ErrArgs)
	}
	if i < len(b) && (b[i] == 'e' || b[i] == 'E') {
		i++
		if i < len(b) && (b[i] == '-' || b[i] == '+') {
			i++
		}
		expStart := i
		for i < len(b) && isDigit(b[i]) {
			i++
		}
		if i == expStart {
			return 0, 0, fmt.Errorf("number %q: missing exponent: %w", b, ErrArgs)
		}
	}
	if i != len(b) {
		return 0, 0, fmt.Errorf("number %q: trailing bytes: %w", b, ErrArgs)
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("number %q: %w", b, ErrArgs)
	}
	if decimals > math.MaxUint8 {
		decimals = math.MaxUint8
	}
	return v, uint8(decimals), nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// boundedWriter copies into a fixed slice and silently drops what overflows.
type boundedWriter struct {
	dst []byte
	n   int
}

func (w *boundedWriter) putByte(c byte) {
	if w.n < len(w.dst) {
		w.dst[w.n] = c
		w.n++
	}
}

func (w *boundedWriter) putBytes(b []byte) {
	w.n += copy(w.dst[w.n:], b)
}

func (w *boundedWriter) putString(s string) {
	w.n += copy(w.dst[w.n:], s)
}
