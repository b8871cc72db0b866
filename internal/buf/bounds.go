package buf

import (
	"fmt"
)

// SpanEnd returns off+n when the span [off, off+n) fits inside a buffer of
// size bytes. The check is written so that off+n is never computed when it
// could overflow.
func SpanEnd(size, off, n uint64) (uint64, bool) {
	if off > size || n > size-off {
		return 0, false
	}
	return off + n, true
}

// Fits reports whether [off, off+n) lies within a buffer of size bytes.
func Fits(size, off, n uint64) bool {
	_, ok := SpanEnd(size, off, n)
	return ok
}

// CheckSpan validates that n bytes starting at off fit in a buffer of size
// bytes. Returns an error describing the violated bound.
//
//	if err := buf.CheckSpan(uint64(len(data)), off, uint64(len(p))); err != nil {
//	    return fmt.Errorf("write: %w", err)
//	}
func CheckSpan(size, off, n uint64) error {
	if off > size {
		return fmt.Errorf("bounds: off=%d > size=%d", off, size)
	}
	if n > size-off {
		return fmt.Errorf("bounds: off=%d + len=%d > size=%d", off, n, size)
	}
	return nil
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
func Slice(b []byte, off, n uint64) ([]byte, bool) {
	end, ok := SpanEnd(uint64(len(b)), off, n)
	if !ok {
		return nil, false
	}
	return b[off:end], true
}

// Has reports whether b[off:off+n] is within bounds.
func Has(b []byte, off, n uint64) bool {
	_, ok := Slice(b, off, n)
	return ok
}
