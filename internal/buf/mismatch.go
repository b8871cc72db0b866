// Package buf contains bounds and comparison helpers for the mirrored buffers.
package buf

import "bytes"

// compareBlock is the stride used to skip equal regions with bytes.Equal
// before falling back to a byte loop.
const compareBlock = 4096

// FirstMismatch returns the index of the first byte where a and b differ,
// or -1 when their common prefix is identical.
func FirstMismatch(a, b []byte) int {
	n := min(len(a), len(b))
	for base := 0; base < n; base += compareBlock {
		end := min(base+compareBlock, n)
		if bytes.Equal(a[base:end], b[base:end]) {
			continue
		}
		for i := base; i < end; i++ {
			if a[i] != b[i] {
				return i
			}
		}
	}
	return -1
}

// LastMismatch returns the index of the last byte where a and b differ,
// or -1 when their common prefix is identical.
func LastMismatch(a, b []byte) int {
	n := min(len(a), len(b))
	for end := n; end > 0; {
		base := max(end-compareBlock, 0)
		if !bytes.Equal(a[base:end], b[base:end]) {
			for i := end - 1; i >= base; i-- {
				if a[i] != b[i] {
					return i
				}
			}
		}
		end = base
	}
	return -1
}
