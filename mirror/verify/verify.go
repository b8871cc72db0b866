// Package verify checks that the remote buffer matches the local buffer.
// The sync engine runs Buffers after every pass; Ranges narrows a fault down
// to whether the ranges that were just applied are themselves consistent.
package verify

import (
	"bytes"
	"fmt"

	"github.com/joshuapare/blockmirror/internal/buf"
	"github.com/joshuapare/blockmirror/mirror/dirty"
)

// MismatchError reports where two buffers differ.
type MismatchError struct {
	First uint64 // Offset of the first differing byte
	Last  uint64 // Offset of the last differing byte
	Size  uint64 // Length of the compared buffers
}

func (e *MismatchError) Error() string {
	if e.First == e.Last {
		return fmt.Sprintf("buffers differ at offset 0x%X (size %d)", e.First, e.Size)
	}
	return fmt.Sprintf("buffers differ between offsets 0x%X and 0x%X (size %d)", e.First, e.Last, e.Size)
}

// Buffers returns nil when local and remote are identical, a *MismatchError
// when they differ, or a plain error when their lengths differ.
func Buffers(local, remote []byte) error {
	if len(local) != len(remote) {
		return fmt.Errorf("verify: length mismatch %d != %d", len(local), len(remote))
	}
	if bytes.Equal(local, remote) {
		return nil
	}
	return &MismatchError{
		First: uint64(buf.FirstMismatch(local, remote)),
		Last:  uint64(buf.LastMismatch(local, remote)),
		Size:  uint64(len(local)),
	}
}

// Ranges checks only the bytes covered by ranges. Returns the first
// inconsistency as a *MismatchError with offsets relative to the buffer.
func Ranges(local, remote []byte, ranges []dirty.Range) error {
	size := uint64(len(local))
	if uint64(len(remote)) != size {
		return fmt.Errorf("verify: length mismatch %d != %d", len(local), len(remote))
	}
	for _, r := range ranges {
		end, ok := buf.SpanEnd(size, r.Off, uint64(r.Len))
		if !ok {
			return fmt.Errorf("verify: range %s outside buffer of %d bytes", r, size)
		}
		a, b := local[r.Off:end], remote[r.Off:end]
		if bytes.Equal(a, b) {
			continue
		}
		return &MismatchError{
			First: r.Off + uint64(buf.FirstMismatch(a, b)),
			Last:  r.Off + uint64(buf.LastMismatch(a, b)),
			Size:  size,
		}
	}
	return nil
}
