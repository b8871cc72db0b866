// Package diff detects drift between the local and remote buffers by direct
// comparison, producing the same dirty.Range representation the write log
// consolidates to. It serves as the alternative detection strategy when no
// write log is trusted.
package diff

import (
	"fmt"

	"github.com/joshuapare/blockmirror/internal/buf"
	"github.com/joshuapare/blockmirror/mirror/dirty"
	"github.com/joshuapare/blockmirror/pkg/types"
)

// Diff is one differing region found by a scan.
type Diff struct {
	Start uint64 // First mismatching byte
	End   uint64 // Last mismatching byte inside the scan window (inclusive)

	// Truncated reports that the mismatch continues past the window, i.e.
	// the region is larger than the scanner's max span. The region is still
	// returned; the next scan resumes right after it.
	Truncated bool
}

// Range converts d into a synchronizable range.
func (d Diff) Range() dirty.Range {
	return dirty.Range{Off: d.Start, Len: uint32(d.End - d.Start + 1)}
}

// Scanner compares two equal-length buffers.
//
// NOT thread-safe with respect to writers of either buffer; callers hold the
// buffer lock for the duration of a scan.
type Scanner struct {
	local   []byte
	remote  []byte
	maxSpan uint32
}

// New creates a scanner over local and remote. A maxSpan of 0 selects
// dirty.DefaultMaxSpan.
func New(local, remote []byte, maxSpan uint32) (*Scanner, error) {
	if len(local) != len(remote) {
		return nil, fmt.Errorf("diff: buffer length mismatch %d != %d: %w", len(local), len(remote), types.ErrInvalidConfig)
	}
	if maxSpan == 0 {
		maxSpan = dirty.DefaultMaxSpan
	}
	return &Scanner{local: local, remote: remote, maxSpan: maxSpan}, nil
}

// Next finds the first difference at or after start.
//
// Returns false once no mismatch remains. Otherwise the returned Diff starts
// at the first mismatching byte and ends at the last mismatching byte within
// maxSpan bytes of it.
func (s *Scanner) Next(start uint64) (Diff, bool) {
	size := uint64(len(s.local))
	if start >= size {
		return Diff{}, false
	}

	i := buf.FirstMismatch(s.local[start:], s.remote[start:])
	if i < 0 {
		return Diff{}, false
	}
	first := start + uint64(i)

	windowEnd := min(first+uint64(s.maxSpan), size)
	j := buf.LastMismatch(s.local[first:windowEnd], s.remote[first:windowEnd])

	d := Diff{Start: first, End: first + uint64(j)}
	d.Truncated = d.End == windowEnd-1 && windowEnd < size && s.local[windowEnd] != s.remote[windowEnd]
	return d, true
}

// Ranges scans the whole buffer and returns every differing region in
// ascending order, plus the number of regions that hit the max span.
func (s *Scanner) Ranges() ([]dirty.Range, int) {
	var (
		out       []dirty.Range
		truncated int
	)
	for start := uint64(0); ; {
		d, ok := s.Next(start)
		if !ok {
			break
		}
		out = append(out, d.Range())
		if d.Truncated {
			truncated++
		}
		start = d.End + 1
	}
	return out, truncated
}
