package dirty

import "fmt"

const (
	// DefaultMaxSpan caps a single Range. Oversized writes are split into
	// adjacent pieces of at most this many bytes.
	DefaultMaxSpan uint32 = 1 << 20

	// DefaultMergeThreshold is the default proximity (in bytes) below which
	// two nearby ranges are copied as one.
	DefaultMergeThreshold uint64 = 4096

	// defaultRangeCapacity is the pre-allocated capacity for the log.
	// This reduces allocations during typical workloads.
	defaultRangeCapacity = 64
)

// Range represents a span of bytes that may differ between local and remote.
type Range struct {
	Off uint64 // Absolute offset in the device
	Len uint32 // Length in bytes, always > 0
}

// End returns the exclusive end offset.
func (r Range) End() uint64 {
	return r.Off + uint64(r.Len)
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Off, r.End())
}

// Total returns the number of bytes covered by ranges, counting overlaps
// once per range.
func Total(ranges []Range) uint64 {
	var n uint64
	for _, r := range ranges {
		n += uint64(r.Len)
	}
	return n
}
