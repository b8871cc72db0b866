package syncer

import (
	"sync/atomic"
	"time"
)

// Report describes one synchronization pass.
type Report struct {
	Strategy   Strategy
	Ranges     int           // Ranges applied
	Bytes      uint64        // Bytes copied local -> remote
	Truncated  int           // Scan windows that hit the max span (diff-scan only)
	Consistent bool          // Full-buffer comparison succeeded
	Mismatch   uint64        // First differing offset when !Consistent
	Duration   time.Duration // Wall time spent holding the buffer lock
}

// Stats are cumulative counters since the engine was created.
type Stats struct {
	Passes         uint64
	Ranges         uint64
	BytesCopied    uint64
	Faults         uint64
	Truncated      uint64
	Reads          uint64
	Writes         uint64
	RejectedReads  uint64
	RejectedWrites uint64
	SplitWrites    uint64
}

type counters struct {
	passes         atomic.Uint64
	ranges         atomic.Uint64
	bytesCopied    atomic.Uint64
	faults         atomic.Uint64
	truncated      atomic.Uint64
	reads          atomic.Uint64
	writes         atomic.Uint64
	rejectedReads  atomic.Uint64
	rejectedWrites atomic.Uint64
	splitWrites    atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Passes:         c.passes.Load(),
		Ranges:         c.ranges.Load(),
		BytesCopied:    c.bytesCopied.Load(),
		Faults:         c.faults.Load(),
		Truncated:      c.truncated.Load(),
		Reads:          c.reads.Load(),
		Writes:         c.writes.Load(),
		RejectedReads:  c.rejectedReads.Load(),
		RejectedWrites: c.rejectedWrites.Load(),
		SplitWrites:    c.splitWrites.Load(),
	}
}
