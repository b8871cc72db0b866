// Package dirty provides byte-range write tracking for a mirrored device.
//
// # Overview
//
// Every accepted write to the local buffer is recorded as a Range. Before a
// synchronization pass the log is drained and the ranges are consolidated
// into the smallest ascending set of non-overlapping spans, so the pass
// issues as few copies as possible.
//
// # Log
//
// The Log is the write-operation log:
//
//   - Record(off, n): Append a span, split into pieces of at most MaxSpan bytes
//   - Drain(): Atomically take every entry, leaving the log empty
//   - Len(): Current number of entries
//
// # Usage
//
//	log := dirty.NewLog(dirty.DefaultMaxSpan)
//	log.Record(0, 100)
//	log.Record(90, 50)
//
//	ranges := dirty.Consolidate(log.Drain(), dirty.DefaultMergeThreshold, log.MaxSpan())
//	// ranges == [{Off: 0, Len: 140}]
//
// # Range Coalescing
//
// Consolidate sorts by offset and sweeps once. The next range joins the
// current one when they overlap or touch, or when the gap between them is
// strictly smaller than the merge threshold:
//
//	threshold 16: [0,10) [20,25)  -> gap 10 < 16   -> [0,25)
//	threshold 10: [0,10) [20,25)  -> gap 10 == 10  -> [0,10) [20,25)
//
// A larger threshold trades extra copied bytes for fewer copy operations.
// A threshold of 0 only joins overlapping or touching ranges, in which case
// the output covers exactly the bytes of the input.
//
// # Thread Safety
//
// Log is safe for concurrent use. Consolidate is a pure function.
//
// # Related Packages
//
//   - github.com/joshuapare/blockmirror/mirror/syncer: Drains the log on every pass
//   - github.com/joshuapare/blockmirror/mirror/diff: Produces the same Range type from a buffer scan
package dirty
