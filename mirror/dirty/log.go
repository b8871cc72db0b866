package dirty

import "sync"

// Log accumulates written ranges until a synchronization pass drains them.
//
// Safe for concurrent use. Entries are appended whole under the lock, so a
// concurrent Drain sees an entry either completely or not at all.
type Log struct {
	mu      sync.Mutex
	ranges  []Range // Unordered; consolidated at drain time by the caller
	maxSpan uint32  // Largest single entry
}

// NewLog creates an empty log whose entries are at most maxSpan bytes.
// A maxSpan of 0 selects DefaultMaxSpan.
func NewLog(maxSpan uint32) *Log {
	if maxSpan == 0 {
		maxSpan = DefaultMaxSpan
	}
	return &Log{
		ranges:  make([]Range, 0, defaultRangeCapacity),
		maxSpan: maxSpan,
	}
}

// Record appends the span [off, off+n) to the log.
//
// Spans longer than MaxSpan are split into adjacent pieces, preserving total
// coverage. Returns the number of entries appended; a zero-length span
// appends nothing.
func (l *Log) Record(off, n uint64) int {
	if n == 0 {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	pieces := 0
	for n > 0 {
		chunk := min(n, uint64(l.maxSpan))
		l.ranges = append(l.ranges, Range{Off: off, Len: uint32(chunk)})
		off += chunk
		n -= chunk
		pieces++
	}
	return pieces
}

// Drain removes and returns every entry. Returns nil when the log is empty.
func (l *Log) Drain() []Range {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.ranges) == 0 {
		return nil
	}
	out := l.ranges
	l.ranges = make([]Range, 0, defaultRangeCapacity)
	return out
}

// Len returns the number of entries currently in the log.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ranges)
}

// MaxSpan returns the largest entry the log will hold.
func (l *Log) MaxSpan() uint32 {
	return l.maxSpan
}
