package dirty

// Recorder is the minimal interface for noting modified byte ranges.
//
// This interface is intended for components that only need to report writes
// but don't decide when they are replicated (e.g., the engine's write path).
type Recorder interface {
	// Record marks n bytes starting at off as modified and returns the
	// number of ranges the span was split into.
	Record(off, n uint64) int
}

// Drainer extends Recorder with atomic removal of everything recorded so far.
// This interface is intended for components that control replication passes.
type Drainer interface {
	Recorder

	// Drain returns all recorded ranges and leaves the log empty.
	Drain() []Range

	// Len returns the number of entries waiting to be drained.
	Len() int
}

var _ Drainer = (*Log)(nil)
