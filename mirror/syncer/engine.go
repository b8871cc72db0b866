// Package syncer implements the synchronization engine of a mirrored device.
//
// The engine owns the buffer pair and the write log. Writes land in the local
// buffer and are recorded; a synchronization pass turns the pending work into
// ranges, copies them into the remote buffer, and verifies that both buffers
// are identical.
//
// Pass Protocol:
//  1. Take the buffer lock (writers and other passes wait)
//  2. Produce ranges: drain + consolidate the log, or scan the buffers
//  3. Copy each range local -> remote in ascending order
//  4. Compare the full buffers; a mismatch is a consistency fault
//  5. Clear the pending flag
//
// Consistency faults are logged and counted but never fail the pass: the
// engine keeps serving I/O and tries again on the next pass.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joshuapare/blockmirror/internal/logger"
	"github.com/joshuapare/blockmirror/mirror/diff"
	"github.com/joshuapare/blockmirror/mirror/dirty"
	"github.com/joshuapare/blockmirror/mirror/store"
	"github.com/joshuapare/blockmirror/mirror/verify"
	"github.com/joshuapare/blockmirror/pkg/types"
)

// Engine replicates the local buffer into the remote buffer.
//
// Safe for concurrent use.
type Engine struct {
	mu     sync.RWMutex // Buffer lock: shared for reads, exclusive for writes and passes
	st     *store.Store
	log    dirty.Drainer
	scan   *diff.Scanner
	closed bool

	cfg     Config
	logger  *slog.Logger
	pending atomic.Bool
	stats   counters
}

// New allocates the buffer pair and the write log. Construction fails when
// the size is invalid or the buffers cannot be allocated.
func New(cfg Config) (*Engine, error) {
	if cfg.MaxSpan == 0 {
		cfg.MaxSpan = dirty.DefaultMaxSpan
	}
	if cfg.Strategy != StrategyWriteLog && cfg.Strategy != StrategyDiffScan {
		return nil, fmt.Errorf("syncer: strategy %s: %w", cfg.Strategy, types.ErrInvalidConfig)
	}

	st, err := store.New(cfg.Size)
	if err != nil {
		return nil, fmt.Errorf("syncer: %w", err)
	}
	scan, err := diff.New(st.Local(), st.Remote(), cfg.MaxSpan)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("syncer: %w", err)
	}

	e := &Engine{
		st:     st,
		log:    dirty.NewLog(cfg.MaxSpan),
		scan:   scan,
		cfg:    cfg,
		logger: logger.Or(cfg.Logger),
	}
	e.logger.Debug("sync engine created",
		"size", cfg.Size,
		"strategy", cfg.Strategy.String(),
		"merge_threshold", cfg.MergeThreshold,
		"max_span", cfg.MaxSpan)
	return e, nil
}

// Size returns the device size in bytes.
func (e *Engine) Size() uint64 { return e.cfg.Size }

// Strategy returns the detection strategy chosen at construction.
func (e *Engine) Strategy() Strategy { return e.cfg.Strategy }

// ReadAt copies len(p) bytes at off from the local buffer.
//
// Returns types.ErrOutOfBounds, leaving p untouched, when the span passes the
// end of the device.
func (e *Engine) ReadAt(p []byte, off uint64) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return types.ErrClosed
	}
	if err := e.st.ReadLocal(p, off); err != nil {
		e.stats.rejectedReads.Add(1)
		return err
	}
	e.stats.reads.Add(1)
	return nil
}

// WriteAt copies p into the local buffer at off, records the span, and marks
// work as pending.
//
// Returns types.ErrOutOfBounds, leaving both buffers untouched, when the span
// passes the end of the device.
func (e *Engine) WriteAt(p []byte, off uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return types.ErrClosed
	}
	if err := e.st.WriteLocal(p, off); err != nil {
		e.stats.rejectedWrites.Add(1)
		return err
	}
	e.stats.writes.Add(1)
	if len(p) == 0 {
		return nil
	}

	// Recording inside the buffer lock keeps the log and the local bytes in
	// step: a pass never sees one without the other.
	if e.cfg.Strategy == StrategyWriteLog {
		if pieces := e.log.Record(off, uint64(len(p))); pieces > 1 {
			e.stats.splitWrites.Add(1)
			splitWrites.Inc()
			e.logger.Debug("split oversized write", "off", off, "len", len(p), "pieces", pieces)
		}
		logLength.Set(float64(e.log.Len()))
	}
	e.pending.Store(true)
	return nil
}

// ReadRemote copies len(p) bytes at off from the remote buffer.
func (e *Engine) ReadRemote(p []byte, off uint64) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return types.ErrClosed
	}
	return e.st.ReadRemote(p, off)
}

// Pending reports whether writes were accepted since the last pass.
func (e *Engine) Pending() bool { return e.pending.Load() }

// MarkPending forces the next scheduled check to run a pass.
func (e *Engine) MarkPending() { e.pending.Store(true) }

// Stats returns a snapshot of the cumulative counters.
func (e *Engine) Stats() Stats { return e.stats.snapshot() }

// Synchronize runs one pass and reports what it did.
//
// The context is checked once, before any work: a pass that has drained the
// log always runs to completion so no write is lost. Returns types.ErrClosed
// after Close. A consistency fault is reported through Report.Consistent, not
// as an error.
func (e *Engine) Synchronize(ctx context.Context) (Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return Report{}, types.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	start := time.Now()
	rep := Report{Strategy: e.cfg.Strategy}

	ranges, truncated := e.collect()
	rep.Truncated = truncated

	for _, r := range ranges {
		n, err := e.st.Apply(r)
		if err != nil {
			// Unreachable: ranges come from bounds-checked writes or
			// from the buffers themselves.
			e.logger.Error("range outside device", "range", r.String(), "error", err)
			continue
		}
		rep.Ranges++
		rep.Bytes += n
		if e.cfg.Verbose {
			e.logger.Debug("synced", "off", r.Off, "len", r.Len)
		}
	}

	rep.Consistent = true
	if err := verify.Buffers(e.st.Local(), e.st.Remote()); err != nil {
		rep.Consistent = false
		var mm *verify.MismatchError
		if errors.As(err, &mm) {
			rep.Mismatch = mm.First
		}
		e.stats.faults.Add(1)
		passFault.Inc()
		e.logger.Error("local and remote buffers are not in sync",
			"error", err,
			"applied_ranges_consistent", verify.Ranges(e.st.Local(), e.st.Remote(), ranges) == nil)
	} else {
		passConsistent.Inc()
	}

	e.pending.Store(false)
	rep.Duration = time.Since(start)

	e.stats.passes.Add(1)
	e.stats.ranges.Add(uint64(rep.Ranges))
	e.stats.bytesCopied.Add(rep.Bytes)
	e.stats.truncated.Add(uint64(rep.Truncated))

	strategy := e.cfg.Strategy.String()
	copiedBytes.WithLabelValues(strategy).Add(float64(rep.Bytes))
	appliedRanges.WithLabelValues(strategy).Add(float64(rep.Ranges))
	passDuration.WithLabelValues(strategy).Observe(rep.Duration.Seconds())
	logLength.Set(float64(e.log.Len()))

	if rep.Ranges > 0 || e.cfg.Verbose {
		e.logger.Info("sync pass complete",
			"strategy", strategy,
			"ranges", rep.Ranges,
			"bytes", rep.Bytes,
			"consistent", rep.Consistent,
			"duration", rep.Duration)
	}
	return rep, nil
}

// collect produces this pass's ranges. Caller holds the buffer lock.
func (e *Engine) collect() ([]dirty.Range, int) {
	switch e.cfg.Strategy {
	case StrategyDiffScan:
		ranges, truncated := e.scan.Ranges()
		if truncated > 0 {
			truncatedScans.Add(float64(truncated))
			e.logger.Warn("differential scan found ranges larger than max span",
				"count", truncated,
				"max_span", e.cfg.MaxSpan)
		}
		return ranges, truncated
	default:
		raw := e.log.Drain()
		ranges := dirty.Consolidate(raw, e.cfg.MergeThreshold, e.cfg.MaxSpan)
		if e.cfg.Verbose && len(raw) > 0 {
			e.logger.Debug("consolidated write log", "before", len(raw), "after", len(ranges))
		}
		return ranges, 0
	}
}

// Verify compares the full buffers without copying anything.
func (e *Engine) Verify() error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return types.ErrClosed
	}
	return verify.Buffers(e.st.Local(), e.st.Remote())
}

// Close releases the buffer pair. It waits for an in-flight pass to finish;
// afterwards every method returns types.ErrClosed. Safe to call more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	if n := e.log.Len(); n > 0 {
		e.logger.Warn("closing with unsynchronized writes", "entries", n)
	}
	return e.st.Close()
}
