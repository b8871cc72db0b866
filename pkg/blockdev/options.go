package blockdev

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/joshuapare/blockmirror/mirror/dirty"
	"github.com/joshuapare/blockmirror/mirror/scheduler"
	"github.com/joshuapare/blockmirror/mirror/syncer"
)

// DefaultBlockSize is the block size advertised to transports.
const DefaultBlockSize uint32 = 512

// Options controls device construction.
type Options struct {
	// Size is the device size in bytes.
	// Default: 1 MiB
	Size uint64

	// BlockSize is advertised to the transport. It does not constrain
	// request alignment; any byte offset is accepted.
	// Default: 512
	BlockSize uint32

	// SyncInterval is the pause between pending checks of the background
	// loop.
	// Default: 5s
	SyncInterval time.Duration

	// MergeThreshold is the gap in bytes below which neighbouring writes are
	// copied as one range. See syncer.Config. Unlike the fields above, 0 is
	// kept as is and merges only overlapping or touching writes; use
	// DefaultOptions for dirty.DefaultMergeThreshold.
	MergeThreshold uint64

	// MaxSpan caps a single copied range. 0 selects dirty.DefaultMaxSpan.
	MaxSpan uint32

	// Strategy selects write-log or differential-scan detection.
	Strategy syncer.Strategy

	// Verbose traces every callback at debug level.
	Verbose bool

	// Logger receives diagnostics. If nil, the global logger is used.
	Logger *slog.Logger

	// Clock drives the background loop. If nil, the wall clock is used.
	Clock clockwork.Clock
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Size:           syncer.DefaultSize,
		BlockSize:      DefaultBlockSize,
		SyncInterval:   scheduler.DefaultInterval,
		MergeThreshold: dirty.DefaultMergeThreshold,
		MaxSpan:        dirty.DefaultMaxSpan,
		Strategy:       syncer.StrategyWriteLog,
	}
}

func (o Options) engineConfig(l *slog.Logger) syncer.Config {
	return syncer.Config{
		Size:           o.Size,
		MergeThreshold: o.MergeThreshold,
		MaxSpan:        o.MaxSpan,
		Strategy:       o.Strategy,
		Verbose:        o.Verbose,
		Logger:         l,
	}
}
