package syncer

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/joshuapare/blockmirror/mirror/dirty"
	"github.com/joshuapare/blockmirror/pkg/types"
)

// DefaultSize is the device size used when none is configured (1 MiB).
const DefaultSize uint64 = 1 << 20

// Strategy selects how a pass finds the ranges to copy.
type Strategy int

const (
	// StrategyWriteLog drains and consolidates the write log.
	StrategyWriteLog Strategy = iota

	// StrategyDiffScan compares the full buffers and copies what differs.
	// Writes are not logged under this strategy.
	StrategyDiffScan
)

func (s Strategy) String() string {
	switch s {
	case StrategyWriteLog:
		return "write-log"
	case StrategyDiffScan:
		return "diff-scan"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy accepts the names produced by Strategy.String plus the short
// forms "log" and "scan".
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "write-log", "writelog", "log":
		return StrategyWriteLog, nil
	case "diff-scan", "diffscan", "scan":
		return StrategyDiffScan, nil
	default:
		return 0, fmt.Errorf("syncer: unknown strategy %q: %w", name, types.ErrInvalidConfig)
	}
}

// Config controls engine construction.
type Config struct {
	// Size is the device size in bytes. Both buffers are allocated with
	// exactly this length.
	Size uint64

	// MergeThreshold is the proximity in bytes below which two separate
	// ranges are copied as one. Larger values mean fewer, larger copies at
	// the cost of also copying the untouched bytes between writes. 0 merges
	// only overlapping or touching ranges.
	MergeThreshold uint64

	// MaxSpan caps a single range; longer writes and merged spans are split.
	// 0 selects dirty.DefaultMaxSpan.
	MaxSpan uint32

	// Strategy picks the detection strategy. Fixed for the engine's lifetime.
	Strategy Strategy

	// Verbose enables per-range debug diagnostics.
	Verbose bool

	// Logger receives diagnostics. Nil uses the global logger.
	Logger *slog.Logger
}

// DefaultConfig returns the configuration used by the CLI when nothing is
// overridden.
func DefaultConfig() Config {
	return Config{
		Size:           DefaultSize,
		MergeThreshold: dirty.DefaultMergeThreshold,
		MaxSpan:        dirty.DefaultMaxSpan,
		Strategy:       StrategyWriteLog,
	}
}
