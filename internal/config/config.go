// Package config loads the blockmirror CLI configuration from flags,
// BLOCKMIRROR_* environment variables and an optional config file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/bits"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/joshuapare/blockmirror/mirror/dirty"
	"github.com/joshuapare/blockmirror/mirror/scheduler"
	"github.com/joshuapare/blockmirror/mirror/syncer"
	"github.com/joshuapare/blockmirror/pkg/blockdev"
	"github.com/joshuapare/blockmirror/pkg/types"
)

// EnvPrefix prefixes every environment override, e.g. BLOCKMIRROR_SYNC_INTERVAL.
const EnvPrefix = "BLOCKMIRROR"

// FileKey names the setting holding the config file path.
const FileKey = "config"

// Config is the full CLI configuration.
type Config struct {
	// Size is the device size in bytes.
	Size uint64 `mapstructure:"size"`

	// BlockSize is advertised to transports. Must be a power of two.
	BlockSize uint32 `mapstructure:"block-size"`

	// SyncInterval is the pause between pending checks.
	SyncInterval time.Duration `mapstructure:"sync-interval"`

	// MergeThreshold is the gap below which neighbouring writes merge.
	MergeThreshold uint64 `mapstructure:"merge-threshold"`

	// MaxSpan caps a single copied range.
	MaxSpan uint32 `mapstructure:"max-span"`

	// Strategy is "write-log" or "diff-scan".
	Strategy string `mapstructure:"strategy"`

	// Verbose enables debug diagnostics and per-callback tracing.
	Verbose bool `mapstructure:"verbose"`

	// LogJSON switches diagnostics to JSON records.
	LogJSON bool `mapstructure:"log-json"`

	// LogFile appends diagnostics to a file instead of stderr.
	LogFile string `mapstructure:"log-file"`

	// MetricsAddr serves Prometheus metrics when non-empty (e.g. ":9100").
	MetricsAddr string `mapstructure:"metrics-addr"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Size:           syncer.DefaultSize,
		BlockSize:      blockdev.DefaultBlockSize,
		SyncInterval:   scheduler.DefaultInterval,
		MergeThreshold: dirty.DefaultMergeThreshold,
		MaxSpan:        dirty.DefaultMaxSpan,
		Strategy:       syncer.StrategyWriteLog.String(),
	}
}

// SetDefaults registers every key with its default so environment variables
// are seen by Unmarshal even when no flag or file mentions the key.
func SetDefaults(v *viper.Viper) {
	def := DefaultConfig()
	v.SetDefault("size", def.Size)
	v.SetDefault("block-size", def.BlockSize)
	v.SetDefault("sync-interval", def.SyncInterval)
	v.SetDefault("merge-threshold", def.MergeThreshold)
	v.SetDefault("max-span", def.MaxSpan)
	v.SetDefault("strategy", def.Strategy)
	v.SetDefault("verbose", def.Verbose)
	v.SetDefault("log-json", def.LogJSON)
	v.SetDefault("log-file", def.LogFile)
	v.SetDefault("metrics-addr", def.MetricsAddr)
}

// Load resolves the configuration held by v. Precedence, highest first:
// flags bound to v, environment, config file, defaults.
func Load(v *viper.Viper) (Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if file := v.GetString(FileKey); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", file, err)
		}
	}

	cfg := DefaultConfig()
	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
	)
	if err := v.Unmarshal(&cfg, viper.DecodeHook(hook)); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every unusable setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Size == 0 || c.Size > math.MaxInt {
		errs = append(errs, fmt.Errorf("size %d out of range", c.Size))
	}
	if c.BlockSize == 0 || bits.OnesCount32(c.BlockSize) != 1 {
		errs = append(errs, fmt.Errorf("block-size %d is not a power of two", c.BlockSize))
	}
	if c.SyncInterval <= 0 {
		errs = append(errs, fmt.Errorf("sync-interval %s must be positive", c.SyncInterval))
	}
	if c.MaxSpan == 0 {
		errs = append(errs, errors.New("max-span must be positive"))
	}
	if _, err := syncer.ParseStrategy(c.Strategy); err != nil {
		errs = append(errs, fmt.Errorf("strategy %q unknown", c.Strategy))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("config: %w: %w", types.ErrInvalidConfig, errors.Join(errs...))
}

// DeviceOptions converts the configuration into device options.
func (c Config) DeviceOptions(l *slog.Logger) (blockdev.Options, error) {
	strategy, err := syncer.ParseStrategy(c.Strategy)
	if err != nil {
		return blockdev.Options{}, fmt.Errorf("config: %w", err)
	}
	return blockdev.Options{
		Size:           c.Size,
		BlockSize:      c.BlockSize,
		SyncInterval:   c.SyncInterval,
		MergeThreshold: c.MergeThreshold,
		MaxSpan:        c.MaxSpan,
		Strategy:       strategy,
		Verbose:        c.Verbose,
		Logger:         l,
	}, nil
}
