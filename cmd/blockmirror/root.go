package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/joshuapare/blockmirror/internal/config"
	"github.com/joshuapare/blockmirror/internal/logger"
)

// app carries state shared by every subcommand once flags are resolved.
type app struct {
	v        *viper.Viper
	cfg      config.Config
	closeLog func() error
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	def := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "blockmirror",
		Short: "Drive and inspect a mirrored in-memory block device",
		Long: `blockmirror runs workloads against an in-memory block device whose
writes are replicated to a second buffer by a background synchronization loop,
and reports what the replication did.

Every flag can also be set through a BLOCKMIRROR_* environment variable
(e.g. BLOCKMIRROR_SYNC_INTERVAL=1s) or a config file passed with --config.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}

	flags := cmd.PersistentFlags()
	addConfigFlags(flags, def)
	if err := a.v.BindPFlags(flags); err != nil {
		panic(err)
	}

	cmd.AddCommand(newSimulateCmd(a))
	cmd.AddCommand(newScanCmd(a))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// addConfigFlags registers one flag per config.Config key. Names match the
// mapstructure tags so viper can bind them directly.
func addConfigFlags(fs *pflag.FlagSet, def config.Config) {
	fs.String(config.FileKey, "", "Config file (yaml, toml or json)")
	fs.Uint64("size", def.Size, "Device size in bytes")
	fs.Uint32("block-size", def.BlockSize, "Block size advertised to transports")
	fs.Duration("sync-interval", def.SyncInterval, "Pause between pending checks of the sync loop")
	fs.Uint64("merge-threshold", def.MergeThreshold, "Merge writes separated by fewer bytes than this")
	fs.Uint32("max-span", def.MaxSpan, "Largest range copied in one piece")
	fs.String("strategy", def.Strategy, "Change detection strategy: write-log or diff-scan")
	fs.BoolP("verbose", "v", false, "Enable debug diagnostics and per-callback tracing")
	fs.Bool("log-json", false, "Emit diagnostics as JSON")
	fs.String("log-file", "", "Append diagnostics to this file instead of stderr")
	fs.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9100)")
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	closeLog, err := logger.Init(logger.Options{
		Enabled: true,
		Verbose: cfg.Verbose,
		JSON:    cfg.LogJSON,
		File:    cfg.LogFile,
		Output:  cmd.ErrOrStderr(),
		Level:   slog.LevelWarn,
	})
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	a.closeLog = closeLog
	return nil
}

func (a *app) teardown() error {
	if a.closeLog == nil {
		return nil
	}
	err := a.closeLog()
	a.closeLog = nil
	return err
}

func execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
