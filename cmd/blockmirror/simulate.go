package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/joshuapare/blockmirror/internal/logger"
	"github.com/joshuapare/blockmirror/internal/metrics"
	"github.com/joshuapare/blockmirror/pkg/blockdev"
)

type simulateOptions struct {
	writers    int
	writes     int
	maxWrite   int
	readEvery  int
	flushEvery int
	rate       float64
	seed       uint64
	format     string
}

// SimulateResult summarizes one simulate run.
type SimulateResult struct {
	Strategy       string        `json:"strategy" yaml:"strategy"`
	Size           uint64        `json:"size" yaml:"size"`
	Writers        int           `json:"writers" yaml:"writers"`
	Accepted       uint64        `json:"accepted_writes" yaml:"accepted_writes"`
	Rejected       uint64        `json:"rejected_writes" yaml:"rejected_writes"`
	SplitWrites    uint64        `json:"split_writes" yaml:"split_writes"`
	Reads          uint64        `json:"reads" yaml:"reads"`
	Passes         uint64        `json:"passes" yaml:"passes"`
	Ranges         uint64        `json:"ranges" yaml:"ranges"`
	BytesCopied    uint64        `json:"bytes_copied" yaml:"bytes_copied"`
	Faults         uint64        `json:"faults" yaml:"faults"`
	TruncatedScans uint64        `json:"truncated_scans" yaml:"truncated_scans"`
	Consistent     bool          `json:"consistent" yaml:"consistent"`
	Elapsed        time.Duration `json:"elapsed" yaml:"elapsed"`
}

func newSimulateCmd(a *app) *cobra.Command {
	var opts simulateOptions
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Drive a random concurrent workload through the device",
		Long: `The simulate command opens a device, starts its sync loop, and runs
concurrent writers issuing random writes (some deliberately past the end of
the device). When the writers finish it disconnects, waits for the final
sync pass, and checks that the replica matches.

Example:
  blockmirror simulate --writers 8 --writes 5000
  blockmirror simulate --strategy diff-scan --flush-every 100 --format json
  blockmirror simulate --rate 2000 --metrics-addr :9100`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(opts.format); err != nil {
				return err
			}
			return a.runSimulate(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.writers, "writers", 4, "Concurrent writer goroutines")
	f.IntVar(&opts.writes, "writes", 1000, "Writes per writer")
	f.IntVar(&opts.maxWrite, "max-write", 4096, "Largest single write in bytes")
	f.IntVar(&opts.readEvery, "read-every", 4, "Issue a read after every N writes (0 disables)")
	f.IntVar(&opts.flushEvery, "flush-every", 0, "Flush after every N writes per writer (0 disables)")
	f.Float64Var(&opts.rate, "rate", 0, "Total writes per second across writers (0 is unlimited)")
	f.Uint64Var(&opts.seed, "seed", 1, "Workload seed")
	f.StringVar(&opts.format, "format", formatText, "Output format: text, json or yaml")
	return cmd
}

func (a *app) runSimulate(ctx context.Context, out io.Writer, opts simulateOptions) error {
	if opts.writers <= 0 || opts.writes < 0 || opts.maxWrite <= 0 {
		return errors.New("simulate: writers and max-write must be positive")
	}

	if a.cfg.MetricsAddr != "" {
		srv, err := metrics.Listen(a.cfg.MetricsAddr)
		if err != nil {
			return fmt.Errorf("simulate: metrics: %w", err)
		}
		logger.Info("serving metrics", "addr", srv.Addr())
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	devOpts, err := a.cfg.DeviceOptions(logger.L)
	if err != nil {
		return err
	}
	dev, err := blockdev.Open(devOpts)
	if err != nil {
		return err
	}
	defer dev.Close(context.WithoutCancel(ctx))

	start := time.Now()
	if err := dev.Init(ctx); err != nil {
		return err
	}

	var limiter *rate.Limiter
	if opts.rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.rate), opts.writers)
	}

	g, gctx := errgroup.WithContext(ctx)
	for w := range opts.writers {
		g.Go(func() error {
			return runWriter(gctx, dev, limiter, opts, uint64(w))
		})
	}
	werr := g.Wait()

	// The final pass runs even when the workload was interrupted.
	dev.Disconnect()
	if err := dev.Wait(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	verifyErr := dev.Verify()
	stats := dev.Stats()
	if err := dev.Close(context.WithoutCancel(ctx)); err != nil {
		return err
	}

	res := SimulateResult{
		Strategy:       devOpts.Strategy.String(),
		Size:           dev.Size(),
		Writers:        opts.writers,
		Accepted:       stats.Writes,
		Rejected:       stats.RejectedWrites,
		SplitWrites:    stats.SplitWrites,
		Reads:          stats.Reads,
		Passes:         stats.Passes,
		Ranges:         stats.Ranges,
		BytesCopied:    stats.BytesCopied,
		Faults:         stats.Faults,
		TruncatedScans: stats.Truncated,
		Consistent:     verifyErr == nil,
		Elapsed:        time.Since(start),
	}
	if err := render(out, opts.format, res, res.writeText); err != nil {
		return err
	}

	if werr != nil && !errors.Is(werr, context.Canceled) {
		return fmt.Errorf("simulate: %w", werr)
	}
	if verifyErr != nil {
		return fmt.Errorf("simulate: replica diverged: %w", verifyErr)
	}
	return nil
}

func runWriter(ctx context.Context, dev *blockdev.Device, limiter *rate.Limiter, opts simulateOptions, id uint64) error {
	rng := rand.New(rand.NewPCG(opts.seed, id))
	size := dev.Size()
	p := make([]byte, opts.maxWrite)
	rbuf := make([]byte, 512)

	for i := 1; i <= opts.writes; i++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		n := 1 + rng.IntN(opts.maxWrite)
		off := rng.Uint64N(size)
		for j := range p[:n] {
			p[j] = byte(rng.Uint32())
		}
		if err := dev.Write(p[:n], off); err != nil {
			return err
		}

		if opts.readEvery > 0 && i%opts.readEvery == 0 {
			if err := dev.Read(rbuf, rng.Uint64N(size)); err != nil {
				return err
			}
		}
		if opts.flushEvery > 0 && i%opts.flushEvery == 0 {
			if err := dev.Flush(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r SimulateResult) writeText(w io.Writer) error {
	status := "consistent"
	if !r.Consistent {
		status = "DIVERGED"
	}
	_, err := printer.Fprintf(w, `Simulation (%s, %s device, %d writers)
  writes:    %d accepted, %d rejected, %d split
  reads:     %d
  passes:    %d (%d faults)
  ranges:    %d
  copied:    %s
  truncated: %d
  replica:   %s
  elapsed:   %s
`,
		r.Strategy, humanBytes(r.Size), r.Writers,
		r.Accepted, r.Rejected, r.SplitWrites,
		r.Reads,
		r.Passes, r.Faults,
		r.Ranges,
		humanBytes(r.BytesCopied),
		r.TruncatedScans,
		status,
		r.Elapsed.Round(time.Millisecond))
	return err
}
