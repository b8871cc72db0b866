package blockdev

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/joshuapare/blockmirror/internal/logger"
	"github.com/joshuapare/blockmirror/mirror/scheduler"
	"github.com/joshuapare/blockmirror/mirror/syncer"
	"github.com/joshuapare/blockmirror/pkg/types"
)

// Operations is the callback surface a transport drives. Every method may be
// called concurrently.
type Operations interface {
	// Read fills p from the device at off.
	Read(p []byte, off uint64) error
	// Write stores p on the device at off.
	Write(p []byte, off uint64) error
	// Flush returns once every write accepted so far is in the replica.
	Flush(ctx context.Context) error
	// Trim discards [off, off+length). Currently has no effect.
	Trim(off, length uint64) error
	// Disconnect signals that the host is going away.
	Disconnect()
	// Init is called once the transport is ready to serve requests.
	Init(ctx context.Context) error
}

var _ Operations = (*Device)(nil)

// Device is a mirrored block device. It owns the sync engine and the
// background scheduler; transports only hold the *Device.
type Device struct {
	engine *syncer.Engine
	sched  *scheduler.Scheduler
	opts   Options
	logger *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// Open allocates the buffer pair and prepares the background loop. The loop
// does not run until Init.
func Open(opts Options) (*Device, error) {
	def := DefaultOptions()
	if opts.Size == 0 {
		opts.Size = def.Size
	}
	if opts.BlockSize == 0 {
		opts.BlockSize = def.BlockSize
	}
	if opts.SyncInterval <= 0 {
		opts.SyncInterval = def.SyncInterval
	}

	l := logger.Or(opts.Logger)
	engine, err := syncer.New(opts.engineConfig(l))
	if err != nil {
		return nil, fmt.Errorf("blockdev: open: %w", err)
	}

	schedOpts := []scheduler.Opt{scheduler.WithLogger(l)}
	if opts.Clock != nil {
		schedOpts = append(schedOpts, scheduler.WithClock(opts.Clock))
	}

	l.Info("device opened",
		"size", opts.Size,
		"block_size", opts.BlockSize,
		"interval", opts.SyncInterval,
		"strategy", opts.Strategy.String())

	return &Device{
		engine: engine,
		sched:  scheduler.New(engine, opts.SyncInterval, schedOpts...),
		opts:   opts,
		logger: l,
	}, nil
}

// Size returns the device size in bytes.
func (d *Device) Size() uint64 { return d.opts.Size }

// BlockSize returns the block size advertised to the transport.
func (d *Device) BlockSize() uint32 { return d.opts.BlockSize }

// Stats returns the engine's cumulative counters.
func (d *Device) Stats() syncer.Stats { return d.engine.Stats() }

// State returns the background loop's lifecycle state.
func (d *Device) State() scheduler.State { return d.sched.State() }

// Init starts the background synchronization loop. Cancelling ctx stops the
// loop the same way Disconnect does.
func (d *Device) Init(ctx context.Context) error {
	if d.opts.Verbose {
		d.logger.Debug("init")
	}
	if err := d.sched.Start(ctx); err != nil {
		return fmt.Errorf("blockdev: init: %w", err)
	}
	return nil
}

// Read copies len(p) bytes at off into p. An out-of-range request is logged
// and ignored: p is left untouched and nil is returned.
func (d *Device) Read(p []byte, off uint64) error {
	if d.opts.Verbose {
		d.logger.Debug("read", "off", off, "len", len(p))
	}
	err := d.engine.ReadAt(p, off)
	switch {
	case err == nil:
		readOK.Inc()
		return nil
	case errors.Is(err, types.ErrOutOfBounds):
		readRejected.Inc()
		d.logger.Warn("read out of bounds", "off", off, "len", len(p), "size", d.opts.Size)
		return nil
	default:
		return fmt.Errorf("blockdev: read: %w", err)
	}
}

// Write copies p into the device at off. An out-of-range request is logged
// and ignored: neither buffer changes and nil is returned.
func (d *Device) Write(p []byte, off uint64) error {
	if d.opts.Verbose {
		d.logger.Debug("write", "off", off, "len", len(p))
	}
	err := d.engine.WriteAt(p, off)
	switch {
	case err == nil:
		writeOK.Inc()
		return nil
	case errors.Is(err, types.ErrOutOfBounds):
		writeRejected.Inc()
		d.logger.Warn("write out of bounds", "off", off, "len", len(p), "size", d.opts.Size)
		return nil
	default:
		return fmt.Errorf("blockdev: write: %w", err)
	}
}

// Flush runs a synchronization pass and waits for it.
func (d *Device) Flush(ctx context.Context) error {
	_, err := d.Sync(ctx)
	return err
}

// Sync is Flush with the pass report.
func (d *Device) Sync(ctx context.Context) (syncer.Report, error) {
	if d.opts.Verbose {
		d.logger.Debug("flush")
	}
	rep, err := d.engine.Synchronize(ctx)
	if err != nil {
		return rep, fmt.Errorf("blockdev: flush: %w", err)
	}
	if rep.Consistent {
		flushOK.Inc()
	} else {
		flushFault.Inc()
	}
	return rep, nil
}

// Trim accepts a discard request. The buffers are not changed.
func (d *Device) Trim(off, length uint64) error {
	if d.opts.Verbose {
		d.logger.Debug("trim", "off", off, "len", length)
	}
	trimOK.Inc()
	return nil
}

// Disconnect asks the background loop to stop after one final pass. It does
// not wait; use Wait or Close for that.
func (d *Device) Disconnect() {
	if d.opts.Verbose {
		d.logger.Debug("disconnect")
	}
	disconnects.Inc()
	d.sched.Stop()
}

// Wait blocks until the background loop has exited or ctx is done.
func (d *Device) Wait(ctx context.Context) error {
	return d.sched.Wait(ctx)
}

// Verify compares the local and remote buffers without copying.
func (d *Device) Verify() error {
	return d.engine.Verify()
}

// ReadRemote copies len(p) bytes at off from the replica.
func (d *Device) ReadRemote(p []byte, off uint64) error {
	return d.engine.ReadRemote(p, off)
}

// Close stops the background loop, waits for its final pass, and releases
// the buffers. Writes still pending after the loop has exited, either because
// it never started or because they arrived after Disconnect, are synchronized
// here. Safe to call more than once; later calls return the first result.
func (d *Device) Close(ctx context.Context) error {
	d.closeOnce.Do(func() {
		d.sched.Stop()

		var errs []error
		if err := d.sched.Wait(ctx); err != nil {
			errs = append(errs, fmt.Errorf("blockdev: close: waiting for final sync: %w", err))
		}
		if d.engine.Pending() {
			d.logger.Debug("synchronizing writes accepted after the sync loop exited")
			if _, err := d.engine.Synchronize(context.WithoutCancel(ctx)); err != nil {
				errs = append(errs, fmt.Errorf("blockdev: close: final sync: %w", err))
			}
		}
		if err := d.engine.Close(); err != nil {
			errs = append(errs, fmt.Errorf("blockdev: close: %w", err))
		}
		d.closeErr = errors.Join(errs...)
		d.logger.Info("device closed", "passes", d.engine.Stats().Passes)
	})
	return d.closeErr
}
