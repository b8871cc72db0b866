/*
Package blockdev exposes a mirrored in-memory block device to a transport.

A Device pairs a local buffer, which serves every read and write, with a
remote replica kept up to date by a background synchronization loop. The
transport (an NBD or BUSE style server, or a test harness) drives the device
through the Operations callbacks and never touches the buffers directly.

# Quick Start

	dev, err := blockdev.Open(blockdev.DefaultOptions())
	if err != nil {
	    log.Fatal(err)
	}
	defer dev.Close(context.Background())

	if err := dev.Init(ctx); err != nil {
	    log.Fatal(err)
	}
	_ = dev.Write([]byte("hello"), 0)
	_ = dev.Flush(ctx) // remote now holds "hello"

# Error Policy

Callbacks never fail on bad requests. A read or write past the end of the
device is diagnosed, counted, and answered with nil so the host I/O path
stays up; neither buffer changes. The only callback errors are
types.ErrClosed after Close and context errors from Flush.

# Lifecycle

	Open -> Init -> (Read | Write | Flush | Trim)* -> Disconnect -> Close

Disconnect only requests a stop. The scheduler still runs one final pass,
so Close (or Wait) returns after every accepted write has reached the
remote buffer.
*/
package blockdev
