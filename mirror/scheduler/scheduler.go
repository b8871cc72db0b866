// Package scheduler runs synchronization passes in the background.
//
// A Scheduler wakes every interval and asks its target for a pass when writes
// are pending. Stop ends the loop, but only after one last unconditional pass
// so nothing accepted before the stop is left unsynchronized.
//
// Lifecycle:
//
//	Idle --Start--> Running --Stop--> StopRequested --final pass--> Stopped
//	Idle --Stop--> Stopped
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/joshuapare/blockmirror/internal/logger"
	"github.com/joshuapare/blockmirror/mirror/syncer"
	"github.com/joshuapare/blockmirror/pkg/types"
)

// DefaultInterval is the pause between pending checks.
const DefaultInterval = 5 * time.Second

// Target is what the scheduler drives. *syncer.Engine satisfies it.
type Target interface {
	Pending() bool
	Synchronize(ctx context.Context) (syncer.Report, error)
}

// State is the scheduler lifecycle position.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopRequested
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopRequested:
		return "stop-requested"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Opt configures a Scheduler.
type Opt func(*Scheduler)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clock clockwork.Clock) Opt {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

// WithLogger sets the diagnostic logger. Default: the global logger.
func WithLogger(l *slog.Logger) Opt {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// Scheduler owns the background synchronization loop.
type Scheduler struct {
	target   Target
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger

	state    atomic.Int32
	kick     chan struct{}
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	doneOnce sync.Once

	passes atomic.Uint64
	failed atomic.Uint64
}

// New creates an idle scheduler. A non-positive interval selects
// DefaultInterval.
func New(target Target, interval time.Duration, opts ...Opt) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Scheduler{
		target:   target,
		interval: interval,
		clock:    clockwork.NewRealClock(),
		kick:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.Or(s.logger)
	return s
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State { return State(s.state.Load()) }

// Interval returns the pause between pending checks.
func (s *Scheduler) Interval() time.Duration { return s.interval }

// Passes returns how many passes the loop has requested, the final one
// included.
func (s *Scheduler) Passes() uint64 { return s.passes.Load() }

// Start launches the loop. Cancelling ctx has the same effect as Stop; the
// final pass still runs, detached from the cancellation.
//
// Start may be called once, on an idle scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return fmt.Errorf("scheduler: %w", types.ErrStarted)
	}
	s.logger.Debug("sync thread started", "interval", s.interval)
	go s.run(ctx)
	return nil
}

// Stop requests shutdown and returns immediately; use Wait to join the loop.
// Calling Stop on an idle scheduler moves it straight to Stopped. Safe to
// call more than once.
func (s *Scheduler) Stop() {
	if s.state.CompareAndSwap(int32(StateIdle), int32(StateStopped)) {
		s.doneOnce.Do(func() { close(s.done) })
		return
	}
	s.state.CompareAndSwap(int32(StateRunning), int32(StateStopRequested))
	s.stopOnce.Do(func() { close(s.stop) })
}

// Kick asks the loop to check for pending work now instead of at the next
// tick. It never blocks.
func (s *Scheduler) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Done is closed once the loop has exited.
func (s *Scheduler) Done() <-chan struct{} { return s.done }

// Wait blocks until the loop has exited or ctx is done.
func (s *Scheduler) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.doneOnce.Do(func() { close(s.done) })

	timer := s.clock.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-timer.Chan():
			s.maybeSync(ctx)
			timer.Reset(s.interval)
		case <-s.kick:
			s.maybeSync(ctx)
		case <-s.stop:
			s.finish(ctx)
			return
		case <-ctx.Done():
			s.state.CompareAndSwap(int32(StateRunning), int32(StateStopRequested))
			s.finish(ctx)
			return
		}
	}
}

func (s *Scheduler) maybeSync(ctx context.Context) {
	if !s.target.Pending() {
		return
	}
	s.sync(ctx)
}

// finish runs the unconditional final pass. It must not observe the caller's
// cancellation, or a stop by context would skip the very pass it promises.
func (s *Scheduler) finish(ctx context.Context) {
	s.logger.Info("performing final sync before exit")
	s.sync(context.WithoutCancel(ctx))
	s.state.Store(int32(StateStopped))
	s.logger.Info("exiting sync thread", "passes", s.passes.Load(), "failed", s.failed.Load())
}

func (s *Scheduler) sync(ctx context.Context) {
	s.passes.Add(1)
	rep, err := s.target.Synchronize(ctx)
	switch {
	case errors.Is(err, types.ErrClosed):
		s.failed.Add(1)
		s.logger.Warn("sync target closed")
	case err != nil:
		s.failed.Add(1)
		s.logger.Error("sync pass failed", "error", err)
	case !rep.Consistent:
		s.logger.Warn("sync pass left buffers inconsistent", "mismatch", rep.Mismatch)
	}
}
