// Package store owns the buffer pair behind a mirrored device: the local
// buffer mutated by writes and the remote buffer updated only by
// synchronization passes.
//
// Every accessor is bounds-checked against the fixed device size. The store
// is NOT thread-safe; the sync engine serializes access with its buffer lock.
package store

import (
	"fmt"
	"math"

	"github.com/joshuapare/blockmirror/internal/buf"
	"github.com/joshuapare/blockmirror/internal/mmap"
	"github.com/joshuapare/blockmirror/mirror/dirty"
	"github.com/joshuapare/blockmirror/pkg/types"
)

// Store is a pair of equal-sized byte buffers allocated once and never
// resized.
type Store struct {
	local   []byte
	remote  []byte
	size    uint64
	release []func() error
}

// New allocates both buffers. Fails with types.ErrInvalidConfig for a zero
// or unaddressable size and types.ErrAlloc when the memory is unavailable.
func New(size uint64) (*Store, error) {
	if size == 0 || size > math.MaxInt {
		return nil, fmt.Errorf("store: size %d: %w", size, types.ErrInvalidConfig)
	}

	local, releaseLocal, err := mmap.Alloc(int(size))
	if err != nil {
		return nil, fmt.Errorf("store: local buffer: %w", types.Errorf(types.ErrKindResource, types.ErrAlloc.Msg, err))
	}
	remote, releaseRemote, err := mmap.Alloc(int(size))
	if err != nil {
		_ = releaseLocal()
		return nil, fmt.Errorf("store: remote buffer: %w", types.Errorf(types.ErrKindResource, types.ErrAlloc.Msg, err))
	}

	return &Store{
		local:   local,
		remote:  remote,
		size:    size,
		release: []func() error{releaseLocal, releaseRemote},
	}, nil
}

// Size returns the device size in bytes.
func (s *Store) Size() uint64 { return s.size }

// Local returns the authoritative buffer. Nil after Close.
func (s *Store) Local() []byte { return s.local }

// Remote returns the replica buffer. Nil after Close.
func (s *Store) Remote() []byte { return s.remote }

// Closed reports whether Close has released the buffers.
func (s *Store) Closed() bool { return s.local == nil }

// ReadLocal copies len(p) bytes at off from the local buffer into p.
func (s *Store) ReadLocal(p []byte, off uint64) error {
	src, err := s.span(s.local, off, uint64(len(p)))
	if err != nil {
		return fmt.Errorf("store: read: %w", err)
	}
	copy(p, src)
	return nil
}

// ReadRemote copies len(p) bytes at off from the remote buffer into p.
func (s *Store) ReadRemote(p []byte, off uint64) error {
	src, err := s.span(s.remote, off, uint64(len(p)))
	if err != nil {
		return fmt.Errorf("store: read remote: %w", err)
	}
	copy(p, src)
	return nil
}

// WriteLocal copies p into the local buffer at off. On error neither buffer
// is modified.
func (s *Store) WriteLocal(p []byte, off uint64) error {
	dst, err := s.span(s.local, off, uint64(len(p)))
	if err != nil {
		return fmt.Errorf("store: write: %w", err)
	}
	copy(dst, p)
	return nil
}

// Apply copies the bytes covered by r from local to remote and returns the
// number of bytes copied.
func (s *Store) Apply(r dirty.Range) (uint64, error) {
	src, err := s.span(s.local, r.Off, uint64(r.Len))
	if err != nil {
		return 0, fmt.Errorf("store: apply %s: %w", r, err)
	}
	return uint64(copy(s.remote[r.Off:r.End()], src)), nil
}

// Close releases both buffers. Safe to call more than once.
func (s *Store) Close() error {
	var first error
	for _, release := range s.release {
		if err := release(); err != nil && first == nil {
			first = err
		}
	}
	s.release = nil
	s.local, s.remote = nil, nil
	return first
}

func (s *Store) span(b []byte, off, n uint64) ([]byte, error) {
	if b == nil {
		return nil, types.ErrClosed
	}
	if err := buf.CheckSpan(s.size, off, n); err != nil {
		return nil, types.Errorf(types.ErrKindBounds, types.ErrOutOfBounds.Msg, err)
	}
	out, _ := buf.Slice(b, off, n)
	return out, nil
}
