package diff

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/blockmirror/mirror/dirty"
	"github.com/joshuapare/blockmirror/pkg/types"
)

func newPair(size int) ([]byte, []byte) {
	return make([]byte, size), make([]byte, size)
}

func TestNew_LengthMismatch(t *testing.T) {
	_, err := New(make([]byte, 10), make([]byte, 11), 0)
	require.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestScanner_Identical(t *testing.T) {
	local, remote := newPair(1 << 16)
	s, err := New(local, remote, 0)
	require.NoError(t, err)

	_, ok := s.Next(0)
	require.False(t, ok)

	ranges, truncated := s.Ranges()
	require.Empty(t, ranges)
	require.Zero(t, truncated)
}

func TestScanner_LastByte(t *testing.T) {
	local, remote := newPair(1024)
	local[1023] = 1
	s, err := New(local, remote, 0)
	require.NoError(t, err)

	ranges, truncated := s.Ranges()
	require.Equal(t, []dirty.Range{{Off: 1023, Len: 1}}, ranges)
	require.Zero(t, truncated)
}

func TestScanner_Next(t *testing.T) {
	local, remote := newPair(1024)
	for i := 10; i < 20; i++ {
		local[i] = 0xFF
	}
	local[25] = 0xFF
	local[600] = 0xFF

	s, err := New(local, remote, 32)
	require.NoError(t, err)

	// First window [10, 42) covers 10..19 and 25
	d, ok := s.Next(0)
	require.True(t, ok)
	require.Equal(t, Diff{Start: 10, End: 25}, d)

	d, ok = s.Next(d.End + 1)
	require.True(t, ok)
	require.Equal(t, Diff{Start: 600, End: 600}, d)

	_, ok = s.Next(d.End + 1)
	require.False(t, ok)

	_, ok = s.Next(5000)
	require.False(t, ok)
}

func TestScanner_Truncated(t *testing.T) {
	local, remote := newPair(256)
	for i := 0; i < 100; i++ {
		local[i] = 0xEE
	}

	s, err := New(local, remote, 40)
	require.NoError(t, err)

	ranges, truncated := s.Ranges()
	want := []dirty.Range{{Off: 0, Len: 40}, {Off: 40, Len: 40}, {Off: 80, Len: 20}}
	if diff := cmp.Diff(want, ranges); diff != "" {
		t.Fatalf("Ranges() mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 2, truncated)
}

func TestScanner_WindowEndsAtBufferEnd(t *testing.T) {
	local, remote := newPair(64)
	for i := 32; i < 64; i++ {
		local[i] = 1
	}

	s, err := New(local, remote, 32)
	require.NoError(t, err)

	d, ok := s.Next(0)
	require.True(t, ok)
	require.Equal(t, Diff{Start: 32, End: 63}, d)
}

// A gap of matching bytes right before the window boundary is not a
// truncation even if the next byte differs.
func TestScanner_GapBeforeBoundary(t *testing.T) {
	local, remote := newPair(128)
	local[0] = 1
	local[16] = 1

	s, err := New(local, remote, 16)
	require.NoError(t, err)

	d, ok := s.Next(0)
	require.True(t, ok)
	require.Equal(t, Diff{Start: 0, End: 0}, d)
}

func Benchmark_Scanner_Ranges_1MiB(b *testing.B) {
	local, remote := newPair(1 << 20)
	for i := 0; i < len(local); i += 64 << 10 {
		local[i] = 1
	}
	s, err := New(local, remote, 0)
	require.NoError(b, err)

	b.ReportAllocs()
	b.SetBytes(int64(len(local)))
	for range b.N {
		_, _ = s.Ranges()
	}
}
