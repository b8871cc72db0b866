package store

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/blockmirror/mirror/dirty"
	"github.com/joshuapare/blockmirror/pkg/types"
)

func newTestStore(t testing.TB, size uint64) *Store {
	t.Helper()
	s, err := New(size)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}

func TestNew_InvalidSize(t *testing.T) {
	_, err := New(0)
	require.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestStore_ReadWriteLocal(t *testing.T) {
	s := newTestStore(t, 1024)
	require.EqualValues(t, 1024, s.Size())
	require.Len(t, s.Local(), 1024)
	require.Len(t, s.Remote(), 1024)

	require.NoError(t, s.WriteLocal([]byte("hello"), 100))

	got := make([]byte, 5)
	require.NoError(t, s.ReadLocal(got, 100))
	require.Equal(t, []byte("hello"), got)

	// Remote untouched until applied
	require.NoError(t, s.ReadRemote(got, 100))
	require.Equal(t, make([]byte, 5), got)
}

func TestStore_OutOfBounds(t *testing.T) {
	s := newTestStore(t, 1024)

	err := s.WriteLocal(make([]byte, 10), 1020)
	require.ErrorIs(t, err, types.ErrOutOfBounds)

	err = s.WriteLocal([]byte{1}, 2000)
	require.ErrorIs(t, err, types.ErrOutOfBounds)

	require.True(t, bytes.Equal(s.Local(), make([]byte, 1024)), "failed write must not modify local")

	err = s.ReadLocal(make([]byte, 2), 1023)
	require.ErrorIs(t, err, types.ErrOutOfBounds)

	_, err = s.Apply(dirty.Range{Off: 1000, Len: 100})
	require.ErrorIs(t, err, types.ErrOutOfBounds)
}

func TestStore_Apply(t *testing.T) {
	s := newTestStore(t, 64)
	require.NoError(t, s.WriteLocal(bytes.Repeat([]byte{0xAB}, 64), 0))

	n, err := s.Apply(dirty.Range{Off: 8, Len: 16})
	require.NoError(t, err)
	require.EqualValues(t, 16, n)

	remote := s.Remote()
	require.Equal(t, make([]byte, 8), remote[:8])
	require.Equal(t, bytes.Repeat([]byte{0xAB}, 16), remote[8:24])
	require.Equal(t, make([]byte, 40), remote[24:])
}

func TestStore_Close(t *testing.T) {
	s, err := New(128)
	require.NoError(t, err)
	require.False(t, s.Closed())

	require.NoError(t, s.Close())
	require.True(t, s.Closed())
	require.NoError(t, s.Close())

	require.ErrorIs(t, s.WriteLocal([]byte{1}, 0), types.ErrClosed)
	require.ErrorIs(t, s.ReadRemote([]byte{1}, 0), types.ErrClosed)
}
