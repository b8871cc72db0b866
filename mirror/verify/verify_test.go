package verify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/blockmirror/mirror/dirty"
)

func TestBuffers(t *testing.T) {
	local := make([]byte, 1024)
	remote := make([]byte, 1024)
	require.NoError(t, Buffers(local, remote))

	local[10] = 1
	local[700] = 1
	err := Buffers(local, remote)

	var mm *MismatchError
	require.True(t, errors.As(err, &mm), "expected MismatchError, got %v", err)
	require.EqualValues(t, 10, mm.First)
	require.EqualValues(t, 700, mm.Last)
	require.EqualValues(t, 1024, mm.Size)
	require.Contains(t, err.Error(), "0xA")
}

func TestBuffers_SingleByte(t *testing.T) {
	local := make([]byte, 16)
	remote := make([]byte, 16)
	remote[15] = 9

	err := Buffers(local, remote)
	require.EqualError(t, err, "buffers differ at offset 0xF (size 16)")
}

func TestBuffers_LengthMismatch(t *testing.T) {
	err := Buffers(make([]byte, 4), make([]byte, 5))
	require.Error(t, err)

	var mm *MismatchError
	require.False(t, errors.As(err, &mm))
}

func TestRanges(t *testing.T) {
	local := make([]byte, 256)
	remote := make([]byte, 256)
	local[5] = 1   // covered and applied below
	local[200] = 1 // outside the checked ranges
	remote[5] = 1

	require.NoError(t, Ranges(local, remote, []dirty.Range{{Off: 0, Len: 100}}))

	err := Ranges(local, remote, []dirty.Range{{Off: 0, Len: 100}, {Off: 150, Len: 100}})
	var mm *MismatchError
	require.True(t, errors.As(err, &mm))
	require.EqualValues(t, 200, mm.First)

	require.Error(t, Ranges(local, remote, []dirty.Range{{Off: 250, Len: 10}}))
}
