package mmap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAlloc_ZeroedAndWritable(t *testing.T) {
	const size = 1 << 16

	data, release, err := Alloc(size)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, release())
	}()

	require.Len(t, data, size)
	for i, b := range data {
		if b != 0 {
			t.Fatalf("byte %d not zeroed: 0x%x", i, b)
		}
	}

	data[0] = 0xde
	data[size-1] = 0xad
	require.Equal(t, byte(0xde), data[0])
	require.Equal(t, byte(0xad), data[size-1])
}

func TestAlloc_InvalidSize(t *testing.T) {
	_, _, err := Alloc(0)
	require.Error(t, err)

	_, _, err = Alloc(-1)
	require.Error(t, err)
}

func TestAlloc_DoubleRelease(t *testing.T) {
	_, release, err := Alloc(4096)
	require.NoError(t, err)
	require.NoError(t, release())
	require.NoError(t, release())
}
