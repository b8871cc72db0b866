package dirty

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestConsolidate(t *testing.T) {
	tests := []struct {
		name      string
		in        []Range
		threshold uint64
		maxSpan   uint32
		want      []Range
	}{
		{
			name: "empty",
			in:   nil,
			want: nil,
		},
		{
			name: "single entry unchanged",
			in:   []Range{{Off: 300, Len: 12}},
			want: []Range{{Off: 300, Len: 12}},
		},
		{
			name: "overlapping",
			in:   []Range{{Off: 90, Len: 50}, {Off: 0, Len: 100}},
			want: []Range{{Off: 0, Len: 140}},
		},
		{
			name: "touching",
			in:   []Range{{Off: 0, Len: 10}, {Off: 10, Len: 10}},
			want: []Range{{Off: 0, Len: 20}},
		},
		{
			name: "equal offsets",
			in:   []Range{{Off: 50, Len: 5}, {Off: 50, Len: 20}, {Off: 50, Len: 1}},
			want: []Range{{Off: 50, Len: 20}},
		},
		{
			name: "contained",
			in:   []Range{{Off: 0, Len: 100}, {Off: 10, Len: 5}, {Off: 40, Len: 5}},
			want: []Range{{Off: 0, Len: 100}},
		},
		{
			name:      "separate without threshold",
			in:        []Range{{Off: 0, Len: 10}, {Off: 11, Len: 5}},
			threshold: 0,
			want:      []Range{{Off: 0, Len: 10}, {Off: 11, Len: 5}},
		},
		{
			name:      "gap bridged",
			in:        []Range{{Off: 0, Len: 10}, {Off: 20, Len: 5}},
			threshold: 16,
			want:      []Range{{Off: 0, Len: 25}},
		},
		{
			name:      "chain of near ranges",
			in:        []Range{{Off: 0, Len: 4}, {Off: 8, Len: 4}, {Off: 16, Len: 4}, {Off: 100, Len: 4}},
			threshold: 5,
			want:      []Range{{Off: 0, Len: 20}, {Off: 100, Len: 4}},
		},
		{
			name:    "merged span split at max span",
			in:      []Range{{Off: 0, Len: 60}, {Off: 50, Len: 60}},
			maxSpan: 50,
			want:    []Range{{Off: 0, Len: 50}, {Off: 50, Len: 50}, {Off: 100, Len: 10}},
		},
		{
			name: "unsorted input",
			in:   []Range{{Off: 5000, Len: 1}, {Off: 0, Len: 1}, {Off: 2500, Len: 1}},
			want: []Range{{Off: 0, Len: 1}, {Off: 2500, Len: 1}, {Off: 5000, Len: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Consolidate(tt.in, tt.threshold, tt.maxSpan)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Consolidate() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// Two ranges {0,10} and {10+k,5} merge iff k < threshold.
func TestConsolidate_ThresholdBoundary(t *testing.T) {
	const threshold = 8

	for k := uint64(0); k <= 2*threshold; k++ {
		in := []Range{{Off: 0, Len: 10}, {Off: 10 + k, Len: 5}}
		got := Consolidate(in, threshold, 0)
		if k < threshold {
			require.Len(t, got, 1, "k=%d should merge", k)
			require.Equal(t, Range{Off: 0, Len: uint32(15 + k)}, got[0])
		} else {
			require.Len(t, got, 2, "k=%d should not merge", k)
		}
	}
}

func TestConsolidate_DoesNotModifyInput(t *testing.T) {
	in := []Range{{Off: 90, Len: 50}, {Off: 0, Len: 100}}
	orig := append([]Range(nil), in...)

	_ = Consolidate(in, DefaultMergeThreshold, 0)
	require.Equal(t, orig, in)
}

// Output is sorted, pairwise non-overlapping, and covers exactly the input
// bytes when the threshold is zero (a superset otherwise).
func TestConsolidate_Properties(t *testing.T) {
	const size = 4096
	rng := rand.New(rand.NewPCG(1, 2))

	for iter := range 200 {
		n := 1 + rng.IntN(40)
		in := make([]Range, n)
		for i := range in {
			off := rng.Uint64N(size - 1)
			l := 1 + rng.Uint64N(min(128, size-off))
			in[i] = Range{Off: off, Len: uint32(l)}
		}

		for _, threshold := range []uint64{0, 1, 32, 512} {
			out := Consolidate(in, threshold, 256)

			for i, r := range out {
				require.NotZero(t, r.Len, "iter %d: empty range", iter)
				require.LessOrEqual(t, r.Len, uint32(256), "iter %d: range exceeds max span", iter)
				if i > 0 {
					require.LessOrEqual(t, out[i-1].End(), r.Off, "iter %d: ranges overlap or are unsorted", iter)
				}
			}

			inCov := coverage(in, size)
			outCov := coverage(out, size)
			for b := range size {
				if inCov[b] {
					require.True(t, outCov[b], "iter %d threshold %d: byte %d lost", iter, threshold, b)
				}
				if threshold == 0 && outCov[b] {
					require.True(t, inCov[b], "iter %d: byte %d added without threshold", iter, b)
				}
			}
		}
	}
}

func coverage(ranges []Range, size int) []bool {
	cov := make([]bool, size)
	for _, r := range ranges {
		for b := r.Off; b < r.End(); b++ {
			cov[b] = true
		}
	}
	return cov
}

// Benchmark: Consolidate 100 ranges.
func Benchmark_Consolidate_100Ranges(b *testing.B) {
	in := make([]Range, 100)
	for i := range in {
		in[i] = Range{Off: uint64(i * 8192), Len: 4096}
	}

	b.ResetTimer()
	b.ReportAllocs()

	for range b.N {
		_ = Consolidate(in, DefaultMergeThreshold, 0)
	}
}
