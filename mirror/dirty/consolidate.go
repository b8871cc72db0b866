package dirty

import "sort"

// Consolidate sorts ranges by offset and merges overlapping, touching, and
// near-adjacent ranges into a minimal ascending set.
//
// Two neighbours merge when the current span reaches the next offset, or when
// the gap between them is strictly smaller than threshold. Merged spans longer
// than maxSpan are emitted as adjacent pieces of at most maxSpan bytes
// (0 selects DefaultMaxSpan).
//
// The input slice is not modified. Returns nil for empty input.
//
// Performance: one sort plus a single linear sweep; the sweep over sorted
// input already reaches the fixed point, so no further passes are needed.
func Consolidate(ranges []Range, threshold uint64, maxSpan uint32) []Range {
	if len(ranges) == 0 {
		return nil
	}
	if maxSpan == 0 {
		maxSpan = DefaultMaxSpan
	}

	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)

	// Sort by offset
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Off < sorted[j].Off
	})

	merged := make([]Range, 0, len(sorted))
	start, end := sorted[0].Off, sorted[0].End()

	for _, next := range sorted[1:] {
		// Overlapping/touching, or close enough to be worth one copy
		if end >= next.Off || next.Off-end < threshold {
			end = max(end, next.End())
			continue
		}
		merged = appendSpan(merged, start, end, maxSpan)
		start, end = next.Off, next.End()
	}

	// Don't forget the last range
	return appendSpan(merged, start, end, maxSpan)
}

// appendSpan appends [start, end) to dst in pieces of at most maxSpan bytes.
func appendSpan(dst []Range, start, end uint64, maxSpan uint32) []Range {
	for start < end {
		n := min(end-start, uint64(maxSpan))
		dst = append(dst, Range{Off: start, Len: uint32(n)})
		start += n
	}
	return dst
}
