package buf

import (
	"math"
	"testing"
)

func TestSpanEnd(t *testing.T) {
	if end, ok := SpanEnd(100, 10, 5); !ok || end != 15 {
		t.Fatalf("SpanEnd(100,10,5)=%d,%v want 15,true", end, ok)
	}
	if end, ok := SpanEnd(100, 90, 10); !ok || end != 100 {
		t.Fatalf("SpanEnd(100,90,10)=%d,%v want 100,true", end, ok)
	}
	if _, ok := SpanEnd(100, 90, 11); ok {
		t.Fatalf("expected failure when span passes the end")
	}
	if _, ok := SpanEnd(100, 101, 0); ok {
		t.Fatalf("expected failure when offset is past the end")
	}
	if _, ok := SpanEnd(math.MaxUint64, math.MaxUint64-1, 2); ok {
		t.Fatalf("expected failure instead of overflow")
	}
	if !Fits(100, 100, 0) {
		t.Fatalf("empty span at the end should fit")
	}
}

func TestCheckSpan(t *testing.T) {
	if err := CheckSpan(1024, 0, 1024); err != nil {
		t.Fatalf("CheckSpan full buffer: %v", err)
	}
	if err := CheckSpan(1024, 2000, 1); err == nil {
		t.Fatalf("CheckSpan should reject offset past size")
	}
	if err := CheckSpan(1024, 1000, 100); err == nil {
		t.Fatalf("CheckSpan should reject span past size")
	}
}

func TestSliceAndHas(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4}
	if got, ok := Slice(data, 1, 3); !ok || len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("Slice returned unexpected result: %v, %v", got, ok)
	}
	if _, ok := Slice(data, 4, 2); ok {
		t.Fatalf("Slice should fail when extending beyond len")
	}
	if Has(data, 2, 4) {
		t.Fatalf("Has should be false for out-of-bounds range")
	}
	if !Has(data, 2, 1) {
		t.Fatalf("Has should be true for valid range")
	}
	if _, ok := Slice(data, 6, 0); ok {
		t.Fatalf("Slice should reject offset beyond len")
	}
}
