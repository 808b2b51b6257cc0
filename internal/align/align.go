// Package align holds the overflow-checked arithmetic shared by layout and
// the ABI packages.
package align

import "math"

// To rounds offset up to a multiple of align. An align of 0 or 1 is a no-op.
func To(offset, align int64) int64 {
	if align <= 1 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// Down rounds offset down to a multiple of align.
func Down(offset, align int64) int64 {
	if align <= 1 {
		return offset
	}
	return offset &^ (align - 1)
}

// SafeTo is To with overflow detection.
func SafeTo(offset, align int64) (int64, bool) {
	if align <= 1 {
		return offset, true
	}
	if offset > math.MaxInt64-(align-1) {
		return 0, false
	}
	return To(offset, align), true
}

func SafeAdd(a, b int64) (int64, bool) {
	if b > 0 && a > math.MaxInt64-b {
		return 0, false
	}
	return a + b, true
}

func SafeMul(a, b int64) (int64, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if b != 0 && a > math.MaxInt64/b {
		return 0, false
	}
	return a * b, true
}

// IsPow2 reports whether n is a positive power of two.
func IsPow2(n int64) bool {
	return n > 0 && n&(n-1) == 0
}

// CeilDiv returns ceil(a/b) for positive b.
func CeilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}
