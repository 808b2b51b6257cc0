package align

import (
	"math"
	"testing"
)

func TestTo(t *testing.T) {
	tests := []struct {
		offset, align, want int64
	}{
		{0, 4, 0},
		{1, 4, 4},
		{4, 4, 4},
		{5, 8, 8},
		{17, 16, 32},
		{3, 1, 3},
		{3, 0, 3},
	}
	for _, tt := range tests {
		if got := To(tt.offset, tt.align); got != tt.want {
			t.Errorf("To(%d, %d) = %d, want %d", tt.offset, tt.align, got, tt.want)
		}
	}
}

func TestDown(t *testing.T) {
	if got := Down(13, 8); got != 8 {
		t.Errorf("Down(13, 8) = %d, want 8", got)
	}
	if got := Down(16, 8); got != 16 {
		t.Errorf("Down(16, 8) = %d, want 16", got)
	}
}

func TestSafeArithmetic(t *testing.T) {
	if _, ok := SafeAdd(math.MaxInt64, 1); ok {
		t.Error("SafeAdd should overflow")
	}
	if v, ok := SafeAdd(40, 2); !ok || v != 42 {
		t.Errorf("SafeAdd(40, 2) = %d, %v", v, ok)
	}
	if _, ok := SafeMul(math.MaxInt64/2+1, 2); ok {
		t.Error("SafeMul should overflow")
	}
	if v, ok := SafeMul(6, 7); !ok || v != 42 {
		t.Errorf("SafeMul(6, 7) = %d, %v", v, ok)
	}
	if _, ok := SafeMul(-1, 2); ok {
		t.Error("SafeMul should reject negative operands")
	}
	if _, ok := SafeTo(math.MaxInt64-2, 8); ok {
		t.Error("SafeTo should overflow")
	}
}

func TestIsPow2(t *testing.T) {
	for _, n := range []int64{1, 2, 4, 1024} {
		if !IsPow2(n) {
			t.Errorf("IsPow2(%d) = false", n)
		}
	}
	for _, n := range []int64{0, -2, 3, 12} {
		if IsPow2(n) {
			t.Errorf("IsPow2(%d) = true", n)
		}
	}
}

func TestCeilDiv(t *testing.T) {
	if got := CeilDiv(17, 8); got != 3 {
		t.Errorf("CeilDiv(17, 8) = %d, want 3", got)
	}
	if got := CeilDiv(16, 8); got != 2 {
		t.Errorf("CeilDiv(16, 8) = %d, want 2", got)
	}
}
