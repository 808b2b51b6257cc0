package bitfield

import "github.com/wippyai/clayout/target"

// Order is the bit insertion order inside a storage unit.
type Order uint8

const (
	// LowFirst allocates from the least significant bit (little endian).
	LowFirst Order = iota
	// HighFirst allocates from the most significant bit (big endian).
	HighFirst
)

func (o Order) String() string {
	if o == HighFirst {
		return "high-first"
	}
	return "low-first"
}

// OrderFor returns the insertion order the SysV psABIs use for e.
func OrderFor(e target.Endian) Order {
	if e == target.Big {
		return HighFirst
	}
	return LowFirst
}

// Shift returns the right shift that brings the field down to bit 0 of a unit
// loaded with the target byte order.
func Shift(o Order, unitBits, alloc, width int) int {
	if o == HighFirst {
		return unitBits - alloc - width
	}
	return alloc
}

// Mask returns the low width bits set.
func Mask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(width) - 1
}

// SignExtend interprets the low width bits of v as two's complement.
func SignExtend(v uint64, width int) int64 {
	if width <= 0 {
		return 0
	}
	if width >= 64 {
		return int64(v)
	}
	s := uint(64 - width)
	return int64(v<<s) >> s
}

// ZeroExtend keeps the low width bits of v.
func ZeroExtend(v uint64, width int) uint64 {
	if width <= 0 {
		return 0
	}
	return v & Mask(width)
}

// position maps value bit i of a field at absolute allocation bit bit to a
// byte index and a shift within that byte.
func position(o Order, bit int64, width, i int) (int64, uint) {
	if o == HighFirst {
		p := bit + int64(width-1-i)
		return p / 8, uint(7 - p%8)
	}
	p := bit + int64(i)
	return p / 8, uint(p % 8)
}

// Extract reads width bits starting at absolute allocation bit bit.
func Extract(buf []byte, bit int64, width int, o Order) uint64 {
	var v uint64
	for i := 0; i < width; i++ {
		idx, sh := position(o, bit, width, i)
		v |= uint64(buf[idx]>>sh&1) << uint(i)
	}
	return v
}

// Insert writes the low width bits of v starting at absolute allocation bit
// bit, leaving neighbouring bits untouched.
func Insert(buf []byte, bit int64, width int, o Order, v uint64) {
	for i := 0; i < width; i++ {
		idx, sh := position(o, bit, width, i)
		if v>>uint(i)&1 != 0 {
			buf[idx] |= 1 << sh
		} else {
			buf[idx] &^= 1 << sh
		}
	}
}
