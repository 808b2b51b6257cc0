package bitfield

import (
	"github.com/wippyai/clayout/errors"
	"github.com/wippyai/clayout/internal/align"
)

// Unit is the storage unit of a bitfield: the size and member alignment of
// its declared type.
type Unit struct {
	Size  int64
	Align int64
}

// Bits returns the unit width in bits.
func (u Unit) Bits() int64 { return u.Size * 8 }

// Placement is where the allocator put one bitfield.
type Placement struct {
	Offset     int64 // byte holding the first allocated bit
	UnitOffset int64 // byte offset of the storage unit
	UnitSize   int64
	BitOffset  int // first allocated bit within Offset, 0..7
	Alloc      int // first allocated bit within the unit
	Width      int
}

// Bit returns the absolute allocation bit of the field.
func (p Placement) Bit() int64 {
	return p.Offset*8 + int64(p.BitOffset)
}

// Allocator packs bitfields using a bit cursor relative to the start of the
// enclosing aggregate. A field never straddles a boundary of its declared
// unit; packed aggregates drop that rule and take the next free bit.
//
// The cursor never wraps. A move past the int64 bit range leaves it in place
// and sets Overflowed.
type Allocator struct {
	bits     int64
	packed   bool
	overflow bool
}

// NewAllocator returns an allocator positioned at byte offset start.
func NewAllocator(start int64, packed bool) *Allocator {
	a := &Allocator{packed: packed}
	a.move(align.SafeMul(start, 8))
	return a
}

// Bits returns the bit cursor.
func (a *Allocator) Bits() int64 { return a.bits }

// Seek moves the bit cursor. A negative position marks the allocator
// overflowed.
func (a *Allocator) Seek(bits int64) {
	a.move(bits, bits >= 0)
}

func (a *Allocator) move(bits int64, ok bool) {
	if !ok {
		a.overflow = true
		return
	}
	a.bits = bits
}

// Overflowed reports whether a placement ran past the int64 bit range.
func (a *Allocator) Overflowed() bool { return a.overflow }

// End returns the first byte with no allocated bits.
func (a *Allocator) End() int64 {
	end := a.bits / 8
	if a.bits%8 != 0 {
		end++
	}
	return end
}

// Place allocates width bits for a field of unit u. Width must already be
// validated against the unit and be non-zero.
func (a *Allocator) Place(width int, u Unit) Placement {
	w := int64(width)
	unitBits := u.Bits()

	if a.packed {
		p := Placement{
			Offset:    a.bits / 8,
			BitOffset: int(a.bits % 8),
			Width:     width,
		}
		p.UnitOffset = p.Offset
		p.UnitSize = align.CeilDiv(int64(p.BitOffset)+w, 8)
		p.Alloc = p.BitOffset
		a.move(align.SafeAdd(a.bits, w))
		return p
	}

	last, ok := align.SafeAdd(a.bits, w-1)
	if !ok {
		a.overflow = true
		return Placement{Width: width, UnitSize: u.Size}
	}
	if a.bits/unitBits != last/unitBits {
		a.move(align.SafeTo(a.bits, unitBits))
		if a.overflow {
			return Placement{Width: width, UnitSize: u.Size}
		}
	}
	unitStart := align.Down(a.bits, unitBits)
	p := Placement{
		Offset:     a.bits / 8,
		BitOffset:  int(a.bits % 8),
		UnitOffset: unitStart / 8,
		UnitSize:   u.Size,
		Alloc:      int(a.bits - unitStart),
		Width:      width,
	}
	a.move(align.SafeAdd(a.bits, w))
	return p
}

// Barrier handles a zero-width field: the cursor moves to the next boundary
// of u, consuming no storage.
func (a *Allocator) Barrier(u Unit) {
	a.move(align.SafeTo(a.bits, u.Bits()))
}

// ValidateWidth checks a declared width against the unit. Out of range widths
// are clamped to the unit; a named zero-width field is reported and treated
// as an unnamed barrier.
func ValidateWidth(path []string, typ string, width int, unitBits int, named bool) (int, *errors.Error) {
	switch {
	case width < 0:
		return unitBits, errors.New(errors.PhaseLayout, errors.KindInvalidBitfieldWidth).
			Path(path...).
			Type(typ).
			Value(width).
			Detail("negative width %d, clamped to %d bits", width, unitBits).
			Build()
	case width > unitBits:
		return unitBits, errors.InvalidBitfieldWidth(path, typ, width, unitBits)
	case width == 0 && named:
		return 0, errors.New(errors.PhaseLayout, errors.KindInvalidBitfieldWidth).
			Path(path...).
			Type(typ).
			Value(width).
			Detail("named bitfield has zero width").
			Build()
	}
	return width, nil
}
