package memimg

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/wippyai/clayout/bitfield"
	"github.com/wippyai/clayout/ctype"
	"github.com/wippyai/clayout/errors"
	"github.com/wippyai/clayout/layout"
	"github.com/wippyai/clayout/target"
)

// Image is the byte image of one object of a laid out type. A new image is
// zero filled, the state of an object with static storage duration.
type Image struct {
	layout *layout.Layout
	order  binary.ByteOrder
	bits   bitfield.Order
	buf    []byte
}

func New(t *target.Target, l *layout.Layout) *Image {
	return &Image{
		layout: l,
		order:  t.Endian.ByteOrder(),
		bits:   bitfield.OrderFor(t.Endian),
		buf:    make([]byte, l.Size),
	}
}

// FromBytes wraps an existing object image, for instance one read back from
// a guest's memory. b must hold at least l.Size bytes; extra bytes are dropped.
func FromBytes(t *target.Target, l *layout.Layout, b []byte) (*Image, error) {
	if int64(len(b)) < l.Size {
		return nil, errors.OutOfBounds(errors.PhaseInit, nil, l.Size, int64(len(b)))
	}
	im := New(t, l)
	copy(im.buf, b)
	return im, nil
}

// Bytes returns the image. The slice aliases the image.
func (im *Image) Bytes() []byte { return im.buf }

func (im *Image) Layout() *layout.Layout { return im.layout }

// slot is a resolved scalar storage location.
type slot struct {
	l        *layout.Layout
	off      int64
	bitOff   int
	width    int
	bitfield bool
}

func (s slot) bit() int64 { return s.off*8 + int64(s.bitOff) }

func (im *Image) resolve(path string) (slot, error) {
	pos, err := layout.OffsetOf(im.layout, path)
	if err != nil {
		return slot{}, err
	}
	if pos.Layout.Kind != ctype.KindScalar && pos.Layout.Kind != ctype.KindPointer {
		return slot{}, errors.TypeMismatch(errors.PhaseInit, splitPath(path), pos.Layout.Type.String(), path)
	}
	return slot{l: pos.Layout, off: pos.Offset, bitOff: pos.BitOffset, width: pos.BitWidth, bitfield: pos.Bitfield}, nil
}

func splitPath(path string) []string {
	return strings.Split(strings.TrimPrefix(path, "."), ".")
}

// Store writes a scalar value through a member path. Integers, floats and
// bools are accepted and converted to the member type.
func (im *Image) Store(path string, v any) error {
	s, err := im.resolve(path)
	if err != nil {
		return err
	}
	return im.store(s, v, splitPath(path))
}

func (im *Image) store(s slot, v any, path []string) error {
	raw, err := encode(s.l, v, path)
	if err != nil {
		return err
	}
	if s.bitfield {
		if s.off < 0 || s.off+s.span() > int64(len(im.buf)) {
			return errors.OutOfBounds(errors.PhaseInit, path, s.off, int64(len(im.buf)))
		}
		bitfield.Insert(im.buf, s.bit(), s.width, im.bits, raw)
		return nil
	}
	return im.put(s.off, s.l.Size, raw, path)
}

func (im *Image) put(off, size int64, raw uint64, path []string) error {
	if off < 0 || off+size > int64(len(im.buf)) {
		return errors.OutOfBounds(errors.PhaseInit, path, off, int64(len(im.buf)))
	}
	b := im.buf[off : off+size]
	switch size {
	case 1:
		b[0] = byte(raw)
	case 2:
		im.order.PutUint16(b, uint16(raw))
	case 4:
		im.order.PutUint32(b, uint32(raw))
	case 8:
		im.order.PutUint64(b, raw)
	default:
		return errors.Unsupported(errors.PhaseInit, "scalar of size "+strconv.FormatInt(size, 10))
	}
	return nil
}

func (s slot) span() int64 {
	if s.bitfield {
		return (int64(s.bitOff) + int64(s.width) + 7) / 8
	}
	return s.l.Size
}

func (im *Image) get(s slot) (uint64, error) {
	if s.off < 0 || s.off+s.span() > int64(len(im.buf)) {
		return 0, errors.OutOfBounds(errors.PhaseInit, nil, s.off, int64(len(im.buf)))
	}
	if s.bitfield {
		return bitfield.Extract(im.buf, s.bit(), s.width, im.bits), nil
	}
	b := im.buf[s.off : s.off+s.l.Size]
	switch len(b) {
	case 1:
		return uint64(b[0]), nil
	case 2:
		return uint64(im.order.Uint16(b)), nil
	case 4:
		return uint64(im.order.Uint32(b)), nil
	case 8:
		return im.order.Uint64(b), nil
	}
	return 0, errors.Unsupported(errors.PhaseInit, "scalar of size "+strconv.Itoa(len(b)))
}

func signed(l *layout.Layout) bool {
	s, ok := l.Scalar()
	return ok && s.Signed()
}

func isFloat(l *layout.Layout) bool {
	s, ok := l.Scalar()
	return ok && s.Prim.IsFloat()
}

// LoadInt reads an integer member, sign extending signed types and bitfields
// from their declared width.
func (im *Image) LoadInt(path string) (int64, error) {
	s, err := im.resolve(path)
	if err != nil {
		return 0, err
	}
	if isFloat(s.l) {
		f, err := im.loadFloat(s)
		return int64(f), err
	}
	raw, err := im.get(s)
	if err != nil {
		return 0, err
	}
	if signed(s.l) {
		return bitfield.SignExtend(raw, s.width), nil
	}
	return int64(bitfield.ZeroExtend(raw, s.width)), nil
}

// LoadUint reads the raw bits of an integer member, zero extended.
func (im *Image) LoadUint(path string) (uint64, error) {
	s, err := im.resolve(path)
	if err != nil {
		return 0, err
	}
	raw, err := im.get(s)
	if err != nil {
		return 0, err
	}
	return bitfield.ZeroExtend(raw, s.width), nil
}

// LoadFloat reads a floating member, or converts an integer member.
func (im *Image) LoadFloat(path string) (float64, error) {
	s, err := im.resolve(path)
	if err != nil {
		return 0, err
	}
	if !isFloat(s.l) {
		raw, err := im.get(s)
		if err != nil {
			return 0, err
		}
		if signed(s.l) {
			return float64(bitfield.SignExtend(raw, s.width)), nil
		}
		return float64(bitfield.ZeroExtend(raw, s.width)), nil
	}
	return im.loadFloat(s)
}

func (im *Image) loadFloat(s slot) (float64, error) {
	raw, err := im.get(s)
	if err != nil {
		return 0, err
	}
	if s.l.Size == 4 {
		return float64(math.Float32frombits(uint32(raw))), nil
	}
	return math.Float64frombits(raw), nil
}

// encode converts v to the bit pattern of scalar layout l.
func encode(l *layout.Layout, v any, path []string) (uint64, error) {
	if isFloat(l) {
		var f float64
		switch x := v.(type) {
		case float64:
			f = x
		case float32:
			f = float64(x)
		default:
			n, ok := intValue(v)
			if !ok {
				return 0, errors.TypeMismatch(errors.PhaseInit, path, l.Type.String(), v)
			}
			f = float64(n)
		}
		switch l.Size {
		case 4:
			return uint64(math.Float32bits(float32(f))), nil
		case 8:
			return math.Float64bits(f), nil
		}
		return 0, errors.Unsupported(errors.PhaseInit, l.Type.String()+" constants")
	}

	switch x := v.(type) {
	case float64:
		return uint64(int64(x)), nil
	case float32:
		return uint64(int64(x)), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	}
	n, ok := intValue(v)
	if !ok {
		return 0, errors.TypeMismatch(errors.PhaseInit, path, l.Type.String(), v)
	}
	if s, ok := l.Scalar(); ok && s.Prim == ctype.Bool && n != 0 {
		return 1, nil
	}
	return n, nil
}

func intValue(v any) (uint64, bool) {
	switch x := v.(type) {
	case int:
		return uint64(x), true
	case int8:
		return uint64(x), true
	case int16:
		return uint64(x), true
	case int32:
		return uint64(x), true
	case int64:
		return uint64(x), true
	case uint:
		return uint64(x), true
	case uint8:
		return uint64(x), true
	case uint16:
		return uint64(x), true
	case uint32:
		return uint64(x), true
	case uint64:
		return x, true
	case uintptr:
		return uint64(x), true
	}
	return 0, false
}
