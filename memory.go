package clayout

import (
	"math"

	"github.com/tetratelabs/wazero/api"
	"github.com/wippyai/clayout/ctype"
	"github.com/wippyai/clayout/errors"
	"github.com/wippyai/clayout/memimg"
)

// Memory is the part of a guest's linear memory needed to place and read
// objects. wazero's api.Memory satisfies it.
type Memory interface {
	Read(offset, byteCount uint32) ([]byte, bool)
	Write(offset uint32, v []byte) bool
}

var _ Memory = api.Memory(nil)

// Store copies an object image into mem at addr. The address must satisfy
// the alignment of the image's type.
func (s *Session) Store(mem Memory, addr uint32, im *memimg.Image) error {
	l := im.Layout()
	if l.Align > 1 && int64(addr)%l.Align != 0 {
		return errors.New(errors.PhaseInit, errors.KindInvalidInput).
			Type(l.Type.String()).
			Value(addr).
			Detail("address %#x is not %d-byte aligned", addr, l.Align).
			Build()
	}
	if !mem.Write(addr, im.Bytes()) {
		return errors.OutOfBounds(errors.PhaseInit, nil, int64(addr), int64(addr)+l.Size)
	}
	return nil
}

// Load reads an object of type t at addr back as an image.
func (s *Session) Load(mem Memory, addr uint32, t ctype.Type) (*memimg.Image, error) {
	l, err := s.computer.Compute(t)
	if err != nil {
		return nil, err
	}
	if l.Size > math.MaxUint32 {
		return nil, errors.OutOfBounds(errors.PhaseInit, nil, l.Size, math.MaxUint32)
	}
	b, ok := mem.Read(addr, uint32(l.Size))
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseInit, nil, int64(addr), int64(addr)+l.Size)
	}
	return memimg.FromBytes(s.target, l, b)
}
