package layout

import (
	"math"

	"go.uber.org/zap"

	"github.com/wippyai/clayout/bitfield"
	"github.com/wippyai/clayout/ctype"
	"github.com/wippyai/clayout/diag"
	"github.com/wippyai/clayout/errors"
	"github.com/wippyai/clayout/internal/align"
	"github.com/wippyai/clayout/target"
)

// Computer derives layouts for one target. It is safe for concurrent use.
type Computer struct {
	target *target.Target
	cache  *Cache
	sink   diag.Sink
}

// Option configures a Computer.
type Option func(*Computer)

// WithCache shares a cache between computers of the same compilation unit.
func WithCache(c *Cache) Option {
	return func(cp *Computer) { cp.cache = c }
}

// WithSink sets the diagnostic sink. The default discards reports.
func WithSink(s diag.Sink) Option {
	return func(cp *Computer) { cp.sink = s }
}

func NewComputer(t *target.Target, opts ...Option) *Computer {
	c := &Computer{target: t, sink: diag.Discard}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = NewCache()
	}
	if c.sink == nil {
		c.sink = diag.Discard
	}
	return c
}

func (c *Computer) Target() *target.Target { return c.target }

func (c *Computer) Cache() *Cache { return c.cache }

// state tracks the types being laid out by value on the current call chain.
type state struct {
	visiting map[ctype.Type]bool
}

// Compute returns the layout of t. Fatal errors are reported to the sink and
// returned with a degraded layout (size 0, align 1). Recoverable problems such
// as clamped bitfield widths are reported only and do not produce an error.
func (c *Computer) Compute(t ctype.Type) (*Layout, error) {
	st := &state{visiting: make(map[ctype.Type]bool)}
	l, err := c.compute(st, t, nil)
	if err != nil {
		return l, err
	}
	return l, nil
}

// MustCompute is Compute for inputs known to be well formed.
func (c *Computer) MustCompute(t ctype.Type) *Layout {
	l, err := c.Compute(t)
	if err != nil {
		panic(err)
	}
	return l
}

func (c *Computer) report(err *errors.Error) *errors.Error {
	c.sink.Report(err)
	return err
}

func (c *Computer) compute(st *state, t ctype.Type, path []string) (*Layout, *errors.Error) {
	if t == nil {
		return degraded(nil), c.report(errors.InvalidInput(errors.PhaseLayout, "nil type"))
	}
	u := ctype.Underlying(t)
	if inc, ok := u.(*ctype.Incomplete); ok {
		return degraded(inc), c.report(errors.IncompleteType(path, inc.String()))
	}
	if l, ok := c.cache.Load(u); ok {
		return l, nil
	}
	if st.visiting[u] {
		return degraded(u), c.report(errors.New(errors.PhaseLayout, errors.KindIncompleteType).
			Path(path...).
			Type(u.String()).
			Detail("type contains itself by value").
			Build())
	}
	st.visiting[u] = true
	defer delete(st.visiting, u)

	var (
		l   *Layout
		err *errors.Error
	)
	switch typ := u.(type) {
	case *ctype.Scalar:
		l = c.scalar(typ)
	case *ctype.Pointer:
		it := c.target.Item(ctype.Ptr)
		l = &Layout{Type: typ, Kind: ctype.KindPointer, Size: it.Size, Align: it.Align, FieldAlign: it.StructAlign}
	case *ctype.Array:
		l, err = c.array(st, typ, path)
	case *ctype.Struct:
		if typ.Union {
			l, err = c.union(st, typ, path)
		} else {
			l, err = c.structure(st, typ, path)
		}
	default:
		return degraded(u), c.report(errors.Unsupported(errors.PhaseLayout, "type "+u.String()))
	}
	if err != nil {
		return l, err
	}

	published := c.cache.Store(u, l)
	if published == l {
		Logger().Debug("layout computed",
			zap.String("type", u.String()),
			zap.Int64("size", l.Size),
			zap.Int64("align", l.Align))
	}
	return published, nil
}

func (c *Computer) scalar(s *ctype.Scalar) *Layout {
	it := c.target.Item(s.Prim)
	return &Layout{Type: s, Kind: ctype.KindScalar, Size: it.Size, Align: it.Align, FieldAlign: it.StructAlign}
}

func (c *Computer) array(st *state, a *ctype.Array, path []string) (*Layout, *errors.Error) {
	elem, err := c.compute(st, a.Elem, path)
	if err != nil {
		return degraded(a), err
	}
	if a.Len < 0 {
		return degraded(a), c.report(errors.New(errors.PhaseLayout, errors.KindInvalidInput).
			Path(path...).
			Type(a.String()).
			Value(a.Len).
			Detail("negative array length").
			Build())
	}
	size, ok := align.SafeMul(elem.Size, a.Len)
	if !ok || size > c.limit() {
		return degraded(a), c.overflow(path, a)
	}
	return &Layout{
		Type:       a,
		Kind:       ctype.KindArray,
		Elem:       elem,
		Len:        a.Len,
		Size:       size,
		Align:      elem.Align,
		FieldAlign: elem.FieldAlign,
	}, nil
}

// memberAlign returns the alignment a non-bitfield member is placed at.
func memberAlign(ml *Layout, m *ctype.Member, packed bool) int64 {
	a := ml.FieldAlign
	if packed {
		a = 1
	}
	if m.Align > a {
		a = m.Align
	}
	return a
}

func childPath(path []string, m *ctype.Member) []string {
	name := m.Name
	if name == "" {
		name = "<anonymous>"
	}
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = name
	return out
}

// bitfieldUnit validates a bitfield's declared type and returns its unit
// along with the widest width the type admits: one bit for _Bool, the unit
// otherwise.
func (c *Computer) bitfieldUnit(ml *Layout, m *ctype.Member, packed bool, path []string) (bitfield.Unit, int, *errors.Error) {
	s, ok := ml.Scalar()
	if !ok || !s.Prim.IsInteger() {
		return bitfield.Unit{}, 0, c.report(errors.New(errors.PhaseLayout, errors.KindTypeMismatch).
			Path(path...).
			Type(ml.Type.String()).
			Detail("bitfield must have integer type").
			Build())
	}
	u := bitfield.Unit{Size: ml.Size, Align: ml.FieldAlign}
	if packed {
		u.Align = 1
	}
	maxBits := int(u.Bits())
	if s.Prim == ctype.Bool {
		maxBits = 1
	}
	return u, maxBits, nil
}

// limit is the largest object size layout accepts. Bit offsets of every byte
// below it fit in an int64 whatever the target claims.
func (c *Computer) limit() int64 {
	return min(c.target.MaxObjectSize, target.MaxBitAddressable)
}

func (c *Computer) checkSize(size int64, typ ctype.Type, path []string) *errors.Error {
	if size > c.limit() {
		return c.report(errors.AlignmentOverflow(path, typ.String(), c.limit()))
	}
	return nil
}

// checkAlign rejects an alignment request that is not a power of two. Zero
// means no request.
func (c *Computer) checkAlign(a int64, typ ctype.Type, path []string, what string) *errors.Error {
	if a == 0 || align.IsPow2(a) {
		return nil
	}
	return c.report(errors.New(errors.PhaseLayout, errors.KindInvalidInput).
		Path(path...).
		Type(typ.String()).
		Value(a).
		Detail("%s %d is not a power of two", what, a).
		Build())
}

func (c *Computer) overflow(path []string, typ ctype.Type) *errors.Error {
	return c.report(errors.AlignmentOverflow(path, typ.String(), c.limit()))
}

func (c *Computer) structure(st *state, s *ctype.Struct, path []string) (*Layout, *errors.Error) {
	if err := c.checkAlign(s.Align, s, path, "aggregate alignment"); err != nil {
		return degraded(s), err
	}
	l := &Layout{Type: s, Kind: ctype.KindStruct, Packed: s.Packed, Members: make([]Member, 0, len(s.Members))}
	alloc := bitfield.NewAllocator(0, s.Packed)
	maxAlign := int64(1)
	occupied := false

	for i := range s.Members {
		m := &s.Members[i]
		mpath := childPath(path, m)
		ml, err := c.compute(st, m.Type, mpath)
		if err != nil {
			return degraded(s), err
		}
		if err := c.checkAlign(m.Align, ml.Type, mpath, "_Alignas"); err != nil {
			return degraded(s), err
		}

		if m.Bitfield {
			u, maxBits, err := c.bitfieldUnit(ml, m, s.Packed, mpath)
			if err != nil {
				return degraded(s), err
			}
			width, werr := bitfield.ValidateWidth(mpath, ml.Type.String(), m.Width, maxBits, m.Name != "")
			if werr != nil {
				c.report(werr)
			}
			if width == 0 {
				alloc.Barrier(u)
				if alloc.Overflowed() {
					return degraded(s), c.overflow(mpath, s)
				}
				continue
			}
			p := alloc.Place(width, u)
			if alloc.Overflowed() || alloc.End() > c.limit() {
				return degraded(s), c.overflow(mpath, s)
			}
			if m.Name != "" && u.Align > maxAlign {
				maxAlign = u.Align
			}
			occupied = true
			l.Members = append(l.Members, bitfieldMember(ml, m, p))
			continue
		}

		a := memberAlign(ml, m, s.Packed)
		off, ok := align.SafeTo(alloc.End(), a)
		end, ok2 := align.SafeAdd(off, ml.Size)
		if !ok || !ok2 || end > c.limit() {
			return degraded(s), c.overflow(mpath, s)
		}
		alloc.Seek(end * 8)
		if a > maxAlign {
			maxAlign = a
		}
		if ml.Size > 0 {
			occupied = true
		}
		l.Members = append(l.Members, Member{
			Layout:    ml,
			Name:      m.Name,
			Offset:    off,
			BitWidth:  bitWidth(ml.Size),
			Anonymous: m.Anonymous(),
			Unaligned: off%ml.FieldAlign != 0,
		})
	}

	if s.Align > maxAlign {
		maxAlign = s.Align
	}
	size := alloc.End()
	if !occupied && size == 0 {
		size = c.target.EmptyAggregateSize
	}
	size, ok := align.SafeTo(size, maxAlign)
	if !ok {
		return degraded(s), c.overflow(path, s)
	}
	if err := c.checkSize(size, s, path); err != nil {
		return degraded(s), err
	}
	l.Size = size
	l.Align = maxAlign
	l.FieldAlign = maxAlign
	l.Fields = flatten(l.Members)
	return l, nil
}

func (c *Computer) union(st *state, s *ctype.Struct, path []string) (*Layout, *errors.Error) {
	if err := c.checkAlign(s.Align, s, path, "aggregate alignment"); err != nil {
		return degraded(s), err
	}
	l := &Layout{Type: s, Kind: ctype.KindUnion, Packed: s.Packed, Members: make([]Member, 0, len(s.Members))}
	maxAlign := int64(1)
	var maxSize int64

	for i := range s.Members {
		m := &s.Members[i]
		mpath := childPath(path, m)
		ml, err := c.compute(st, m.Type, mpath)
		if err != nil {
			return degraded(s), err
		}
		if err := c.checkAlign(m.Align, ml.Type, mpath, "_Alignas"); err != nil {
			return degraded(s), err
		}

		if m.Bitfield {
			u, maxBits, err := c.bitfieldUnit(ml, m, s.Packed, mpath)
			if err != nil {
				return degraded(s), err
			}
			width, werr := bitfield.ValidateWidth(mpath, ml.Type.String(), m.Width, maxBits, m.Name != "")
			if werr != nil {
				c.report(werr)
			}
			if width == 0 {
				continue
			}
			p := bitfield.NewAllocator(0, s.Packed).Place(width, u)
			if n := align.CeilDiv(int64(width), 8); n > maxSize {
				maxSize = n
			}
			if m.Name != "" && u.Align > maxAlign {
				maxAlign = u.Align
			}
			l.Members = append(l.Members, bitfieldMember(ml, m, p))
			continue
		}

		a := memberAlign(ml, m, s.Packed)
		if a > maxAlign {
			maxAlign = a
		}
		if ml.Size > maxSize {
			maxSize = ml.Size
		}
		l.Members = append(l.Members, Member{
			Layout:    ml,
			Name:      m.Name,
			BitWidth:  bitWidth(ml.Size),
			Anonymous: m.Anonymous(),
		})
	}

	if s.Align > maxAlign {
		maxAlign = s.Align
	}
	if maxSize == 0 {
		maxSize = c.target.EmptyAggregateSize
	}
	size, ok := align.SafeTo(maxSize, maxAlign)
	if !ok {
		return degraded(s), c.overflow(path, s)
	}
	if err := c.checkSize(size, s, path); err != nil {
		return degraded(s), err
	}
	l.Size = size
	l.Align = maxAlign
	l.FieldAlign = maxAlign
	l.Fields = flatten(l.Members)
	return l, nil
}

// bitWidth is the width in bits of a non-bitfield member of size bytes,
// saturated where int is narrower than the size range.
func bitWidth(size int64) int {
	if size > math.MaxInt/8 {
		return math.MaxInt
	}
	return int(size * 8)
}

func bitfieldMember(ml *Layout, m *ctype.Member, p bitfield.Placement) Member {
	return Member{
		Layout:     ml,
		Name:       m.Name,
		Offset:     p.Offset,
		UnitOffset: p.UnitOffset,
		UnitSize:   p.UnitSize,
		BitOffset:  p.BitOffset,
		BitWidth:   p.Width,
		Alloc:      p.Alloc,
		Bitfield:   true,
	}
}

// flatten lists named members, lifting the fields of anonymous members into
// the enclosing namespace at their physical offsets.
func flatten(members []Member) []Field {
	var fields []Field
	for i := range members {
		m := &members[i]
		if m.Anonymous {
			for _, f := range m.Layout.Fields {
				f.Index = append([]int{i}, f.Index...)
				f.Offset += m.Offset
				if f.Bitfield {
					f.UnitOffset += m.Offset
				}
				f.Unaligned = f.Unaligned || m.Unaligned
				fields = append(fields, f)
			}
			continue
		}
		if m.Name == "" {
			continue
		}
		fields = append(fields, Field{
			Layout:     m.Layout,
			Name:       m.Name,
			Index:      []int{i},
			Offset:     m.Offset,
			UnitOffset: m.UnitOffset,
			UnitSize:   m.UnitSize,
			BitOffset:  m.BitOffset,
			BitWidth:   m.BitWidth,
			Alloc:      m.Alloc,
			Bitfield:   m.Bitfield,
			Unaligned:  m.Unaligned,
		})
	}
	return fields
}
